// Package joiner reconciles the Source Reader's and Target Reader's
// independent photo sets into the common PhotoKey set the Geometric
// Matcher iterates over.
package joiner

import (
	"sort"

	"github.com/kozaktomas/photo-migrate/internal/model"
)

// Result is the Photo Joiner's output: the common PhotoKey set plus
// only-here counts for diagnosing path-mapping mistakes.
type Result struct {
	Common          []model.PhotoKey // sorted by PhotoKey.String() for determinism
	SourceOnlyCount int
	TargetOnlyCount int
}

// Join computes the set intersection of PhotoKeys present in both
// inventories. The join never fails: an empty intersection is a valid,
// fully-specified result.
func Join(source *model.SourceInventory, target *model.TargetInventory) Result {
	sourceKeys := make(map[string]model.PhotoKey)
	for _, person := range source.Persons {
		for _, face := range person.Faces {
			sourceKeys[face.PhotoKey.String()] = face.PhotoKey
		}
	}

	targetKeys := make(map[string]model.PhotoKey)
	for _, face := range target.Faces {
		targetKeys[face.PhotoKey.String()] = face.PhotoKey
	}

	var common []model.PhotoKey
	for k, key := range sourceKeys {
		if _, ok := targetKeys[k]; ok {
			common = append(common, key)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].String() < common[j].String() })

	return Result{
		Common:          common,
		SourceOnlyCount: len(sourceKeys) - len(common),
		TargetOnlyCount: len(targetKeys) - len(common),
	}
}
