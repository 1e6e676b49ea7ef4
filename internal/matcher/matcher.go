// Package matcher computes geometric overlap between source and target
// faces: for every photo present in both stores it enumerates the Cartesian
// product of source and target faces and emits a RawFaceMatch for every
// pair with positive IoU. The matcher is total and threshold-free; it
// never fails.
package matcher

import (
	"runtime"
	"sort"
	"sync"

	"github.com/kozaktomas/photo-migrate/internal/facematch"
	"github.com/kozaktomas/photo-migrate/internal/joiner"
	"github.com/kozaktomas/photo-migrate/internal/model"
)

// photoFaces indexes source/target faces by PhotoKey for the per-photo
// Cartesian product.
type photoFaces struct {
	sourceByPhoto map[string][]model.SourceFace
	targetByPhoto map[string][]model.TargetFace
}

func buildIndex(source *model.SourceInventory, target *model.TargetInventory) photoFaces {
	idx := photoFaces{
		sourceByPhoto: make(map[string][]model.SourceFace),
		targetByPhoto: make(map[string][]model.TargetFace),
	}
	for _, person := range source.Persons {
		for _, face := range person.Faces {
			k := face.PhotoKey.String()
			idx.sourceByPhoto[k] = append(idx.sourceByPhoto[k], face)
		}
	}
	for _, face := range target.Faces {
		k := face.PhotoKey.String()
		idx.targetByPhoto[k] = append(idx.targetByPhoto[k], face)
	}
	return idx
}

// personLookup and clusterLookup let the per-photo worker attach display
// names to a RawFaceMatch without re-querying either store.
type personLookup = map[string]*model.SourcePerson
type clusterLookup = map[string]*model.Cluster

// matchesForPhoto computes every positive-IoU pair on one photo.
func matchesForPhoto(
	photoKey model.PhotoKey,
	sourceFaces []model.SourceFace,
	targetFaces []model.TargetFace,
	persons personLookup,
	clusters clusterLookup,
) []model.RawFaceMatch {
	if len(sourceFaces) == 0 || len(targetFaces) == 0 {
		return nil
	}

	var out []model.RawFaceMatch
	for _, sf := range sourceFaces {
		person := persons[sf.SourcePersonID]
		if person == nil {
			continue
		}
		for _, tf := range targetFaces {
			iou := facematch.ComputeIoU(sf.Rect, tf.Rect)
			if iou <= 0 {
				continue
			}
			var clusterName string
			if tf.ClusterID != "" {
				if c := clusters[tf.ClusterID]; c != nil {
					clusterName = c.Name
				}
			}
			out = append(out, model.RawFaceMatch{
				SourcePersonID:   sf.SourcePersonID,
				SourcePersonName: person.Name,
				ClusterID:        tf.ClusterID,
				ClusterName:      clusterName,
				SourceFaceID:     sf.ID,
				TargetFaceID:     tf.ID,
				PhotoKey:         photoKey,
				IoU:              iou,
				CenterDist:       facematch.ComputeCenterDist(sf.Rect, tf.Rect),
			})
		}
	}
	return out
}

// Match runs the matcher over every common photo the joiner identified.
// Work is fanned out across photos (embarrassingly parallel) with a worker
// pool sized to available CPUs.
func Match(source *model.SourceInventory, target *model.TargetInventory, join joiner.Result) []model.RawFaceMatch {
	if len(join.Common) == 0 {
		return nil
	}

	idx := buildIndex(source, target)

	workers := runtime.GOMAXPROCS(0)
	if workers > len(join.Common) {
		workers = len(join.Common)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan model.PhotoKey, len(join.Common))
	results := make(chan []model.RawFaceMatch, len(join.Common))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for photoKey := range jobs {
				k := photoKey.String()
				matches := matchesForPhoto(photoKey, idx.sourceByPhoto[k], idx.targetByPhoto[k], source.Persons, target.Clusters)
				if len(matches) > 0 {
					results <- matches
				}
			}
		}()
	}

	for _, k := range join.Common {
		jobs <- k
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []model.RawFaceMatch
	for batch := range results {
		all = append(all, batch...)
	}

	// Deterministic ordering: by photo, then source face, then target face.
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.PhotoKey.String() != b.PhotoKey.String() {
			return a.PhotoKey.String() < b.PhotoKey.String()
		}
		if a.SourceFaceID != b.SourceFaceID {
			return a.SourceFaceID < b.SourceFaceID
		}
		return a.TargetFaceID < b.TargetFaceID
	})

	return all
}
