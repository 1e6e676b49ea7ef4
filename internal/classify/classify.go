// Package classify derives the four operation buckets plus create-face
// candidates from the aggregated pairs and the readers' inventories. All
// classifications are deterministic given the raw matches and thresholds.
package classify

import (
	"sort"

	"github.com/kozaktomas/photo-migrate/internal/facematch"
	"github.com/kozaktomas/photo-migrate/internal/model"
)

// Config holds the Classifier's tunable knobs.
type Config struct {
	MinMatches                int     // MergeCandidate cluster floor, default 2
	ValidationMinorityFloor   int     // ValidationIssue severity knob, default 1
	ValidationMinorityPercent float64 // ValidationIssue severity knob, default 0.10
	MinPhotosInCluster        int     // min_photos_in_cluster: target clusters smaller than this are never rename candidates, default 1
}

// DefaultConfig returns the default classifier tunables. ValidationMinorityFloor
// is 1, not 2: two source persons each projecting a single face onto the
// same already-named cluster should surface as an `error`-severity issue,
// which only holds with a floor of 1. See DESIGN.md.
func DefaultConfig() Config {
	return Config{
		MinMatches:                2,
		ValidationMinorityFloor:   1,
		ValidationMinorityPercent: 0.10,
		MinPhotosInCluster:        1,
	}
}

// RenameApplicable derives the rename bucket: every PairAggregate whose
// cluster is currently unnamed and carries at least cfg.MinPhotosInCluster
// faces, filtering out noise clusters.
func RenameApplicable(aggregates []model.PairAggregate, target *model.TargetInventory, cfg Config) []model.RenameApplicable {
	var out []model.RenameApplicable
	for _, agg := range aggregates {
		cluster := target.Clusters[agg.ClusterID]
		if cluster == nil || cluster.Named() {
			continue
		}
		if cluster.FaceCount < cfg.MinPhotosInCluster {
			continue
		}
		out = append(out, model.RenameApplicable{
			SourcePersonID:   agg.SourcePersonID,
			SourcePersonName: agg.SourcePersonName,
			ClusterID:        agg.ClusterID,
			Aggregate:        agg,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourcePersonID != out[j].SourcePersonID {
			return out[i].SourcePersonID < out[j].SourcePersonID
		}
		return out[i].ClusterID < out[j].ClusterID
	})
	return out
}

// AssignUnclustered groups passing raw matches against unclustered target
// faces by SourcePersonID. Unique target-face IDs are counted once
// regardless of how many source faces matched them.
func AssignUnclustered(raw []model.RawFaceMatch, thresholds model.Thresholds, target *model.TargetInventory) []model.AssignUnclusteredGroup {
	unclustered := make(map[string]bool, len(target.Faces))
	for _, f := range target.Faces {
		if f.Unclustered() {
			unclustered[f.ID] = true
		}
	}

	type accum struct {
		personName   string
		faceIDs      map[string]bool
		uniqueFaces  int
		totalIoU     float64
		samplePhotos []model.RawFaceMatch
	}
	groups := make(map[string]*accum)
	var order []string

	for _, m := range raw {
		if !m.Passes(thresholds) {
			continue
		}
		if !unclustered[m.TargetFaceID] {
			continue
		}
		a, ok := groups[m.SourcePersonID]
		if !ok {
			a = &accum{personName: m.SourcePersonName, faceIDs: make(map[string]bool)}
			groups[m.SourcePersonID] = a
			order = append(order, m.SourcePersonID)
		}
		if !a.faceIDs[m.TargetFaceID] {
			a.faceIDs[m.TargetFaceID] = true
			a.uniqueFaces++
			a.totalIoU += m.IoU
			a.samplePhotos = append(a.samplePhotos, m)
		}
	}

	out := make([]model.AssignUnclusteredGroup, 0, len(order))
	for _, personID := range order {
		a := groups[personID]
		faceIDs := make([]string, 0, len(a.faceIDs))
		for id := range a.faceIDs {
			faceIDs = append(faceIDs, id)
		}
		sort.Strings(faceIDs)

		sort.Slice(a.samplePhotos, func(i, j int) bool { return a.samplePhotos[i].IoU > a.samplePhotos[j].IoU })
		previewCount := min(len(a.samplePhotos), 5)
		preview := make([]model.PhotoKey, 0, previewCount)
		for i := 0; i < previewCount; i++ {
			preview = append(preview, a.samplePhotos[i].PhotoKey)
		}

		meanIoU := 0.0
		if a.uniqueFaces > 0 {
			meanIoU = a.totalIoU / float64(a.uniqueFaces)
		}

		out = append(out, model.AssignUnclusteredGroup{
			SourcePersonID:      personID,
			SourcePersonName:    a.personName,
			TargetFaceIDs:       faceIDs,
			MeanIoU:             meanIoU,
			NeedsPersonCreation: !target.HasPersonNamed(normalizeName(a.personName)),
			PreviewPhotoKeys:    preview,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SourcePersonID < out[j].SourcePersonID })
	return out
}

// MergeCandidate derives the merge bucket: source persons whose passing
// aggregates span at least two distinct clusters each with at least
// cfg.MinMatches matched faces.
func MergeCandidate(aggregates []model.PairAggregate, cfg Config) []model.MergeCandidate {
	byPerson := make(map[string][]model.PairAggregate)
	var order []string
	for _, agg := range aggregates {
		if agg.ClusterID == "" {
			continue
		}
		if _, ok := byPerson[agg.SourcePersonID]; !ok {
			order = append(order, agg.SourcePersonID)
		}
		byPerson[agg.SourcePersonID] = append(byPerson[agg.SourcePersonID], agg)
	}

	var out []model.MergeCandidate
	for _, personID := range order {
		aggs := byPerson[personID]
		var eligible []model.PairAggregate
		for _, agg := range aggs {
			if agg.Count >= cfg.MinMatches {
				eligible = append(eligible, agg)
			}
		}
		if len(eligible) < 2 {
			continue
		}
		refs := make([]model.MergeClusterRef, 0, len(eligible))
		for _, agg := range eligible {
			refs = append(refs, model.MergeClusterRef{
				ClusterID:    agg.ClusterID,
				ClusterName:  agg.ClusterName,
				MatchedCount: agg.Count,
			})
		}
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].MatchedCount != refs[j].MatchedCount {
				return refs[i].MatchedCount > refs[j].MatchedCount
			}
			return refs[i].ClusterID < refs[j].ClusterID
		})
		out = append(out, model.MergeCandidate{
			SourcePersonID:   personID,
			SourcePersonName: aggs[0].SourcePersonName,
			Clusters:         refs,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SourcePersonID < out[j].SourcePersonID })
	return out
}

// ValidationIssue derives the validation bucket: clusters onto which two or
// more distinct source persons project with non-trivial support.
func ValidationIssue(aggregates []model.PairAggregate, target *model.TargetInventory, cfg Config) []model.ValidationIssue {
	byCluster := make(map[string][]model.PairAggregate)
	var order []string
	for _, agg := range aggregates {
		if agg.ClusterID == "" {
			continue
		}
		if _, ok := byCluster[agg.ClusterID]; !ok {
			order = append(order, agg.ClusterID)
		}
		byCluster[agg.ClusterID] = append(byCluster[agg.ClusterID], agg)
	}

	var out []model.ValidationIssue
	for _, clusterID := range order {
		aggs := byCluster[clusterID]
		if len(aggs) < 2 {
			continue
		}

		shares := make([]model.ValidationPersonShare, 0, len(aggs))
		matchedFaces := 0
		for _, agg := range aggs {
			shares = append(shares, model.ValidationPersonShare{
				SourcePersonID:   agg.SourcePersonID,
				SourcePersonName: agg.SourcePersonName,
				FaceCount:        agg.Count,
			})
			matchedFaces += agg.Count
		}
		sort.Slice(shares, func(i, j int) bool {
			if shares[i].FaceCount != shares[j].FaceCount {
				return shares[i].FaceCount > shares[j].FaceCount
			}
			return shares[i].SourcePersonID < shares[j].SourcePersonID
		})

		totalInCluster := matchedFaces
		if c := target.Clusters[clusterID]; c != nil {
			totalInCluster = c.FaceCount
		}

		minority := shares[1].FaceCount
		severity := model.SeverityWarning
		if minority >= cfg.ValidationMinorityFloor && float64(minority) >= cfg.ValidationMinorityPercent*float64(totalInCluster) {
			severity = model.SeverityError
		}

		clusterName := ""
		if c := target.Clusters[clusterID]; c != nil {
			clusterName = c.Name
		}

		out = append(out, model.ValidationIssue{
			ClusterID:           clusterID,
			ClusterName:         clusterName,
			MatchedFaces:        matchedFaces,
			TotalFacesInCluster: totalInCluster,
			PerPerson:           shares,
			Severity:            severity,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ClusterID < out[j].ClusterID })
	return out
}

// CreateFaceCandidate derives the create-face bucket: source faces on
// common photos with no target face reaching the IoU threshold.
func CreateFaceCandidate(source *model.SourceInventory, raw []model.RawFaceMatch, commonPhotos []model.PhotoKey, thresholds model.Thresholds) []model.CreateFaceCandidate {
	common := make(map[string]bool, len(commonPhotos))
	for _, k := range commonPhotos {
		common[k.String()] = true
	}

	bestIoU := make(map[string]float64)
	for _, m := range raw {
		if m.IoU > bestIoU[m.SourceFaceID] {
			bestIoU[m.SourceFaceID] = m.IoU
		}
	}

	var out []model.CreateFaceCandidate
	for _, person := range source.Persons {
		for _, face := range person.Faces {
			if !common[face.PhotoKey.String()] {
				continue
			}
			if bestIoU[face.ID] >= thresholds.MinIoU {
				continue
			}
			out = append(out, model.CreateFaceCandidate{
				SourcePersonID:   person.ID,
				SourcePersonName: person.Name,
				SourceFaceID:     face.ID,
				PhotoKey:         face.PhotoKey,
				Rect:             face.Rect,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SourcePersonID != out[j].SourcePersonID {
			return out[i].SourcePersonID < out[j].SourcePersonID
		}
		return out[i].SourceFaceID < out[j].SourceFaceID
	})
	return out
}

// normalizeName applies the same name normalization the readers use to
// populate TargetInventory.ExistingPersonNames, so the needs_person_creation
// lookup compares like with like.
func normalizeName(name string) string {
	return facematch.NormalizePersonName(name)
}
