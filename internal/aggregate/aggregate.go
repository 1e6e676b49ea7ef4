// Package aggregate groups raw matches that pass the active thresholds by
// (SourcePerson, Cluster) pair and summarizes each group into a
// PairAggregate.
package aggregate

import (
	"sort"

	"github.com/kozaktomas/photo-migrate/internal/model"
)

// maxSamplePhotoKeys bounds PairAggregate.SamplePhotoKeys.
const maxSamplePhotoKeys = 5

type groupKey struct {
	sourcePersonID string
	clusterID      string
}

// Aggregate groups the raw matches passing thresholds into PairAggregates,
// one per distinct (SourcePerson, Cluster) combination observed. Matches
// that fail the thresholds are excluded entirely; this function never
// queries either store and is pure over its inputs.
func Aggregate(raw []model.RawFaceMatch, thresholds model.Thresholds) []model.PairAggregate {
	groups := make(map[groupKey][]model.RawFaceMatch)
	var order []groupKey

	for _, m := range raw {
		if !m.Passes(thresholds) {
			continue
		}
		k := groupKey{sourcePersonID: m.SourcePersonID, clusterID: m.ClusterID}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], m)
	}

	out := make([]model.PairAggregate, 0, len(order))
	for _, k := range order {
		out = append(out, summarizeGroup(k, groups[k]))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SourcePersonID != out[j].SourcePersonID {
			return out[i].SourcePersonID < out[j].SourcePersonID
		}
		return out[i].ClusterID < out[j].ClusterID
	})

	return out
}

func summarizeGroup(k groupKey, matches []model.RawFaceMatch) model.PairAggregate {
	var sumIoU, sumCenterDist float64
	for _, m := range matches {
		sumIoU += m.IoU
		sumCenterDist += m.CenterDist
	}
	count := len(matches)
	meanIoU := sumIoU / float64(count)
	meanCenterDist := sumCenterDist / float64(count)

	sorted := make([]model.RawFaceMatch, len(matches))
	copy(sorted, matches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].IoU > sorted[j].IoU })

	sampleCount := min(len(sorted), maxSamplePhotoKeys)
	samples := make([]model.PhotoKey, 0, sampleCount)
	seen := make(map[string]bool, sampleCount)
	for _, m := range sorted {
		if len(samples) == sampleCount {
			break
		}
		key := m.PhotoKey.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		samples = append(samples, m.PhotoKey)
	}

	return model.PairAggregate{
		SourcePersonID:   k.sourcePersonID,
		SourcePersonName: matches[0].SourcePersonName,
		ClusterID:        k.clusterID,
		ClusterName:      matches[0].ClusterName,
		Count:            count,
		MeanIoU:          meanIoU,
		MeanCenterDist:   meanCenterDist,
		Confidence:       model.ClassifyConfidence(count, meanIoU),
		SamplePhotoKeys:  samples,
	}
}
