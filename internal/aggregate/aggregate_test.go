package aggregate

import (
	"testing"
	"time"

	"github.com/kozaktomas/photo-migrate/internal/model"
)

func photoKey(n string) model.PhotoKey {
	return model.NewPhotoKey(n, 1, time.Unix(0, 0), "")
}

func TestAggregate_GroupsByPersonAndCluster(t *testing.T) {
	th := model.Thresholds{MinIoU: 0.3, MaxCenterDist: 0.4}
	raw := []model.RawFaceMatch{
		{SourcePersonID: "p1", SourcePersonName: "Alice", ClusterID: "c1", ClusterName: "Cluster A", PhotoKey: photoKey("a.jpg"), IoU: 0.5, CenterDist: 0.1},
		{SourcePersonID: "p1", SourcePersonName: "Alice", ClusterID: "c1", ClusterName: "Cluster A", PhotoKey: photoKey("b.jpg"), IoU: 0.6, CenterDist: 0.05},
		{SourcePersonID: "p1", SourcePersonName: "Alice", ClusterID: "c2", ClusterName: "Cluster B", PhotoKey: photoKey("c.jpg"), IoU: 0.4, CenterDist: 0.2},
	}
	got := Aggregate(raw, th)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(got), got)
	}
	if got[0].ClusterID != "c1" || got[0].Count != 2 {
		t.Errorf("unexpected first group: %+v", got[0])
	}
	if got[1].ClusterID != "c2" || got[1].Count != 1 {
		t.Errorf("unexpected second group: %+v", got[1])
	}
}

func TestAggregate_ExcludesFailingMatches(t *testing.T) {
	th := model.Thresholds{MinIoU: 0.3, MaxCenterDist: 0.4}
	raw := []model.RawFaceMatch{
		{SourcePersonID: "p1", ClusterID: "c1", PhotoKey: photoKey("a.jpg"), IoU: 0.1, CenterDist: 0.1},
	}
	got := Aggregate(raw, th)
	if len(got) != 0 {
		t.Fatalf("expected no groups when every match fails thresholds, got %+v", got)
	}
}

func TestAggregate_MeanAndConfidence(t *testing.T) {
	th := model.Thresholds{MinIoU: 0, MaxCenterDist: 1}
	raw := make([]model.RawFaceMatch, 0, 5)
	for i := 0; i < 5; i++ {
		raw = append(raw, model.RawFaceMatch{
			SourcePersonID: "p1", ClusterID: "c1",
			PhotoKey: photoKey("p.jpg"), IoU: 0.5, CenterDist: 0.1,
		})
	}
	got := Aggregate(raw, th)
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}
	if got[0].Count != 5 {
		t.Errorf("expected count=5, got %d", got[0].Count)
	}
	if got[0].MeanIoU != 0.5 {
		t.Errorf("expected meanIoU=0.5, got %v", got[0].MeanIoU)
	}
	if got[0].Confidence != model.ConfidenceHigh {
		t.Errorf("expected high confidence (count>=5, meanIoU>=0.4), got %v", got[0].Confidence)
	}
}

func TestAggregate_SamplePhotoKeysBoundedAndSortedByIoU(t *testing.T) {
	th := model.Thresholds{MinIoU: 0, MaxCenterDist: 1}
	var raw []model.RawFaceMatch
	for i := 0; i < 8; i++ {
		raw = append(raw, model.RawFaceMatch{
			SourcePersonID: "p1", ClusterID: "c1",
			PhotoKey: photoKey(string(rune('a' + i))),
			IoU:      float64(i) / 10,
			CenterDist: 0.1,
		})
	}
	got := Aggregate(raw, th)
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}
	if len(got[0].SamplePhotoKeys) != 5 {
		t.Fatalf("expected sample photo keys bounded to 5, got %d", len(got[0].SamplePhotoKeys))
	}
	// Highest IoU was i=7 ("h"); it must be the first sample.
	if got[0].SamplePhotoKeys[0].String() != photoKey("h").String() {
		t.Errorf("expected most-overlapping photo first, got %v", got[0].SamplePhotoKeys[0])
	}
}
