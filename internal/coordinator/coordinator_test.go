package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/kozaktomas/photo-migrate/internal/classify"
	"github.com/kozaktomas/photo-migrate/internal/model"
)

func pk(n string) model.PhotoKey {
	return model.NewPhotoKey(n, 1, time.Unix(0, 0), "")
}

type countingSourceReader struct {
	calls int
	inv   *model.SourceInventory
}

func (r *countingSourceReader) Read(ctx context.Context) (*model.SourceInventory, error) {
	r.calls++
	return r.inv, nil
}

type countingTargetReader struct {
	calls int
	inv   *model.TargetInventory
}

func (r *countingTargetReader) Read(ctx context.Context) (*model.TargetInventory, error) {
	r.calls++
	return r.inv, nil
}

func buildScenarioA() (*countingSourceReader, *countingTargetReader) {
	photo := pk("p1.jpg")
	source := &countingSourceReader{inv: &model.SourceInventory{
		Persons: map[string]*model.SourcePerson{
			"alice": {ID: "alice", Name: "Alice", Faces: []model.SourceFace{
				{ID: "s1", PhotoKey: photo, Rect: model.FaceRect{X1: 0.1, Y1: 0.1, X2: 0.4, Y2: 0.4}, SourcePersonID: "alice"},
			}},
		},
	}}
	target := &countingTargetReader{inv: &model.TargetInventory{
		Faces: []model.TargetFace{
			{ID: "t1", PhotoKey: photo, Rect: model.FaceRect{X1: 0.1, Y1: 0.1, X2: 0.4, Y2: 0.4}, ClusterID: "x"},
		},
		Clusters: map[string]*model.Cluster{"x": {ID: "x", Name: "", FaceCount: 1}},
		ExistingPersonNames: map[string]bool{},
	}}
	return source, target
}

func TestRunFullAnalysis_ScenarioA(t *testing.T) {
	source, target := buildScenarioA()
	c := New(source, target, classify.DefaultConfig())

	bundle, err := c.RunFullAnalysis(context.Background(), model.DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.RawMatches) != 1 || bundle.RawMatches[0].IoU != 1.0 {
		t.Fatalf("expected 1 raw match with IoU=1.0, got %+v", bundle.RawMatches)
	}
	if len(bundle.RenameApplicable) != 1 {
		t.Fatalf("expected 1 rename-applicable entry, got %+v", bundle.RenameApplicable)
	}
}

func TestRunFullAnalysis_CachesReaders(t *testing.T) {
	source, target := buildScenarioA()
	c := New(source, target, classify.DefaultConfig())

	_, err := c.RunFullAnalysis(context.Background(), model.Thresholds{MinIoU: 0.1, MaxCenterDist: 0.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = c.RunFullAnalysis(context.Background(), model.Thresholds{MinIoU: 0.9, MaxCenterDist: 0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if source.calls != 1 || target.calls != 1 {
		t.Fatalf("expected readers to be invoked exactly once across both calls, got source=%d target=%d", source.calls, target.calls)
	}
}

func TestRunFullAnalysis_ResetForcesReload(t *testing.T) {
	source, target := buildScenarioA()
	c := New(source, target, classify.DefaultConfig())

	_, _ = c.RunFullAnalysis(context.Background(), model.DefaultThresholds())
	c.Reset()
	_, _ = c.RunFullAnalysis(context.Background(), model.DefaultThresholds())

	if source.calls != 2 || target.calls != 2 {
		t.Fatalf("expected Reset to force a second load, got source=%d target=%d", source.calls, target.calls)
	}
}

func TestRunFullAnalysis_ExactMatchSurvivesLooseAndStrictThresholds(t *testing.T) {
	source, target := buildScenarioA()
	c := New(source, target, classify.DefaultConfig())

	loose, _ := c.RunFullAnalysis(context.Background(), model.Thresholds{MinIoU: 0.0, MaxCenterDist: 1.0})
	strict, _ := c.RunFullAnalysis(context.Background(), model.Thresholds{MinIoU: 0.99, MaxCenterDist: 0.01})

	if len(loose.Aggregates) != 1 {
		t.Fatalf("expected loose thresholds to keep the aggregate, got %+v", loose.Aggregates)
	}
	if len(strict.Aggregates) != 1 {
		t.Fatalf("expected the exact-match aggregate to still pass strict thresholds, got %+v", strict.Aggregates)
	}
}

func TestRunFullAnalysis_EmptyInventoriesProduceEmptyBundle(t *testing.T) {
	source := &countingSourceReader{inv: &model.SourceInventory{Persons: map[string]*model.SourcePerson{}}}
	target := &countingTargetReader{inv: &model.TargetInventory{Clusters: map[string]*model.Cluster{}}}
	c := New(source, target, classify.DefaultConfig())

	bundle, err := c.RunFullAnalysis(context.Background(), model.DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.RawMatches) != 0 || len(bundle.Aggregates) != 0 {
		t.Fatalf("expected empty bundle for empty inventories, got %+v", bundle)
	}
	if bundle.IoUStats.SampleCount != 0 {
		t.Errorf("expected well-defined empty statistics, got %+v", bundle.IoUStats)
	}
}
