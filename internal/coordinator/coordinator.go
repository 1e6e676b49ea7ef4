// Package coordinator is the single public entry point that loads both
// readers once, runs the pipeline, and re-derives Aggregator/Classifier
// output for any threshold pair without re-querying either store.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/photo-migrate/internal/aggregate"
	"github.com/kozaktomas/photo-migrate/internal/classify"
	"github.com/kozaktomas/photo-migrate/internal/joiner"
	"github.com/kozaktomas/photo-migrate/internal/matcher"
	"github.com/kozaktomas/photo-migrate/internal/model"
	"github.com/kozaktomas/photo-migrate/internal/stats"
)

// SourceReader produces the source-side inventory. Implemented by
// internal/sourcedb against the legacy SQLite store.
type SourceReader interface {
	Read(ctx context.Context) (*model.SourceInventory, error)
}

// TargetReader produces the target-side inventory. Implemented by
// internal/targetdb against Immich's relational store.
type TargetReader interface {
	Read(ctx context.Context) (*model.TargetInventory, error)
}

// Coordinator caches both readers' output and the Geometric Matcher's raw
// list behind a mutex: the first caller to RunFullAnalysis triggers the
// load, later callers (with any thresholds) reuse it.
type Coordinator struct {
	sourceReader SourceReader
	targetReader TargetReader
	classifyCfg  classify.Config

	mu        sync.RWMutex
	loaded    bool
	loadErr   error
	source    *model.SourceInventory
	target    *model.TargetInventory
	join      joiner.Result
	rawMatches []model.RawFaceMatch
}

// New returns a Coordinator bound to the given readers.
func New(sourceReader SourceReader, targetReader TargetReader, classifyCfg classify.Config) *Coordinator {
	return &Coordinator{sourceReader: sourceReader, targetReader: targetReader, classifyCfg: classifyCfg}
}

// ensureLoaded runs the Readers, Joiner, and Matcher exactly once per
// Coordinator (and once more after each Reset); concurrent callers block on the same load rather than
// triggering duplicate reads: at most one reader-load is in flight at a
// time.
func (c *Coordinator) ensureLoaded(ctx context.Context) error {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.loadErr
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.loadErr
	}

	source, err := c.sourceReader.Read(ctx)
	if err != nil {
		c.loadErr = fmt.Errorf("reading source store: %w", err)
		c.loaded = true
		return c.loadErr
	}
	target, err := c.targetReader.Read(ctx)
	if err != nil {
		c.loadErr = fmt.Errorf("reading target store: %w", err)
		c.loaded = true
		return c.loadErr
	}

	join := joiner.Join(source, target)
	raw := matcher.Match(source, target, join)

	c.source = source
	c.target = target
	c.join = join
	c.rawMatches = raw
	c.loaded = true
	return nil
}

// Reset discards the cached reader output, forcing the next
// RunFullAnalysis to re-query both stores.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.loadErr = nil
	c.source = nil
	c.target = nil
	c.join = joiner.Result{}
	c.rawMatches = nil
}

// RunFullAnalysis runs the full pipeline at the given thresholds, reusing
// the cached readers and raw matches if already loaded.
func (c *Coordinator) RunFullAnalysis(ctx context.Context, thresholds model.Thresholds) (*model.AnalysisBundle, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	source, target, join, raw := c.source, c.target, c.join, c.rawMatches
	c.mu.RUnlock()

	aggregates := aggregate.Aggregate(raw, thresholds)

	var ious, centerDists []float64
	for _, m := range raw {
		ious = append(ious, m.IoU)
		centerDists = append(centerDists, m.CenterDist)
	}

	bundle := &model.AnalysisBundle{
		Thresholds:      thresholds,
		RawMatches:      raw,
		Aggregates:      aggregates,
		CommonPhotoCount: len(join.Common),
		SourceOnlyCount:  join.SourceOnlyCount,
		TargetOnlyCount:  join.TargetOnlyCount,
		IoUStats:        stats.Summarize(ious, stats.MetricIoU),
		CenterDistStats: stats.Summarize(centerDists, stats.MetricCenterDist),

		RenameApplicable:     classify.RenameApplicable(aggregates, target, c.classifyCfg),
		AssignUnclustered:    classify.AssignUnclustered(raw, thresholds, target),
		MergeCandidates:      classify.MergeCandidate(aggregates, c.classifyCfg),
		ValidationIssues:     classify.ValidationIssue(aggregates, target, c.classifyCfg),
		CreateFaceCandidates: classify.CreateFaceCandidate(source, raw, join.Common, thresholds),
	}

	return bundle, nil
}

// SourceInventory exposes the cached source inventory for callers that
// need it outside RunFullAnalysis (e.g. the /stats endpoint). Triggers a
// load if not already cached.
func (c *Coordinator) SourceInventory(ctx context.Context) (*model.SourceInventory, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source, nil
}

// TargetInventory exposes the cached target inventory, loading if needed.
func (c *Coordinator) TargetInventory(ctx context.Context) (*model.TargetInventory, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target, nil
}
