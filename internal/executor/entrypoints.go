package executor

import (
	"context"
	"errors"
	"fmt"
)

// RenameItem is one RenameCluster operation.
type RenameItem struct {
	SourcePersonName string
	ClusterID        string
}

// AssignItem is one AssignUnclusteredFaces operation: a single source
// person and every unclustered target face to move onto them.
type AssignItem struct {
	SourcePersonName string
	FaceIDs          []string
}

// CreateFaceItem is one CreateFaces operation: pixel-space coordinates plus
// the asset's own pixel dimensions.
type CreateFaceItem struct {
	SourcePersonName string
	AssetID          string
	X, Y             float64
	Width, Height    float64
	ImageWidth       int
	ImageHeight      int
}

// AcknowledgeItem is one MergeClusters or FixClusters item: no remote call
// is made, it is marked done in the progress stream only.
type AcknowledgeItem struct {
	Label string
}

// Executor applies classifier-derived operations against a Client, one item
// at a time, per batch.
type Executor struct {
	client Client
}

// New returns an Executor bound to the given target-service client.
func New(client Client) *Executor {
	return &Executor{client: client}
}

// resolvePerson returns an existing person's ID, or creates one if absent.
// Shared by AssignUnclusteredFaces and CreateFaces as the person-reuse-or-
// create preamble.
func (e *Executor) resolvePerson(ctx context.Context, name string) (string, error) {
	id, err := e.client.FindPersonByName(ctx, name)
	if err != nil {
		return "", newItemError(ErrOther, "looking up person %q: %v", name, err)
	}
	if id != "" {
		return id, nil
	}
	id, err = e.client.CreatePerson(ctx, name)
	if err != nil {
		return "", newItemError(ErrCreateFailed, "creating person %q: %v", name, err)
	}
	return id, nil
}

// RenameClusters applies each RenameItem in order. dryRun skips the remote
// call and reports success without mutating the target store.
func (e *Executor) RenameClusters(ctx context.Context, batchID string, progress *Progress, items []RenameItem, dryRun bool) BatchResult {
	label := func(i int) string { return fmt.Sprintf("%s -> %s", items[i].ClusterID, items[i].SourcePersonName) }
	apply := func(ctx context.Context, i int) error {
		item := items[i]
		if dryRun {
			return nil
		}
		err := e.client.RenameCluster(ctx, item.ClusterID, item.SourcePersonName)
		if err == nil {
			return nil
		}
		var ie *itemError
		if errors.As(err, &ie) {
			return ie
		}
		return newItemError(ErrOther, "renaming cluster %s: %v", item.ClusterID, err)
	}
	return runBatch(ctx, batchID, progress, len(items), label, apply)
}

// AssignUnclusteredFaces applies each AssignItem in order: resolve (or
// create) the target person, then reassign every face individually so the
// UI gets face-level progress.
func (e *Executor) AssignUnclusteredFaces(ctx context.Context, batchID string, progress *Progress, items []AssignItem, dryRun bool) BatchResult {
	// Flatten to one executor item per face: progress is deliberately
	// face-granular, not person-granular.
	type faceUnit struct {
		personName string
		faceID     string
	}
	var units []faceUnit
	for _, item := range items {
		for _, faceID := range item.FaceIDs {
			units = append(units, faceUnit{personName: item.SourcePersonName, faceID: faceID})
		}
	}

	personIDCache := make(map[string]string)

	label := func(i int) string { return fmt.Sprintf("%s -> face %s", units[i].personName, units[i].faceID) }
	apply := func(ctx context.Context, i int) error {
		u := units[i]
		if dryRun {
			return nil
		}
		personID, ok := personIDCache[u.personName]
		if !ok {
			var err error
			personID, err = e.resolvePerson(ctx, u.personName)
			if err != nil {
				return err
			}
			personIDCache[u.personName] = personID
		}
		if err := e.client.AssignFace(ctx, u.faceID, personID); err != nil {
			return newItemError(ErrAssignFailed, "assigning face %s to %s: %v", u.faceID, u.personName, err)
		}
		return nil
	}
	return runBatch(ctx, batchID, progress, len(units), label, apply)
}

// CreateFaces applies each CreateFaceItem in order: resolve (or create) the
// target person, then create one face region per item.
func (e *Executor) CreateFaces(ctx context.Context, batchID string, progress *Progress, items []CreateFaceItem, dryRun bool) BatchResult {
	personIDCache := make(map[string]string)

	label := func(i int) string { return fmt.Sprintf("%s -> asset %s", items[i].SourcePersonName, items[i].AssetID) }
	apply := func(ctx context.Context, i int) error {
		item := items[i]
		if dryRun {
			return nil
		}
		personID, ok := personIDCache[item.SourcePersonName]
		if !ok {
			var err error
			personID, err = e.resolvePerson(ctx, item.SourcePersonName)
			if err != nil {
				return err
			}
			personIDCache[item.SourcePersonName] = personID
		}
		if err := e.client.CreateFace(ctx, personID, item); err != nil {
			return newItemError(ErrCreateFailed, "creating face on asset %s: %v", item.AssetID, err)
		}
		return nil
	}
	return runBatch(ctx, batchID, progress, len(items), label, apply)
}

// Acknowledge implements MergeClusters and FixClusters: no remote call,
// every item is marked success immediately. Immich has no API support for
// merging or retroactively fixing clusters, so these are acknowledgment-
// only operations.
func (e *Executor) Acknowledge(ctx context.Context, batchID string, progress *Progress, items []AcknowledgeItem) BatchResult {
	label := func(i int) string { return items[i].Label }
	apply := func(ctx context.Context, i int) error { return nil }
	return runBatch(ctx, batchID, progress, len(items), label, apply)
}
