package executor

import "context"

// Client is everything the Executor needs from the target service. The
// internal/immich package provides the production implementation; tests
// supply a fake.
type Client interface {
	// RenameCluster renames clusterID to name. Implementations must report
	// ErrNotFound if the cluster no longer exists and ErrAlreadyNamed if it
	// already carries any name, even the same one — the Executor never
	// overwrites.
	RenameCluster(ctx context.Context, clusterID, name string) error

	// FindPersonByName returns the target-side person ID for an existing
	// person with this display name, or "" if none exists.
	FindPersonByName(ctx context.Context, name string) (string, error)

	// CreatePerson creates a new target-side person and returns its ID.
	CreatePerson(ctx context.Context, name string) (string, error)

	// AssignFace reassigns an existing target face to personID.
	AssignFace(ctx context.Context, faceID, personID string) error

	// CreateFace creates a new face region belonging to personID on an
	// asset, in pixel coordinates relative to the asset's own dimensions.
	CreateFace(ctx context.Context, personID string, item CreateFaceItem) error
}
