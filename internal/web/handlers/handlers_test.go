package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/kozaktomas/photo-migrate/internal/classify"
	"github.com/kozaktomas/photo-migrate/internal/config"
	"github.com/kozaktomas/photo-migrate/internal/coordinator"
	"github.com/kozaktomas/photo-migrate/internal/executor"
	"github.com/kozaktomas/photo-migrate/internal/model"
)

// fakeSourceReader and fakeTargetReader satisfy coordinator.SourceReader/
// TargetReader without touching sqlite or Postgres, mirroring the
// countingSourceReader/countingTargetReader doubles used in
// internal/coordinator's own tests.
type fakeSourceReader struct {
	inv *model.SourceInventory
	err error
}

func (r *fakeSourceReader) Read(ctx context.Context) (*model.SourceInventory, error) {
	return r.inv, r.err
}

type fakeTargetReader struct {
	inv *model.TargetInventory
	err error
}

func (r *fakeTargetReader) Read(ctx context.Context) (*model.TargetInventory, error) {
	return r.inv, r.err
}

func photoKey(basename string) model.PhotoKey {
	return model.NewPhotoKey(basename, 1024, time.Unix(0, 0), "")
}

// scenarioReaders builds a one-photo, one-person, one-cluster scenario with
// a perfect-overlap rectangle pair, close enough to the geometry used in
// internal/coordinator's own tests to be confident it survives classification.
func scenarioReaders() (*fakeSourceReader, *fakeTargetReader) {
	photo := photoKey("img_0001.jpg")
	rect := model.FaceRect{X1: 0.1, Y1: 0.1, X2: 0.4, Y2: 0.4}

	source := &fakeSourceReader{inv: &model.SourceInventory{
		Persons: map[string]*model.SourcePerson{
			"alice": {ID: "alice", Name: "Alice", Faces: []model.SourceFace{
				{ID: "s1", PhotoKey: photo, Rect: rect, SourcePersonID: "alice"},
			}},
		},
		TotalFaces: 1,
	}}
	target := &fakeTargetReader{inv: &model.TargetInventory{
		Faces: []model.TargetFace{
			{ID: "t1", PhotoKey: photo, Rect: rect, ClusterID: "cluster-x"},
		},
		Clusters:            map[string]*model.Cluster{"cluster-x": {ID: "cluster-x", FaceCount: 1}},
		TotalFaces:           1,
		ExistingPersonNames: map[string]bool{},
	}}
	return source, target
}

// newTestApp builds an App with a real Coordinator wired to fake readers,
// bypassing NewApp's sqlite/Postgres/HTTP dialing entirely.
func newTestApp(source coordinator.SourceReader, target coordinator.TargetReader) *App {
	cfg := &config.Config{Matching: config.MatchingConfig{MinOverlapScore: 0.30, MinPhotosInCluster: 1}}
	a := &App{cfg: cfg}
	if source != nil && target != nil {
		a.coordinator = coordinator.New(source, target, classify.DefaultConfig())
	}
	return a
}

// fakeClient is an executor.Client test double recording every call it
// receives so handler tests can assert on what was sent downstream.
type fakeClient struct {
	renameErr error
	renamed   []string // clusterID:name pairs

	personsByName map[string]string // pre-seeded existing persons
	created       []string          // person names created

	assignErr error
	assigned  []string // faceID:personID pairs

	createFaceErr error
	facesCreated  []executor.CreateFaceItem
}

func (c *fakeClient) RenameCluster(ctx context.Context, clusterID, name string) error {
	if c.renameErr != nil {
		return c.renameErr
	}
	c.renamed = append(c.renamed, clusterID+":"+name)
	return nil
}

func (c *fakeClient) FindPersonByName(ctx context.Context, name string) (string, error) {
	if c.personsByName == nil {
		return "", nil
	}
	return c.personsByName[name], nil
}

func (c *fakeClient) CreatePerson(ctx context.Context, name string) (string, error) {
	c.created = append(c.created, name)
	return "new-" + name, nil
}

func (c *fakeClient) AssignFace(ctx context.Context, faceID, personID string) error {
	if c.assignErr != nil {
		return c.assignErr
	}
	c.assigned = append(c.assigned, faceID+":"+personID)
	return nil
}

func (c *fakeClient) CreateFace(ctx context.Context, personID string, item executor.CreateFaceItem) error {
	if c.createFaceErr != nil {
		return c.createFaceErr
	}
	c.facesCreated = append(c.facesCreated, item)
	return nil
}

var errBoom = errors.New("boom")

func blankConfig() *config.Config {
	return &config.Config{Matching: config.MatchingConfig{MinOverlapScore: 0.30, MinPhotosInCluster: 1}}
}
