package executor

import (
	"context"
	"sync"
	"testing"
)

// fakeClient is a minimal in-memory Client for exercising the Executor
// without a network dependency.
type fakeClient struct {
	mu          sync.Mutex
	clusters    map[string]string // clusterID -> name ("" = unnamed)
	persons     map[string]string // name -> personID
	assignments map[string]string // faceID -> personID
	created     []CreateFaceItem

	renameCalls int
	failNth     int // if > 0, the Nth RenameCluster call (1-indexed) fails
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		clusters:    make(map[string]string),
		persons:     make(map[string]string),
		assignments: make(map[string]string),
	}
}

func (f *fakeClient) RenameCluster(ctx context.Context, clusterID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameCalls++
	if f.failNth > 0 && f.renameCalls == f.failNth {
		return NewClientError(ErrNetwork, "simulated failure")
	}
	existing, ok := f.clusters[clusterID]
	if !ok {
		return NewClientError(ErrNotFound, "cluster %s not found", clusterID)
	}
	if existing != "" {
		return NewClientError(ErrAlreadyNamed, "cluster %s already named %q", clusterID, existing)
	}
	f.clusters[clusterID] = name
	return nil
}

func (f *fakeClient) FindPersonByName(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.persons[name], nil
}

func (f *fakeClient) CreatePerson(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "person-" + name
	f.persons[name] = id
	return id, nil
}

func (f *fakeClient) AssignFace(ctx context.Context, faceID, personID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignments[faceID] = personID
	return nil
}

func (f *fakeClient) CreateFace(ctx context.Context, personID string, item CreateFaceItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, item)
	return nil
}

func TestRenameClusters_Success(t *testing.T) {
	client := newFakeClient()
	client.clusters["c1"] = ""
	e := New(client)
	progress := NewProgress()

	result := e.RenameClusters(context.Background(), "b1", progress, []RenameItem{{SourcePersonName: "Alice", ClusterID: "c1"}}, false)
	if result.SuccessCount != 1 || result.FailedCount != 0 {
		t.Fatalf("expected 1 success, got %+v", result)
	}
	if client.clusters["c1"] != "Alice" {
		t.Errorf("expected cluster renamed to Alice, got %q", client.clusters["c1"])
	}
}

func TestRenameClusters_IdempotentSecondApplyYieldsAlreadyNamed(t *testing.T) {
	client := newFakeClient()
	client.clusters["c1"] = ""
	e := New(client)
	progress := NewProgress()

	items := []RenameItem{{SourcePersonName: "Alice", ClusterID: "c1"}}
	first := e.RenameClusters(context.Background(), "b1", progress, items, false)
	if first.SuccessCount != 1 {
		t.Fatalf("expected first apply to succeed, got %+v", first)
	}

	second := e.RenameClusters(context.Background(), "b2", progress, items, false)
	if second.SuccessCount != 0 || second.FailedCount != 1 {
		t.Fatalf("expected second apply to fail, got %+v", second)
	}
}

func TestRenameClusters_DryRunDoesNotMutate(t *testing.T) {
	client := newFakeClient()
	client.clusters["c1"] = ""
	e := New(client)
	progress := NewProgress()

	result := e.RenameClusters(context.Background(), "b1", progress, []RenameItem{{SourcePersonName: "Alice", ClusterID: "c1"}}, true)
	if result.SuccessCount != 1 {
		t.Fatalf("expected dry-run to report success, got %+v", result)
	}
	if client.clusters["c1"] != "" {
		t.Errorf("expected dry-run not to mutate the target, got %q", client.clusters["c1"])
	}
}

func TestRenameClusters_NotFound(t *testing.T) {
	client := newFakeClient()
	e := New(client)
	progress := NewProgress()

	result := e.RenameClusters(context.Background(), "b1", progress, []RenameItem{{SourcePersonName: "Alice", ClusterID: "missing"}}, false)
	if result.FailedCount != 1 {
		t.Fatalf("expected 1 failure for a missing cluster, got %+v", result)
	}
}

// TestRenameClusters_ScenarioF: 5 items, cancel after item 2 succeeds.
// Cancellation is observed asynchronously through the progress listener, so
// the test checks that the totals balance and that at least items 0-2
// succeeded.
func TestRenameClusters_ScenarioF(t *testing.T) {
	client := newFakeClient()
	items := make([]RenameItem, 5)
	for i := range items {
		id := string(rune('a' + i))
		client.clusters[id] = ""
		items[i] = RenameItem{SourcePersonName: "Person" + id, ClusterID: id}
	}
	e := New(client)
	progress := NewProgress()
	events := progress.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())

	var collected []ProgressEvent
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		successCount := 0
		for ev := range events {
			collected = append(collected, ev)
			if ev.Status == StatusSuccess {
				successCount++
				if successCount == 3 { // items 0,1,2 succeeded
					cancel()
				}
			}
		}
	}()

	result := e.RenameClusters(ctx, "batch-f", progress, items, false)
	progress.Unsubscribe(events)
	wg.Wait()

	if result.Total != 5 {
		t.Fatalf("expected total=5, got %d", result.Total)
	}
	if result.SuccessCount+result.FailedCount+result.SkippedCount != result.Total {
		t.Fatalf("expected success+failed+skipped=total, got %+v", result)
	}
	if result.SuccessCount < 3 {
		t.Errorf("expected at least 3 successes before cancellation landed, got %d", result.SuccessCount)
	}
}

func TestAssignUnclusteredFaces_CreatesPersonOnce(t *testing.T) {
	client := newFakeClient()
	e := New(client)
	progress := NewProgress()

	items := []AssignItem{{SourcePersonName: "Bob", FaceIDs: []string{"f1", "f2"}}}
	result := e.AssignUnclusteredFaces(context.Background(), "b1", progress, items, false)
	if result.SuccessCount != 2 {
		t.Fatalf("expected 2 face-level successes, got %+v", result)
	}
	if len(client.persons) != 1 {
		t.Errorf("expected exactly one person created, got %d", len(client.persons))
	}
	if client.assignments["f1"] == "" || client.assignments["f2"] == "" {
		t.Errorf("expected both faces assigned, got %+v", client.assignments)
	}
}

func TestAssignUnclusteredFaces_ReusesExistingPerson(t *testing.T) {
	client := newFakeClient()
	client.persons["Bob"] = "person-bob-existing"
	e := New(client)
	progress := NewProgress()

	items := []AssignItem{{SourcePersonName: "Bob", FaceIDs: []string{"f1"}}}
	e.AssignUnclusteredFaces(context.Background(), "b1", progress, items, false)
	if client.assignments["f1"] != "person-bob-existing" {
		t.Errorf("expected face assigned to the existing person, got %q", client.assignments["f1"])
	}
}

func TestCreateFaces_Success(t *testing.T) {
	client := newFakeClient()
	e := New(client)
	progress := NewProgress()

	items := []CreateFaceItem{{SourcePersonName: "Frank", AssetID: "asset-1", X: 10, Y: 10, Width: 50, Height: 50, ImageWidth: 1000, ImageHeight: 800}}
	result := e.CreateFaces(context.Background(), "b1", progress, items, false)
	if result.SuccessCount != 1 {
		t.Fatalf("expected 1 success, got %+v", result)
	}
	if len(client.created) != 1 {
		t.Fatalf("expected 1 created face, got %d", len(client.created))
	}
}

func TestAcknowledge_AlwaysSucceedsWithNoRemoteCall(t *testing.T) {
	client := newFakeClient()
	e := New(client)
	progress := NewProgress()

	items := []AcknowledgeItem{{Label: "merge carol"}, {Label: "merge dave"}}
	result := e.Acknowledge(context.Background(), "b1", progress, items)
	if result.SuccessCount != 2 || result.FailedCount != 0 {
		t.Fatalf("expected both acknowledge items to succeed, got %+v", result)
	}
}

func TestBatchResult_TotalsAlwaysBalance(t *testing.T) {
	client := newFakeClient()
	for _, id := range []string{"c1", "c2", "c3"} {
		client.clusters[id] = ""
	}
	client.failNth = 2
	e := New(client)
	progress := NewProgress()

	items := []RenameItem{
		{SourcePersonName: "A", ClusterID: "c1"},
		{SourcePersonName: "B", ClusterID: "c2"},
		{SourcePersonName: "C", ClusterID: "c3"},
	}
	result := e.RenameClusters(context.Background(), "b1", progress, items, false)
	if result.SuccessCount+result.FailedCount+result.SkippedCount != result.Total {
		t.Fatalf("invariant violated: %+v", result)
	}
	if result.FailedCount != 1 {
		t.Fatalf("expected exactly 1 failure from the simulated network error, got %+v", result)
	}
}
