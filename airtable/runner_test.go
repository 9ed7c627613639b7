package airtable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeClient struct {
	mu      sync.Mutex
	creates []string
	updates []string

	updateErr map[string]error
	createErr map[string]error
	nextID    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		updateErr: map[string]error{},
		createErr: map[string]error{},
	}
}

func (f *fakeClient) Create(ctx context.Context, table string, fields map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprint(fields["key"])
	f.creates = append(f.creates, key)
	if err := f.createErr[key]; err != nil {
		return "", err
	}
	f.nextID++
	return fmt.Sprintf("rec%d", f.nextID), nil
}

func (f *fakeClient) Update(ctx context.Context, table string, recordID string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, recordID)
	return f.updateErr[recordID]
}

func (f *fakeClient) Find(ctx context.Context, table string, recordID string) (*Record, error) {
	return &Record{ID: recordID}, nil
}

func (f *fakeClient) List(ctx context.Context, table string) ([]Record, error) {
	return nil, nil
}

func (f *fakeClient) Delete(ctx context.Context, table string, recordID string) error {
	return nil
}

// memStore backs an EntitySync with in-memory id/synced_at bookkeeping.
type memStore struct {
	mu        sync.Mutex
	external  map[int]*string
	synced    map[int]time.Time
	batches   int
	batchFunc func(limit int) []SyncTarget
}

func newMemStore() *memStore {
	return &memStore{
		external: map[int]*string{},
		synced:   map[int]time.Time{},
	}
}

func (s *memStore) sync(kind string, mark MarkPolicy) *EntitySync {
	return &EntitySync{
		Kind:  kind,
		Table: func() string { return "Test Table" },
		Quota: DefaultQuota,
		Mark:  mark,
		SelectBatch: func(ctx context.Context, limit int) ([]SyncTarget, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.batches++
			return s.batchFunc(limit), nil
		},
		SetExternalID: func(ctx context.Context, localID int, externalID *string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.external[localID] = externalID
			return nil
		},
		MarkSynced: func(ctx context.Context, localIDs []int, at time.Time) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, id := range localIDs {
				s.synced[id] = at
			}
			return nil
		},
	}
}

func target(localID int, externalID string) SyncTarget {
	return SyncTarget{
		LocalID:    localID,
		ExternalID: externalID,
		Fields:     map[string]interface{}{"key": fmt.Sprint(localID)},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestRunnerCreatesNewRecords(t *testing.T) {
	client := newFakeClient()
	store := newMemStore()
	store.batchFunc = func(limit int) []SyncTarget {
		return []SyncTarget{target(1, ""), target(2, "")}
	}
	runner := NewRunner(client, NewRunGuard(nil), testLogger(), []*EntitySync{store.sync("test_sync", MarkAttempted)})

	if err := runner.Run(context.Background(), "test_sync"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(client.creates) != 2 {
		t.Fatalf("expected 2 creates, got %d", len(client.creates))
	}
	if store.external[1] == nil || store.external[2] == nil {
		t.Fatalf("external ids not stored: %v", store.external)
	}
	if _, ok := store.synced[1]; !ok {
		t.Fatal("record 1 not marked synced")
	}
	if _, ok := store.synced[2]; !ok {
		t.Fatal("record 2 not marked synced")
	}
}

func TestRunnerSelfHealsDanglingPointer(t *testing.T) {
	client := newFakeClient()
	client.updateErr["recGONE"] = ErrRecordNotFound

	store := newMemStore()
	store.batchFunc = func(limit int) []SyncTarget {
		return []SyncTarget{target(1, "recGONE")}
	}
	runner := NewRunner(client, NewRunGuard(nil), testLogger(), []*EntitySync{store.sync("test_sync", MarkAttempted)})

	if err := runner.Run(context.Background(), "test_sync"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(client.updates) != 1 || client.updates[0] != "recGONE" {
		t.Fatalf("expected one failed update first, got %v", client.updates)
	}
	if len(client.creates) != 1 {
		t.Fatalf("expected exactly one create after NotFound, got %d", len(client.creates))
	}
	ext := store.external[1]
	if ext == nil || *ext != "rec1" {
		t.Fatalf("expected fresh external id rec1, got %v", ext)
	}
	if _, ok := store.synced[1]; !ok {
		t.Fatal("healed record should be marked synced")
	}
}

func TestRunnerIsolatesPerRecordFailures(t *testing.T) {
	client := newFakeClient()
	client.createErr["2"] = &TransientError{Op: "create", Table: "Test Table", Status: 500, Err: errors.New("boom")}

	store := newMemStore()
	store.batchFunc = func(limit int) []SyncTarget {
		return []SyncTarget{target(1, ""), target(2, ""), target(3, "")}
	}
	runner := NewRunner(client, NewRunGuard(nil), testLogger(), []*EntitySync{store.sync("test_sync", MarkAttempted)})

	if err := runner.Run(context.Background(), "test_sync"); err != nil {
		t.Fatalf("a per-record failure must not surface: %v", err)
	}

	if store.external[1] == nil || store.external[3] == nil {
		t.Fatalf("surviving records should have external ids: %v", store.external)
	}
	if store.external[2] != nil {
		t.Fatalf("failed record should have no external id, got %v", *store.external[2])
	}
	// MarkAttempted stamps the failed record too.
	for _, id := range []int{1, 2, 3} {
		if _, ok := store.synced[id]; !ok {
			t.Fatalf("record %d should be marked attempted", id)
		}
	}
}

func TestRunnerMarkOnSuccessSkipsFailures(t *testing.T) {
	client := newFakeClient()
	client.createErr["2"] = &TransientError{Op: "create", Table: "Test Table", Err: errors.New("boom")}

	store := newMemStore()
	store.batchFunc = func(limit int) []SyncTarget {
		return []SyncTarget{target(1, ""), target(2, "")}
	}
	runner := NewRunner(client, NewRunGuard(nil), testLogger(), []*EntitySync{store.sync("test_sync", MarkOnSuccess)})

	if err := runner.Run(context.Background(), "test_sync"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := store.synced[1]; !ok {
		t.Fatal("successful record should be marked")
	}
	if _, ok := store.synced[2]; ok {
		t.Fatal("failed record must keep its old mark under MarkOnSuccess")
	}
}

func TestRunnerDeduplicatesConcurrentRuns(t *testing.T) {
	client := newFakeClient()
	store := newMemStore()

	started := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	store.batchFunc = func(limit int) []SyncTarget {
		once.Do(func() {
			close(started)
			<-proceed
		})
		return []SyncTarget{target(1, "")}
	}
	runner := NewRunner(client, NewRunGuard(nil), testLogger(), []*EntitySync{store.sync("test_sync", MarkAttempted)})

	done := make(chan error, 1)
	go func() {
		done <- runner.Run(context.Background(), "test_sync")
	}()
	<-started

	// Second trigger while the first run is inside its batch: silent no-op.
	if err := runner.Run(context.Background(), "test_sync"); err != nil {
		t.Fatalf("duplicate run should be a no-op, got %v", err)
	}
	close(proceed)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}

	if store.batches != 1 {
		t.Fatalf("expected exactly one batch processed, got %d", store.batches)
	}
}

func TestRunnerUnknownKind(t *testing.T) {
	runner := NewRunner(newFakeClient(), NewRunGuard(nil), testLogger(), nil)
	if err := runner.Run(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRunnerReleasesGuardAfterRun(t *testing.T) {
	client := newFakeClient()
	store := newMemStore()
	store.batchFunc = func(limit int) []SyncTarget { return nil }
	runner := NewRunner(client, NewRunGuard(nil), testLogger(), []*EntitySync{store.sync("test_sync", MarkAttempted)})

	if err := runner.Run(context.Background(), "test_sync"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := runner.Run(context.Background(), "test_sync"); err != nil {
		t.Fatalf("second run after release: %v", err)
	}
	if store.batches != 2 {
		t.Fatalf("expected both runs to process, got %d batches", store.batches)
	}
}
