package offline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/storage"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/store"
	"github.com/dmitrijs2005/tillkeeper/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeApplier records replayed operations and fails selected document ids.
type fakeApplier struct {
	mu      sync.Mutex
	applied []string          // document ids in replay order
	errs    map[string]error  // document id -> error
	block   chan struct{}     // when set, Apply waits until closed
}

func (f *fakeApplier) Apply(ctx context.Context, op models.QueuedOperation) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[op.DocumentID]; ok {
		return err
	}
	f.applied = append(f.applied, op.DocumentID)
	return nil
}

func newManager(t *testing.T) (*Manager, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	m := NewManager(kv, nil, bus.New())
	return m, kv
}

func queueOp(m *Manager, docID string) models.QueuedOperation {
	return m.QueueOperation(context.Background(), models.QueuedOperation{
		Kind:       models.OpUpdate,
		Collection: "orders",
		DocumentID: docID,
		Payload:    models.Record{"status": "closed"},
	})
}

func TestQueueAndSyncAppliesInFIFOOrder(t *testing.T) {
	m, _ := newManager(t)
	m.SetNetworkStatus(false) // no auto-replay while enqueueing

	queueOp(m, "d1")
	queueOp(m, "d2")
	queueOp(m, "d3")
	require.Equal(t, 3, m.QueueSize(context.Background()))

	f := &fakeApplier{}
	m.SetApplier(f)

	results := m.Sync(context.Background())
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, models.SyncApplied, r.Outcome)
	}
	assert.Equal(t, []string{"d1", "d2", "d3"}, f.applied)
	assert.Equal(t, 0, m.QueueSize(context.Background()))
}

func TestSyncTransientFailureKeepsOperationAndContinues(t *testing.T) {
	m, _ := newManager(t)
	m.SetNetworkStatus(false)

	queueOp(m, "d1")
	queueOp(m, "d2")
	queueOp(m, "d3")

	f := &fakeApplier{errs: map[string]error{
		"d2": store.NewError(store.CodeUnavailable, "backend down"),
	}}
	m.SetApplier(f)

	results := m.Sync(context.Background())
	require.Len(t, results, 3)
	assert.Equal(t, models.SyncApplied, results[0].Outcome)
	assert.Equal(t, models.SyncDeferred, results[1].Outcome)
	assert.Equal(t, models.SyncApplied, results[2].Outcome)

	// d2 stays queued; d1 and d3 are gone.
	pending := m.PendingOperations(context.Background())
	require.Len(t, pending, 1)
	assert.Equal(t, "d2", pending[0].DocumentID)
	assert.Equal(t, []string{"d1", "d3"}, f.applied)
}

func TestSyncPermanentFailureRemovesOperation(t *testing.T) {
	m, _ := newManager(t)
	m.SetNetworkStatus(false)

	queueOp(m, "d1")

	f := &fakeApplier{errs: map[string]error{
		"d1": store.NewError(store.CodeFailedPrecondition, "schema rejected"),
	}}
	m.SetApplier(f)

	results := m.Sync(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, models.SyncFailed, results[0].Outcome)
	assert.Equal(t, 0, m.QueueSize(context.Background()))
}

func TestSyncSingleFlight(t *testing.T) {
	m, _ := newManager(t)
	m.SetNetworkStatus(false)
	queueOp(m, "d1")

	f := &fakeApplier{block: make(chan struct{})}
	m.SetApplier(f)

	done := make(chan []models.SyncResult, 1)
	go func() { done <- m.Sync(context.Background()) }()

	// Wait for the first Sync to claim the flag.
	require.Eventually(t, func() bool { return m.syncing.Load() }, time.Second, time.Millisecond)

	// The overlapping call is a no-op.
	assert.Nil(t, m.Sync(context.Background()))
	assert.Equal(t, 1, m.QueueSize(context.Background()))

	close(f.block)
	results := <-done
	require.Len(t, results, 1)
	assert.Equal(t, 0, m.QueueSize(context.Background()))
}

func TestCacheCollectionRoundTrip(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	records := []models.Record{{"id": "m1", "name": "Margherita"}}
	m.CacheCollection(ctx, "menu_items", records)

	got, ok := m.GetCachedCollection(ctx, "menu_items")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID())

	_, ok = m.GetCachedCollection(ctx, "unknown")
	assert.False(t, ok)
}

func TestCacheStalenessWindow(t *testing.T) {
	m, kv := newManager(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.CacheCollection(ctx, "orders", []models.Record{{"id": "o1"}})

	// Just inside the window.
	m.now = func() time.Time { return base.Add(24 * time.Hour) }
	_, ok := m.GetCachedCollection(ctx, "orders")
	assert.True(t, ok)

	// One millisecond past the window: absent, and the entry is removed.
	m.now = func() time.Time { return base.Add(24*time.Hour + time.Millisecond) }
	_, ok = m.GetCachedCollection(ctx, "orders")
	assert.False(t, ok)

	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keys, "cache_orders")
	assert.NotContains(t, keys, "timestamp_orders")
}

func TestSetNetworkStatusTriggersSyncAndListeners(t *testing.T) {
	m, _ := newManager(t)
	m.SetNetworkStatus(false)
	queueOp(m, "d1")

	f := &fakeApplier{}
	m.SetApplier(f)

	var transitions []bool
	unsubscribe := m.OnNetworkChange(func(online bool) { transitions = append(transitions, online) })

	// Same value: no listener call, no replay.
	m.SetNetworkStatus(false)
	assert.Empty(t, transitions)

	// Offline -> online replays synchronously.
	m.SetNetworkStatus(true)
	assert.Equal(t, []bool{true}, transitions)
	assert.Equal(t, []string{"d1"}, f.applied)
	assert.Equal(t, 0, m.QueueSize(context.Background()))

	unsubscribe()
	m.SetNetworkStatus(false)
	assert.Equal(t, []bool{true}, transitions, "unsubscribed listener must not fire")
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	m, kv := newManager(t)
	ctx := context.Background()

	kv.FailNext = assert.AnError
	m.CacheCollection(ctx, "orders", []models.Record{{"id": "o1"}}) // must not panic

	_, ok := m.GetCachedCollection(ctx, "orders")
	assert.False(t, ok)
}

func TestQueueOperationAssignsIDAndTimestamp(t *testing.T) {
	m, _ := newManager(t)
	m.SetNetworkStatus(false)

	op := queueOp(m, "d1")
	assert.NotEmpty(t, op.ID)
	assert.False(t, op.EnqueuedAt.IsZero())

	pending := m.PendingOperations(context.Background())
	require.Len(t, pending, 1)
	assert.Equal(t, op.ID, pending[0].ID)
}
