// Package offline implements the terminal's offline layer: the last-known
// snapshot cache for remote collections and the durable queue of writes
// attempted while the backend was unreachable, with automatic FIFO replay
// once connectivity returns.
//
// The cache and queue are advisory, not transactional: every persistence
// failure is logged and swallowed, never surfaced to callers. The backing
// key-value storage offers no durability guarantee beyond "eventually
// flushed", so pretending otherwise here would only move the lie upward.
package offline

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/storage"
	"github.com/dmitrijs2005/tillkeeper/internal/bus"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/logging"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/store"
	"github.com/google/uuid"
)

// Applier re-issues one queued operation against the backend. The façade
// implements this with its direct remote path; errors come back classified
// so the queue can decide between retry and drop.
type Applier interface {
	Apply(ctx context.Context, op models.QueuedOperation) error
}

// Manager owns the collection cache, the mutation queue, and the
// process-wide network state.
type Manager struct {
	kv      storage.KeyValueStore
	log     logging.Logger
	bus     *bus.Bus
	applier Applier

	mu        sync.Mutex // guards queue/cache read-modify-write and listeners
	online    bool
	listeners map[int]func(bool)
	nextID    int

	syncing atomic.Bool

	now func() time.Time // test seam
}

// NewManager creates a Manager on the given storage. The network state
// starts online; the first failed remote call flips it. b may be nil in
// tests that do not observe events.
func NewManager(kv storage.KeyValueStore, log logging.Logger, b *bus.Bus) *Manager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Manager{
		kv:        kv,
		log:       log,
		bus:       b,
		online:    true,
		listeners: make(map[int]func(bool)),
		now:       time.Now,
	}
}

// SetApplier wires the replay target. The façade calls this once during
// startup; the mutual dependency between façade and queue is broken here
// rather than with a package cycle.
func (m *Manager) SetApplier(a Applier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applier = a
}

func cacheKey(name string) string     { return common.StorageKeyCachePrefix + name }
func timestampKey(name string) string { return common.StorageKeyTimestampPrefix + name }

// CacheCollection overwrites the persisted snapshot for name. Failures are
// logged and swallowed; the cache is best-effort.
func (m *Manager) CacheCollection(ctx context.Context, name string, records []models.Record) {
	data, err := json.Marshal(records)
	if err != nil {
		m.log.Warn(ctx, "cache encode failed", "collection", name, "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.kv.Set(ctx, cacheKey(name), data); err != nil {
		m.log.Warn(ctx, "cache write failed", "collection", name, "error", err)
		return
	}
	ts := m.now().UTC().Format(time.RFC3339Nano)
	if err := m.kv.Set(ctx, timestampKey(name), []byte(ts)); err != nil {
		m.log.Warn(ctx, "cache timestamp write failed", "collection", name, "error", err)
	}
}

// GetCachedCollection returns the snapshot for name if one exists and is
// younger than the staleness window. A stale entry is deleted as a side
// effect and reported as absent.
func (m *Manager) GetCachedCollection(ctx context.Context, name string) ([]models.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.kv.Get(ctx, timestampKey(name))
	if err != nil {
		return nil, false
	}
	writtenAt, err := time.Parse(time.RFC3339Nano, string(raw))
	snapshot := models.CachedCollection{Name: name, WrittenAt: writtenAt}
	if err != nil || snapshot.Stale(m.now(), common.CacheStalenessWindow) {
		if err := m.kv.MultiRemove(ctx, []string{cacheKey(name), timestampKey(name)}); err != nil {
			m.log.Warn(ctx, "stale cache cleanup failed", "collection", name, "error", err)
		}
		return nil, false
	}

	data, err := m.kv.Get(ctx, cacheKey(name))
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal(data, &snapshot.Records); err != nil {
		m.log.Warn(ctx, "cache decode failed", "collection", name, "error", err)
		return nil, false
	}
	return snapshot.Records, true
}

// QueueOperation appends op to the durable queue, filling in its id and
// enqueue timestamp, and returns the stored operation. If the network is
// currently believed online, a replay attempt is kicked off best-effort
// (not awaited).
func (m *Manager) QueueOperation(ctx context.Context, op models.QueuedOperation) models.QueuedOperation {
	op.ID = uuid.NewString()
	op.EnqueuedAt = m.now().UTC()

	m.mu.Lock()
	queue := m.loadQueueLocked(ctx)
	queue = append(queue, op)
	m.saveQueueLocked(ctx, queue)
	online := m.online
	m.mu.Unlock()

	m.log.Info(ctx, "operation queued",
		"id", op.ID, "kind", op.Kind, "collection", op.Collection, "pending", len(queue))

	if online {
		go func() {
			m.Sync(context.Background())
		}()
	}
	return op
}

// PendingOperations returns the queued operations in enqueue order.
func (m *Manager) PendingOperations(ctx context.Context) []models.QueuedOperation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadQueueLocked(ctx)
}

// QueueSize returns the number of queued operations.
func (m *Manager) QueueSize(ctx context.Context) int {
	return len(m.PendingOperations(ctx))
}

// Sync replays the queue in FIFO order through the applier. An operation
// is removed after its replay succeeds or fails permanently; a
// connectivity-class failure leaves it queued (skipping it, continuing
// with later operations). Overlapping calls collapse: while one Sync runs,
// further calls return nil immediately.
func (m *Manager) Sync(ctx context.Context) []models.SyncResult {
	if !m.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer m.syncing.Store(false)

	m.mu.Lock()
	queue := m.loadQueueLocked(ctx)
	m.mu.Unlock()

	if len(queue) == 0 {
		return []models.SyncResult{}
	}

	applier := m.applier
	if applier == nil {
		m.log.Warn(ctx, "sync skipped: no applier wired")
		return nil
	}

	m.log.Info(ctx, "queue replay started", "pending", len(queue))

	results := make([]models.SyncResult, 0, len(queue))
	for _, op := range queue {
		err := applier.Apply(ctx, op)
		switch {
		case err == nil:
			results = append(results, models.SyncResult{OperationID: op.ID, Outcome: models.SyncApplied})
			m.removeOperation(ctx, op.ID)
		case store.IsConnectivity(err):
			m.log.Warn(ctx, "replay deferred", "id", op.ID, "error", err)
			results = append(results, models.SyncResult{OperationID: op.ID, Outcome: models.SyncDeferred, Err: err})
			// Kept in the queue for the next connectivity event.
		default:
			m.log.Error(ctx, "replay failed permanently", "id", op.ID, "error", err)
			results = append(results, models.SyncResult{OperationID: op.ID, Outcome: models.SyncFailed, Err: err})
			m.removeOperation(ctx, op.ID)
		}
	}

	m.log.Info(ctx, "queue replay finished",
		"attempted", len(results), "remaining", m.QueueSize(ctx))
	return results
}

// SetNetworkStatus records the connectivity state. The offline→online
// transition synchronously replays the pending queue; every change is
// delivered to listeners and published on the bus.
func (m *Manager) SetNetworkStatus(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	cbs := make([]func(bool), 0, len(m.listeners))
	for _, cb := range m.listeners {
		cbs = append(cbs, cb)
	}
	m.mu.Unlock()

	ctx := context.Background()
	m.log.Info(ctx, "network status changed", "online", online)

	for _, cb := range cbs {
		cb(online)
	}
	if m.bus != nil {
		m.bus.Network.Publish(bus.NetworkEvent{Online: online})
	}
	if online {
		m.Sync(ctx)
	}
}

// IsOnline returns the current believed connectivity state.
func (m *Manager) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnNetworkChange registers cb for connectivity transitions and returns an
// unsubscribe function.
func (m *Manager) OnNetworkChange(cb func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = cb
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) removeOperation(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.loadQueueLocked(ctx)
	for i, op := range queue {
		if op.ID == id {
			queue = append(queue[:i:i], queue[i+1:]...)
			break
		}
	}
	m.saveQueueLocked(ctx, queue)
}

func (m *Manager) loadQueueLocked(ctx context.Context) []models.QueuedOperation {
	data, err := m.kv.Get(ctx, common.StorageKeyQueue)
	if err != nil {
		return nil
	}
	var queue []models.QueuedOperation
	if err := json.Unmarshal(data, &queue); err != nil {
		m.log.Warn(ctx, "queue decode failed, starting empty", "error", err)
		return nil
	}
	return queue
}

func (m *Manager) saveQueueLocked(ctx context.Context, queue []models.QueuedOperation) {
	data, err := json.Marshal(queue)
	if err != nil {
		m.log.Warn(ctx, "queue encode failed", "error", err)
		return
	}
	if err := m.kv.Set(ctx, common.StorageKeyQueue, data); err != nil {
		m.log.Warn(ctx, "queue write failed", "error", err)
	}
}
