// Package facade is the single entry point for all document-store reads,
// writes, and live subscriptions on the terminal. It hides the mock/real
// backend choice behind one interface and keeps the terminal usable when
// the backend is not: connectivity-class failures queue the write for
// later replay, anything else degrades to the in-memory fallback store.
//
// Backend mode is resolved once at startup and never flips implicitly.
// Every fallback to the mock store in remote mode is reported on the
// event bus so "the backend failed" stays distinguishable from "we run
// in demo mode".
package facade

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/offline"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/store"
	"github.com/dmitrijs2005/tillkeeper/internal/bus"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/logging"
	"github.com/google/uuid"
)

// Mode selects the backend once at startup.
type Mode string

const (
	// ModeRemote talks to the document-store service, with offline
	// queueing and mock fallback.
	ModeRemote Mode = "remote"
	// ModeMock runs entirely against the in-memory store (demo mode).
	ModeMock Mode = "mock"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRemote, ModeMock:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", common.ErrorValidation, s)
	}
}

// Facade implements the terminal's data-access surface.
type Facade struct {
	mode   Mode
	remote store.DocumentStore
	mock   *store.MockStore
	queue  *offline.Manager
	log    logging.Logger
	bus    *bus.Bus
}

// New creates a Facade and wires it as the replay target of the offline
// queue. remote may be nil when mode is ModeMock; mock must never be nil,
// it doubles as the availability fallback in remote mode.
func New(mode Mode, remote store.DocumentStore, mock *store.MockStore, queue *offline.Manager, log logging.Logger, b *bus.Bus) *Facade {
	if log == nil {
		log = logging.NewNopLogger()
	}
	f := &Facade{mode: mode, remote: remote, mock: mock, queue: queue, log: log, bus: b}
	queue.SetApplier(f)
	return f
}

// Mode returns the backend mode resolved at startup.
func (f *Facade) Mode() Mode { return f.mode }

// Queue exposes the offline manager for UI indicators (pending count,
// network banner).
func (f *Facade) Queue() *offline.Manager { return f.queue }

// reportFallback publishes a BackendErrorEvent for an unexpected remote
// error that forced a mock-store fallback.
func (f *Facade) reportFallback(ctx context.Context, op, collection string, err error) {
	f.log.Error(ctx, "backend error, serving fallback store",
		"op", op, "collection", collection, "error", err)
	if f.bus != nil {
		f.bus.BackendErrors.Publish(bus.BackendErrorEvent{
			Op:         op,
			Collection: collection,
			Code:       string(store.CodeOf(err)),
			Message:    err.Error(),
		})
	}
}

// logIndexGuidance emits the remediation steps for a missing composite
// index. These queries work in demo mode, so the misconfiguration is easy
// to miss until production.
func (f *Facade) logIndexGuidance(ctx context.Context, collection string, err error) {
	f.log.Error(ctx, "query requires a composite index",
		"collection", collection,
		"error", err,
		"remediation", "create the index on the backend (see the error message for the exact fields), then retry; serving static sample data until then")
}

// mutate runs the remote mutation attempt for one operation and applies
// the shared failure policy: success marks the network online; a
// connectivity-class error marks it offline, queues the operation, and
// reports success-with-queued; any other error is reported on the bus and
// replayed against the mock store so the terminal keeps working.
func (f *Facade) mutate(ctx context.Context, op models.QueuedOperation, attempt func() error, fallback func() error) (models.WriteResult, error) {
	if f.mode == ModeMock {
		if err := fallback(); err != nil {
			return models.WriteResult{}, err
		}
		return models.WriteResult{ID: op.DocumentID}, nil
	}

	err := attempt()
	if err == nil {
		f.queue.SetNetworkStatus(true)
		return models.WriteResult{ID: op.DocumentID}, nil
	}

	if store.IsConnectivity(err) {
		f.queue.SetNetworkStatus(false)
		queued := f.queue.QueueOperation(ctx, op)
		f.log.Info(ctx, "backend unreachable, operation queued",
			"id", queued.ID, "kind", op.Kind, "collection", op.Collection)
		return models.WriteResult{ID: op.DocumentID, Queued: true}, nil
	}

	f.reportFallback(ctx, string(op.Kind), op.Collection, err)
	if fbErr := fallback(); fbErr != nil {
		f.log.Warn(ctx, "fallback store mutation failed", "error", fbErr)
	}
	return models.WriteResult{ID: op.DocumentID}, nil
}

// AddDocument inserts a document. The id is generated here so that a
// queued add replays with the same id the caller already holds.
func (f *Facade) AddDocument(ctx context.Context, name string, payload models.Record) (models.WriteResult, error) {
	id := payload.ID()
	if id == "" {
		id = uuid.NewString()
	}
	doc := payload.WithID(id)

	op := models.QueuedOperation{Kind: models.OpAdd, Collection: name, DocumentID: id, Payload: doc}
	return f.mutate(ctx, op,
		func() error {
			_, err := f.remote.AddDocument(ctx, name, doc)
			return err
		},
		func() error {
			_, err := f.mock.AddDocument(ctx, name, doc)
			return err
		})
}

// UpdateDocument merges payload into an existing document.
func (f *Facade) UpdateDocument(ctx context.Context, name, id string, payload models.Record) (models.WriteResult, error) {
	op := models.QueuedOperation{Kind: models.OpUpdate, Collection: name, DocumentID: id, Payload: payload}
	return f.mutate(ctx, op,
		func() error { return f.remote.UpdateDocument(ctx, name, id, payload) },
		func() error { return f.mock.UpdateDocument(ctx, name, id, payload) })
}

// UpsertDocument creates or replaces a document.
func (f *Facade) UpsertDocument(ctx context.Context, name, id string, payload models.Record) (models.WriteResult, error) {
	op := models.QueuedOperation{Kind: models.OpUpsert, Collection: name, DocumentID: id, Payload: payload}
	return f.mutate(ctx, op,
		func() error { return f.remote.UpsertDocument(ctx, name, id, payload) },
		func() error { return f.mock.UpsertDocument(ctx, name, id, payload) })
}

// DeleteDocument removes a document.
func (f *Facade) DeleteDocument(ctx context.Context, name, id string) (models.WriteResult, error) {
	op := models.QueuedOperation{Kind: models.OpDelete, Collection: name, DocumentID: id}
	return f.mutate(ctx, op,
		func() error { return f.remote.DeleteDocument(ctx, name, id) },
		func() error { return f.mock.DeleteDocument(ctx, name, id) })
}

// BatchWrite applies a list of operations atomically against the remote
// store. When the backend is unreachable the entries are queued
// individually in order: replay keeps their sequence but not their
// atomicity, which matches what the terminal can promise offline.
func (f *Facade) BatchWrite(ctx context.Context, ops []models.BatchOperation) (models.WriteResult, error) {
	if f.mode == ModeMock {
		return models.WriteResult{}, f.mock.BatchWrite(ctx, ops)
	}

	err := f.remote.BatchWrite(ctx, ops)
	if err == nil {
		f.queue.SetNetworkStatus(true)
		return models.WriteResult{}, nil
	}

	if store.IsConnectivity(err) {
		f.queue.SetNetworkStatus(false)
		for _, op := range ops {
			f.queue.QueueOperation(ctx, batchToQueued(op))
		}
		return models.WriteResult{Queued: true}, nil
	}

	f.reportFallback(ctx, "batch", "", err)
	if fbErr := f.mock.BatchWrite(ctx, ops); fbErr != nil {
		f.log.Warn(ctx, "fallback store batch failed", "error", fbErr)
	}
	return models.WriteResult{}, nil
}

func batchToQueued(op models.BatchOperation) models.QueuedOperation {
	kind := models.OpUpsert
	switch op.Kind {
	case models.BatchUpdate:
		kind = models.OpUpdate
	case models.BatchDelete:
		kind = models.OpDelete
	}
	return models.QueuedOperation{
		Kind:       kind,
		Collection: op.Collection,
		DocumentID: op.DocumentID,
		Payload:    op.Payload,
	}
}

// GetCollectionOnce is a one-shot read with the cache-fallback chain:
// remote result (cached as a side effect) → cached snapshot → static
// sample data on a missing-index error → the error itself.
func (f *Facade) GetCollectionOnce(ctx context.Context, name string, q models.Query) ([]models.Record, error) {
	if f.mode == ModeMock {
		return f.mock.GetCollection(ctx, name, q)
	}

	records, err := f.remote.GetCollection(ctx, name, q)
	if err == nil {
		f.queue.SetNetworkStatus(true)
		f.queue.CacheCollection(ctx, name, records)
		return records, nil
	}

	if store.IsConnectivity(err) {
		f.queue.SetNetworkStatus(false)
	}

	if cached, ok := f.queue.GetCachedCollection(ctx, name); ok {
		f.log.Warn(ctx, "serving cached snapshot", "collection", name, "error", err)
		return q.Apply(cached), nil
	}

	if store.IsMissingIndex(err) {
		f.logIndexGuidance(ctx, name, err)
		return q.Apply(store.SampleData()[name]), nil
	}

	return nil, err
}

// GetDocument is a single-record lookup with cache and mock fallback.
func (f *Facade) GetDocument(ctx context.Context, name, id string) (models.Record, error) {
	if f.mode == ModeMock {
		return f.mock.GetDocument(ctx, name, id)
	}

	record, err := f.remote.GetDocument(ctx, name, id)
	if err == nil {
		f.queue.SetNetworkStatus(true)
		return record, nil
	}
	if store.IsNotFound(err) {
		return nil, err
	}

	if store.IsConnectivity(err) {
		f.queue.SetNetworkStatus(false)
	}

	if cached, ok := f.queue.GetCachedCollection(ctx, name); ok {
		for _, r := range cached {
			if r.ID() == id {
				return r, nil
			}
		}
	}
	return f.mock.GetDocument(ctx, name, id)
}

// SubscribeCollection opens a live subscription. Every update is cached.
// On a subscription error the last cached snapshot is served (marking the
// network offline); with no cache, a missing-index error degrades to
// static sample data; any other error reaches the caller's handler.
func (f *Facade) SubscribeCollection(ctx context.Context, name string, q models.Query, next func([]models.Record), errFn func(error)) store.CancelFunc {
	if f.mode == ModeMock {
		cancel, err := f.mock.Subscribe(ctx, name, q, next, errFn)
		if err != nil {
			errFn(err)
			return func() {}
		}
		return cancel
	}

	onUpdate := func(records []models.Record) {
		f.queue.SetNetworkStatus(true)
		f.queue.CacheCollection(ctx, name, records)
		next(records)
	}

	onError := func(err error) {
		if store.IsConnectivity(err) {
			f.queue.SetNetworkStatus(false)
		}
		if cached, ok := f.queue.GetCachedCollection(ctx, name); ok {
			f.log.Warn(ctx, "subscription degraded to cached snapshot", "collection", name, "error", err)
			next(q.Apply(cached))
			return
		}
		if store.IsMissingIndex(err) {
			f.logIndexGuidance(ctx, name, err)
			next(q.Apply(store.SampleData()[name]))
			return
		}
		errFn(err)
	}

	cancel, err := f.remote.Subscribe(ctx, name, q, onUpdate, onError)
	if err != nil {
		onError(err)
		return func() {}
	}
	return cancel
}

// Apply implements offline.Applier: it re-issues one queued operation
// against the remote store and returns the raw classified error, so the
// queue can decide whether to keep or drop the operation. Replay never
// re-queues.
func (f *Facade) Apply(ctx context.Context, op models.QueuedOperation) error {
	switch op.Kind {
	case models.OpAdd:
		_, err := f.remote.AddDocument(ctx, op.Collection, op.Payload)
		return err
	case models.OpUpdate:
		return f.remote.UpdateDocument(ctx, op.Collection, op.DocumentID, op.Payload)
	case models.OpUpsert:
		return f.remote.UpsertDocument(ctx, op.Collection, op.DocumentID, op.Payload)
	case models.OpDelete:
		return f.remote.DeleteDocument(ctx, op.Collection, op.DocumentID)
	}
	return store.NewError(store.CodeFailedPrecondition, "unknown operation kind %q", op.Kind)
}
