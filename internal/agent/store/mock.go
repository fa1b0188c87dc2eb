package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/google/uuid"
)

// MockStore is the in-memory document store used in demo mode and as the
// availability fallback when the backend misbehaves. It implements the
// full DocumentStore contract, including snapshot-on-subscribe delivery.
type MockStore struct {
	mu          sync.Mutex
	collections map[string][]models.Record
	subs        map[string]map[int]*mockSub
	nextSubID   int

	// forced, when set, is returned by every operation. Tests and the
	// offline-replay suite use it to simulate backend failures.
	forced error
}

type mockSub struct {
	query models.Query
	next  func([]models.Record)
}

// NewMockStore creates a store seeded with the given collections.
// Pass SampleData() for the demo dataset or nil for an empty store.
func NewMockStore(seed map[string][]models.Record) *MockStore {
	collections := make(map[string][]models.Record, len(seed))
	for name, records := range seed {
		cp := make([]models.Record, len(records))
		for i, r := range records {
			cp[i] = r.Clone()
		}
		collections[name] = cp
	}
	return &MockStore{
		collections: collections,
		subs:        make(map[string]map[int]*mockSub),
	}
}

// SetError forces every subsequent operation to fail with err until
// called again with nil.
func (m *MockStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forced = err
}

func (m *MockStore) snapshotLocked(name string) []models.Record {
	records := m.collections[name]
	out := make([]models.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// notify delivers fresh snapshots to the collection's subscribers.
// Callbacks run outside the lock so a subscriber may re-enter the store.
func (m *MockStore) notify(name string) {
	m.mu.Lock()
	type delivery struct {
		next    func([]models.Record)
		records []models.Record
	}
	var deliveries []delivery
	for _, sub := range m.subs[name] {
		deliveries = append(deliveries, delivery{sub.next, sub.query.Apply(m.snapshotLocked(name))})
	}
	m.mu.Unlock()

	for _, d := range deliveries {
		d.next(d.records)
	}
}

func (m *MockStore) GetCollection(ctx context.Context, name string, q models.Query) ([]models.Record, error) {
	m.mu.Lock()
	if m.forced != nil {
		err := m.forced
		m.mu.Unlock()
		return nil, err
	}
	snapshot := m.snapshotLocked(name)
	m.mu.Unlock()
	return q.Apply(snapshot), nil
}

func (m *MockStore) GetDocument(ctx context.Context, name, id string) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forced != nil {
		return nil, m.forced
	}
	for _, r := range m.collections[name] {
		if r.ID() == id {
			return r.Clone(), nil
		}
	}
	return nil, NewError(CodeNotFound, "document %s/%s not found", name, id)
}

func (m *MockStore) AddDocument(ctx context.Context, name string, payload models.Record) (string, error) {
	m.mu.Lock()
	if m.forced != nil {
		err := m.forced
		m.mu.Unlock()
		return "", err
	}
	id := payload.ID()
	if id == "" {
		id = uuid.NewString()
	}
	m.collections[name] = append(m.collections[name], payload.WithID(id))
	m.mu.Unlock()

	m.notify(name)
	return id, nil
}

func (m *MockStore) UpdateDocument(ctx context.Context, name, id string, payload models.Record) error {
	m.mu.Lock()
	if m.forced != nil {
		err := m.forced
		m.mu.Unlock()
		return err
	}
	updated := false
	for i, r := range m.collections[name] {
		if r.ID() == id {
			merged := r.Clone()
			for k, v := range payload {
				merged[k] = v
			}
			merged["id"] = id
			m.collections[name][i] = merged
			updated = true
			break
		}
	}
	m.mu.Unlock()

	if !updated {
		return NewError(CodeNotFound, "document %s/%s not found", name, id)
	}
	m.notify(name)
	return nil
}

func (m *MockStore) UpsertDocument(ctx context.Context, name, id string, payload models.Record) error {
	m.mu.Lock()
	if m.forced != nil {
		err := m.forced
		m.mu.Unlock()
		return err
	}
	replaced := false
	doc := payload.WithID(id)
	for i, r := range m.collections[name] {
		if r.ID() == id {
			m.collections[name][i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		m.collections[name] = append(m.collections[name], doc)
	}
	m.mu.Unlock()

	m.notify(name)
	return nil
}

func (m *MockStore) DeleteDocument(ctx context.Context, name, id string) error {
	m.mu.Lock()
	if m.forced != nil {
		err := m.forced
		m.mu.Unlock()
		return err
	}
	removed := false
	records := m.collections[name]
	for i, r := range records {
		if r.ID() == id {
			m.collections[name] = append(records[:i:i], records[i+1:]...)
			removed = true
			break
		}
	}
	m.mu.Unlock()

	if removed {
		m.notify(name)
	}
	return nil
}

// BatchWrite applies the operations sequentially. The mock store offers
// no atomicity: a failing entry leaves earlier entries applied.
func (m *MockStore) BatchWrite(ctx context.Context, ops []models.BatchOperation) error {
	for _, op := range ops {
		var err error
		switch op.Kind {
		case models.BatchSet:
			err = m.UpsertDocument(ctx, op.Collection, op.DocumentID, op.Payload)
		case models.BatchUpdate:
			err = m.UpdateDocument(ctx, op.Collection, op.DocumentID, op.Payload)
		case models.BatchDelete:
			err = m.DeleteDocument(ctx, op.Collection, op.DocumentID)
		default:
			err = NewError(CodeFailedPrecondition, "unknown batch kind %q", op.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers next for updates and immediately delivers the
// current snapshot.
func (m *MockStore) Subscribe(ctx context.Context, name string, q models.Query, next func([]models.Record), errFn func(error)) (CancelFunc, error) {
	m.mu.Lock()
	if m.forced != nil {
		err := m.forced
		m.mu.Unlock()
		return nil, err
	}
	id := m.nextSubID
	m.nextSubID++
	if m.subs[name] == nil {
		m.subs[name] = make(map[int]*mockSub)
	}
	m.subs[name][id] = &mockSub{query: q, next: next}
	initial := q.Apply(m.snapshotLocked(name))
	m.mu.Unlock()

	next(initial)

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs[name], id)
	}
	return cancel, nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forced
}
