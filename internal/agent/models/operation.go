package models

import "time"

// OpKind is the kind of a deferred mutation.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpUpdate OpKind = "update"
	OpUpsert OpKind = "upsert"
	OpDelete OpKind = "delete"
)

// QueuedOperation is one write the user attempted while the backend was
// unreachable, persisted locally until connectivity allows replay.
// Operations replay strictly in EnqueuedAt order.
type QueuedOperation struct {
	ID         string    `json:"id"`
	Kind       OpKind    `json:"kind"`
	Collection string    `json:"collection"`
	DocumentID string    `json:"document_id,omitempty"` // absent for add
	Payload    Record    `json:"payload,omitempty"`     // absent for delete
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// SyncOutcome classifies the replay result of a single queued operation.
type SyncOutcome string

const (
	// SyncApplied: the remote store accepted the operation; it is removed
	// from the queue.
	SyncApplied SyncOutcome = "applied"
	// SyncFailed: the operation failed permanently (non-transient error);
	// it is removed from the queue so it cannot wedge replay forever.
	SyncFailed SyncOutcome = "failed"
	// SyncDeferred: a connectivity-class error occurred; the operation
	// stays queued for the next connectivity event.
	SyncDeferred SyncOutcome = "deferred"
)

// SyncResult is the per-operation outcome returned by a queue replay.
type SyncResult struct {
	OperationID string
	Outcome     SyncOutcome
	Err         error
}

// BatchKind is the kind of one entry in an atomic batch write.
type BatchKind string

const (
	BatchSet    BatchKind = "set"
	BatchUpdate BatchKind = "update"
	BatchDelete BatchKind = "delete"
)

// BatchOperation is one entry of a batch write. Batches apply atomically
// against the remote store and sequentially against the mock store.
type BatchOperation struct {
	Kind       BatchKind `json:"kind"`
	Collection string    `json:"collection"`
	DocumentID string    `json:"document_id"`
	Payload    Record    `json:"payload,omitempty"`
}

// WriteResult is what façade mutations return. When the backend was
// unreachable the mutation has been queued instead and Queued is true;
// the caller treats that as success.
type WriteResult struct {
	ID     string
	Queued bool
}
