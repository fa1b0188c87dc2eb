// Package store defines the document-store collaborator interface the
// façade talks to, its error taxonomy, and the two implementations the
// terminal ships with: an in-memory mock (demo mode and availability
// fallback) and an HTTP client for the backend service.
package store

import (
	"context"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
)

// CancelFunc stops a live subscription. Safe to call more than once.
type CancelFunc func()

// DocumentStore is a collection-oriented document database: filtered
// queries, single-field ordering, live subscriptions, per-document CRUD,
// and atomic batches. All errors should be (or wrap) *Error so callers
// can classify them.
type DocumentStore interface {
	// GetCollection returns the records matching q.
	GetCollection(ctx context.Context, name string, q models.Query) ([]models.Record, error)

	// GetDocument returns one record by id, or a not-found Error.
	GetDocument(ctx context.Context, name, id string) (models.Record, error)

	// AddDocument inserts payload under a generated id and returns it.
	AddDocument(ctx context.Context, name string, payload models.Record) (string, error)

	// UpdateDocument merges payload into an existing document.
	UpdateDocument(ctx context.Context, name, id string, payload models.Record) error

	// UpsertDocument creates or fully replaces the document.
	UpsertDocument(ctx context.Context, name, id string, payload models.Record) error

	// DeleteDocument removes the document. Deleting an absent document
	// is a no-op, so queued deletes replay safely.
	DeleteDocument(ctx context.Context, name, id string) error

	// BatchWrite applies the operations atomically.
	BatchWrite(ctx context.Context, ops []models.BatchOperation) error

	// Subscribe delivers the current snapshot and subsequent updates of
	// the collection to next, and failures to errFn. The returned cancel
	// releases the subscription.
	Subscribe(ctx context.Context, name string, q models.Query, next func([]models.Record), errFn func(error)) (CancelFunc, error)

	// Ping checks backend liveness.
	Ping(ctx context.Context) error
}
