// Package documents stores the restaurant's operational data as schemaless
// JSON documents grouped into named collections (orders, tables,
// menu_items, ...). The terminal agents treat this service as their
// remote document store.
package documents

import (
	"context"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
)

// Repository is the persistence contract for document collections.
type Repository interface {
	ListCollection(ctx context.Context, collection string) ([]models.Record, error)
	Get(ctx context.Context, collection, id string) (models.Record, error)
	Insert(ctx context.Context, collection, id string, doc models.Record) error
	UpdateMerge(ctx context.Context, collection, id string, fields models.Record) error
	Upsert(ctx context.Context, collection, id string, doc models.Record) error
	Delete(ctx context.Context, collection, id string) error
}
