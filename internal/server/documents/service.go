package documents

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/dmitrijs2005/tillkeeper/internal/dbx"
	"github.com/google/uuid"
)

// Service exposes collection operations to the HTTP layer. Filtering and
// ordering run in memory over the fetched collection; at restaurant scale
// a collection is at most a few thousand rows and the DSL supports one
// condition field plus one order-by, so pushing it into SQL buys nothing
// yet.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) repo() Repository {
	return NewPostgresRepository(s.db)
}

// GetCollection returns the collection documents with the query applied.
func (s *Service) GetCollection(ctx context.Context, collection string, q models.Query) ([]models.Record, error) {
	records, err := s.repo().ListCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	return q.Apply(records), nil
}

// GetDocument returns one document or common.ErrorNotFound.
func (s *Service) GetDocument(ctx context.Context, collection, id string) (models.Record, error) {
	return s.repo().Get(ctx, collection, id)
}

// AddDocument inserts a new document. A client-supplied id wins (the
// terminals generate ids locally so queued operations replay under the
// same identity); otherwise one is generated here.
func (s *Service) AddDocument(ctx context.Context, collection string, doc models.Record) (string, error) {
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
	}
	if err := s.repo().Insert(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateDocument merges fields into an existing document.
func (s *Service) UpdateDocument(ctx context.Context, collection, id string, fields models.Record) error {
	return s.repo().UpdateMerge(ctx, collection, id, fields)
}

// UpsertDocument replaces the document, creating it if absent.
func (s *Service) UpsertDocument(ctx context.Context, collection, id string, doc models.Record) error {
	return s.repo().Upsert(ctx, collection, id, doc)
}

// DeleteDocument removes the document. Deleting an absent document is not
// an error.
func (s *Service) DeleteDocument(ctx context.Context, collection, id string) error {
	return s.repo().Delete(ctx, collection, id)
}

// BatchWrite applies the operations atomically: one failure rolls the
// whole batch back.
func (s *Service) BatchWrite(ctx context.Context, ops []models.BatchOperation) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewPostgresRepository(tx)
		for _, op := range ops {
			var err error
			switch op.Kind {
			case models.BatchSet:
				err = repo.Upsert(ctx, op.Collection, op.DocumentID, op.Payload)
			case models.BatchUpdate:
				err = repo.UpdateMerge(ctx, op.Collection, op.DocumentID, op.Payload)
			case models.BatchDelete:
				err = repo.Delete(ctx, op.Collection, op.DocumentID)
			default:
				err = fmt.Errorf("unknown batch operation kind: %q", op.Kind)
			}
			if err != nil {
				return fmt.Errorf("batch operation on %s/%s: %w", op.Collection, op.DocumentID, err)
			}
		}
		return nil
	})
}
