package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository stores documents as JSONB rows keyed by
// (collection, id).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListCollection(ctx context.Context, collection string) ([]models.Record, error) {
	query :=
		`SELECT id, data FROM documents
		 WHERE collection = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec, err := decodeRecord(id, data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return records, nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (models.Record, error) {
	query :=
		`SELECT data FROM documents
		 WHERE collection = $1 AND id = $2
		 `

	var data []byte
	err := r.db.QueryRowContext(ctx, query, collection, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return decodeRecord(id, data)
}

func (r *PostgresRepository) Insert(ctx context.Context, collection, id string, doc models.Record) error {
	data, err := encodeRecord(doc)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO documents (collection, id, data)
		 VALUES ($1, $2, $3)
		 `

	if _, err := r.db.ExecContext(ctx, query, collection, id, data); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDocumentExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateMerge merges fields into the stored document via jsonb
// concatenation, leaving unmentioned fields intact.
func (r *PostgresRepository) UpdateMerge(ctx context.Context, collection, id string, fields models.Record) error {
	data, err := encodeRecord(fields)
	if err != nil {
		return err
	}

	query :=
		`UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, collection, id, data)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, collection, id string, doc models.Record) error {
	data, err := encodeRecord(doc)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO documents (collection, id, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		 `

	if _, err := r.db.ExecContext(ctx, query, collection, id, data); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id string) error {
	query :=
		`DELETE FROM documents
		 WHERE collection = $1 AND id = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func encodeRecord(doc models.Record) ([]byte, error) {
	// The id lives in the key columns, not the payload.
	clone := doc.Clone()
	delete(clone, "id")
	data, err := json.Marshal(clone)
	if err != nil {
		return nil, fmt.Errorf("document encode error: %w", err)
	}
	return data, nil
}

func decodeRecord(id string, data []byte) (models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("document decode error: %w", err)
	}
	return rec.WithID(id), nil
}
