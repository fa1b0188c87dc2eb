package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/dbx"
	"github.com/dmitrijs2005/tillkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Staff) (*models.Staff, error) {

	query :=
		`INSERT INTO staff (login, password_hash, name, role)
         VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		s.Login, s.PasswordHash, s.Name, s.Role).Scan(&s.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorLoginAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.Staff, error) {
	query :=
		`SELECT id, login, password_hash, name, role FROM staff
		 WHERE login = $1
		 `

	s := &models.Staff{}
	err := r.db.QueryRowContext(ctx, query, login).Scan(&s.ID, &s.Login, &s.PasswordHash, &s.Name, &s.Role)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Staff, error) {
	query :=
		`SELECT id, login, password_hash, name, role FROM staff
		 WHERE id = $1
		 `

	s := &models.Staff{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Login, &s.PasswordHash, &s.Name, &s.Role)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}
