// Package db owns the PostgreSQL connection and hands out repositories
// bound to it.
package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tillkeeper/internal/server/refreshtokens"
	"github.com/dmitrijs2005/tillkeeper/internal/server/staff"
)

// RepositoryManager provides access to the server-side repositories.
type RepositoryManager interface {
	Conn() *sql.DB
	Staff() staff.Repository
	RefreshTokens() refreshtokens.Repository
	RunMigrations(ctx context.Context) error
	Close() error
}
