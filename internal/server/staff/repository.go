// Package staff manages restaurant staff accounts and their logins.
package staff

import (
	"context"

	"github.com/dmitrijs2005/tillkeeper/internal/server/models"
)

// Repository is the persistence contract for staff accounts.
type Repository interface {
	Create(ctx context.Context, s *models.Staff) (*models.Staff, error)
	GetByLogin(ctx context.Context, login string) (*models.Staff, error)
	GetByID(ctx context.Context, id string) (*models.Staff, error)
}
