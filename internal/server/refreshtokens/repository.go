// Package refreshtokens persists the refresh tokens issued alongside
// staff access tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/server/models"
)

// Repository is the persistence contract for refresh tokens.
type Repository interface {
	Create(ctx context.Context, staffID string, token string, validity time.Duration) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}
