package staff

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tillkeeper/internal/server/config"
	"github.com/dmitrijs2005/tillkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeRepo is an in-memory staff repository.
type fakeRepo struct {
	byLogin map[string]*models.Staff
	nextID  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byLogin: map[string]*models.Staff{}}
}

func (r *fakeRepo) Create(ctx context.Context, s *models.Staff) (*models.Staff, error) {
	if _, ok := r.byLogin[s.Login]; ok {
		return nil, common.ErrorLoginAlreadyExists
	}
	r.nextID++
	s.ID = string(rune('a' + r.nextID))
	r.byLogin[s.Login] = s
	return s, nil
}

func (r *fakeRepo) GetByLogin(ctx context.Context, login string) (*models.Staff, error) {
	s, ok := r.byLogin[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*models.Staff, error) {
	for _, s := range r.byLogin {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, common.ErrorNotFound
}

// fakeTokenRepo is an in-memory refresh token repository.
type fakeTokenRepo struct {
	tokens map[string]*models.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*models.RefreshToken{}}
}

func (r *fakeTokenRepo) Create(ctx context.Context, staffID, token string, validity time.Duration) error {
	r.tokens[token] = &models.RefreshToken{StaffID: staffID, Token: token, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (r *fakeTokenRepo) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rt, nil
}

func (r *fakeTokenRepo) Delete(ctx context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func newService(t *testing.T) (*Service, *fakeRepo, *fakeTokenRepo) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	repo := newFakeRepo()
	tokenRepo := newFakeTokenRepo()
	return NewService(repo, tokenRepo, cfg), repo, tokenRepo
}

func TestRegisterHashesPassword(t *testing.T) {
	s, repo, _ := newService(t)

	staff, err := s.Register(context.Background(), "alice", "s3cret", "Alice", "waiter")
	require.NoError(t, err)
	require.NotEmpty(t, staff.ID)

	stored := repo.byLogin["alice"]
	assert.NotContains(t, string(stored.PasswordHash), "s3cret")
	require.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("s3cret")))
}

func TestRegisterDuplicateLogin(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "s3cret", "Alice", "waiter")
	require.NoError(t, err)

	_, err = s.Register(ctx, "alice", "other", "Alice 2", "waiter")
	assert.ErrorIs(t, err, common.ErrorLoginAlreadyExists)
}

func TestBootstrapCreatesAdminOnce(t *testing.T) {
	s, repo, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, s.Bootstrap(ctx, "admin", "changeMe"))

	created := repo.byLogin["admin"]
	require.NotNil(t, created)
	assert.Equal(t, "admin", created.Role)

	// A second bootstrap leaves the account alone, password included.
	require.NoError(t, s.Bootstrap(ctx, "admin", "different"))
	assert.Same(t, created, repo.byLogin["admin"])

	pair, err := s.Login(ctx, "admin", "changeMe")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestBootstrapRequiresCredentials(t *testing.T) {
	s, _, _ := newService(t)

	assert.ErrorIs(t, s.Bootstrap(context.Background(), "", "pw"), common.ErrorValidation)
	assert.ErrorIs(t, s.Bootstrap(context.Background(), "admin", ""), common.ErrorValidation)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	s, _, tokenRepo := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "s3cret", "Alice", "manager")
	require.NoError(t, err)

	pair, err := s.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := auth.ParseToken(pair.AccessToken, []byte("secretKey"))
	require.NoError(t, err)
	assert.Equal(t, "manager", claims.Role)

	_, ok := tokenRepo.tokens[pair.RefreshToken]
	assert.True(t, ok, "refresh token must be persisted")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "s3cret", "Alice", "waiter")
	require.NoError(t, err)

	_, err = s.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrorInvalidLoginPassword)

	_, err = s.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, common.ErrorInvalidLoginPassword)
}

func TestRefreshRotatesToken(t *testing.T) {
	s, _, tokenRepo := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "s3cret", "Alice", "waiter")
	require.NoError(t, err)
	pair, err := s.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	next, err := s.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, used := tokenRepo.tokens[pair.RefreshToken]
	assert.False(t, used, "used refresh token must be revoked")

	_, err = s.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefreshExpiredToken(t *testing.T) {
	s, _, tokenRepo := newService(t)
	ctx := context.Background()

	staff, err := s.Register(ctx, "alice", "s3cret", "Alice", "waiter")
	require.NoError(t, err)

	tokenRepo.tokens["stale"] = &models.RefreshToken{
		StaffID: staff.ID, Token: "stale", ExpiresAt: time.Now().Add(-time.Minute),
	}

	_, err = s.Refresh(ctx, "stale")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}
