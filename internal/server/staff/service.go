package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tillkeeper/internal/server/config"
	"github.com/dmitrijs2005/tillkeeper/internal/server/models"
	"github.com/dmitrijs2005/tillkeeper/internal/server/refreshtokens"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the access/refresh pair handed to a terminal on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo                         Repository
	refreshTokenRepo             refreshtokens.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewService(repo Repository, refreshTokenRepo refreshtokens.Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                         repo,
		refreshTokenRepo:             refreshTokenRepo,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a staff account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, login, password, name, role string) (*models.Staff, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("password hashing error: %w", err)
	}

	staff := &models.Staff{
		Login:        login,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}

	staff, err = s.repo.Create(ctx, staff)
	if err != nil {
		if errors.Is(err, common.ErrorLoginAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating staff account: %w", err)
	}

	return staff, nil
}

// Bootstrap makes sure the admin account exists so a fresh deployment
// has someone who can sign in and register the rest of the staff. An
// already existing login is left untouched, password included.
func (s *Service) Bootstrap(ctx context.Context, login, password string) error {
	if login == "" || password == "" {
		return fmt.Errorf("%w: bootstrap admin login and password are required", common.ErrorValidation)
	}

	_, err := s.repo.GetByLogin(ctx, login)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("bootstrap lookup error: %w", err)
	}

	if _, err := s.Register(ctx, login, password, "Administrator", "admin"); err != nil {
		// Lost a race against a concurrent bootstrap; the account exists.
		if errors.Is(err, common.ErrorLoginAlreadyExists) {
			return nil
		}
		return fmt.Errorf("bootstrap error: %w", err)
	}
	return nil
}

func (s *Service) generateAccessToken(staff *models.Staff) (string, error) {
	return auth.GenerateToken(staff.ID, staff.Role, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *Service) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

// Login authenticates a staff member and issues a token pair. Unknown
// logins and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, login, password string) (*TokenPair, error) {

	staff, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidLoginPassword
		}
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword(staff.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorInvalidLoginPassword
	}

	return s.issueTokens(ctx, staff)
}

// Refresh exchanges a valid refresh token for a new pair. The used token
// is revoked either way; expired tokens yield
// common.ErrRefreshTokenExpired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {

	rt, err := s.refreshTokenRepo.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := s.refreshTokenRepo.Delete(ctx, refreshToken); err != nil {
		return nil, common.ErrorInternal
	}

	if time.Now().After(rt.ExpiresAt) {
		return nil, common.ErrRefreshTokenExpired
	}

	staff, err := s.repo.GetByID(ctx, rt.StaffID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return s.issueTokens(ctx, staff)
}

func (s *Service) issueTokens(ctx context.Context, staff *models.Staff) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(staff)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.refreshTokenRepo.Create(ctx, staff.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
