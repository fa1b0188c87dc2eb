// Package session holds the staff identity of the terminal. Login goes
// through the backend when it is reachable; the credentials that worked
// are cached (login plus a bcrypt hash of the password) so a waiter can
// still sign in during an outage. Offline logins get no token pair, so
// they only unlock the terminal UI, never remote calls.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/storage"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// ErrLocalDataNotAvailable is returned by OfflineLogin when no cached
// credentials exist on this terminal.
var ErrLocalDataNotAvailable = errors.New("local auth data not available")

// TokenPair is the access/refresh token pair issued by the backend.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthClient authenticates staff against the backend.
type AuthClient interface {
	Login(ctx context.Context, login string, password []byte) (TokenPair, error)
}

// Session is the explicit per-terminal staff session. The zero state is
// "nobody signed in"; Active reports whether a login succeeded.
type Session struct {
	kv     storage.KeyValueStore
	client AuthClient
	log    logging.Logger

	mu      sync.Mutex
	login   string
	tokens  TokenPair
	active  bool
	offline bool
}

// New creates an inactive session over the given storage and auth client.
func New(kv storage.KeyValueStore, client AuthClient, log logging.Logger) *Session {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Session{kv: kv, client: client, log: log}
}

// OnlineLogin authenticates against the backend and caches the working
// credentials for later offline logins. The password slice is wiped
// before returning.
func (s *Session) OnlineLogin(ctx context.Context, login string, password []byte) error {
	defer common.WipeByteArray(password)

	tokens, err := s.client.Login(ctx, login, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	if err := s.saveOfflineData(ctx, login, password); err != nil {
		s.log.Warn(ctx, "offline credential caching failed", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = login
	s.tokens = tokens
	s.active = true
	s.offline = false
	return nil
}

// OfflineLogin verifies the credentials against the locally cached bcrypt
// hash. On success the session becomes active without tokens. Missing
// local data yields ErrLocalDataNotAvailable; a wrong login or password
// yields common.ErrorInvalidLoginPassword.
func (s *Session) OfflineLogin(ctx context.Context, login string, password []byte) error {
	defer common.WipeByteArray(password)

	savedLogin, err := s.kv.Get(ctx, common.StorageKeyStaffLogin)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrLocalDataNotAvailable
		}
		return fmt.Errorf("offline login: %w", err)
	}
	if string(savedLogin) != login {
		return common.ErrorInvalidLoginPassword
	}

	savedHash, err := s.kv.Get(ctx, common.StorageKeyStaffPassword)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrLocalDataNotAvailable
		}
		return fmt.Errorf("offline login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(savedHash, password); err != nil {
		return common.ErrorInvalidLoginPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = login
	s.tokens = TokenPair{}
	s.active = true
	s.offline = true
	return nil
}

// saveOfflineData persists the login and a bcrypt hash of the password.
func (s *Session) saveOfflineData(ctx context.Context, login string, password []byte) error {
	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, common.StorageKeyStaffLogin, []byte(login)); err != nil {
		return err
	}
	return s.kv.Set(ctx, common.StorageKeyStaffPassword, hash)
}

// Logout tears the session down. Cached offline credentials stay in
// place; ClearOfflineData removes those separately.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = ""
	s.tokens = TokenPair{}
	s.active = false
	s.offline = false
}

// ClearOfflineData wipes the locally cached credentials.
func (s *Session) ClearOfflineData(ctx context.Context) error {
	return s.kv.MultiRemove(ctx, []string{common.StorageKeyStaffLogin, common.StorageKeyStaffPassword})
}

// Active reports whether a staff member is signed in.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Offline reports whether the current session was established without the
// backend. Offline sessions carry no tokens.
func (s *Session) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// Login returns the signed-in staff login, or "".
func (s *Session) Login() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login
}

// AccessToken returns the current access token, or "" for inactive and
// offline sessions. Matches the store.TokenProvider shape.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.AccessToken
}
