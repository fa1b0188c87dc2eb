package session

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/storage"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/store"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthClient implements AuthClient for unit tests.
type fakeAuthClient struct {
	LoginErr error
	Tokens   TokenPair

	LastLogin    string
	LastPassword string
}

func (f *fakeAuthClient) Login(ctx context.Context, login string, password []byte) (TokenPair, error) {
	f.LastLogin = login
	f.LastPassword = string(password)
	if f.LoginErr != nil {
		return TokenPair{}, f.LoginErr
	}
	return f.Tokens, nil
}

func TestOnlineLoginActivatesSessionAndCachesCredentials(t *testing.T) {
	kv := storage.NewMemoryStore()
	fc := &fakeAuthClient{Tokens: TokenPair{AccessToken: "at", RefreshToken: "rt"}}
	s := New(kv, fc, nil)
	ctx := context.Background()

	require.NoError(t, s.OnlineLogin(ctx, "alice", []byte("s3cret")))
	assert.True(t, s.Active())
	assert.False(t, s.Offline())
	assert.Equal(t, "alice", s.Login())
	assert.Equal(t, "at", s.AccessToken())

	login, err := kv.Get(ctx, common.StorageKeyStaffLogin)
	require.NoError(t, err)
	assert.Equal(t, "alice", string(login))

	hash, err := kv.Get(ctx, common.StorageKeyStaffPassword)
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "s3cret", "password must be stored hashed")
}

func TestOnlineLoginFailurePropagatesAndStaysInactive(t *testing.T) {
	kv := storage.NewMemoryStore()
	fc := &fakeAuthClient{LoginErr: common.ErrorInvalidLoginPassword}
	s := New(kv, fc, nil)

	err := s.OnlineLogin(context.Background(), "alice", []byte("wrong"))
	require.ErrorIs(t, err, common.ErrorInvalidLoginPassword)
	assert.False(t, s.Active())
	assert.Empty(t, s.AccessToken())
}

func TestOnlineLoginWipesPassword(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := New(kv, &fakeAuthClient{}, nil)

	pw := []byte("s3cret")
	require.NoError(t, s.OnlineLogin(context.Background(), "alice", pw))
	assert.Equal(t, make([]byte, len(pw)), pw)
}

func TestOfflineLoginAgainstCachedHash(t *testing.T) {
	kv := storage.NewMemoryStore()
	fc := &fakeAuthClient{Tokens: TokenPair{AccessToken: "at"}}
	s := New(kv, fc, nil)
	ctx := context.Background()

	require.NoError(t, s.OnlineLogin(ctx, "alice", []byte("s3cret")))
	s.Logout()
	require.False(t, s.Active())

	// Backend now unreachable; cached credentials still work.
	fc.LoginErr = store.NewError(store.CodeUnavailable, "backend down")

	require.NoError(t, s.OfflineLogin(ctx, "alice", []byte("s3cret")))
	assert.True(t, s.Active())
	assert.True(t, s.Offline())
	assert.Empty(t, s.AccessToken(), "offline sessions carry no tokens")
}

func TestOfflineLoginRejectsWrongCredentials(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := New(kv, &fakeAuthClient{}, nil)
	ctx := context.Background()

	require.NoError(t, s.OnlineLogin(ctx, "alice", []byte("s3cret")))
	s.Logout()

	assert.ErrorIs(t, s.OfflineLogin(ctx, "alice", []byte("nope")), common.ErrorInvalidLoginPassword)
	assert.ErrorIs(t, s.OfflineLogin(ctx, "bob", []byte("s3cret")), common.ErrorInvalidLoginPassword)
	assert.False(t, s.Active())
}

func TestOfflineLoginWithoutCachedData(t *testing.T) {
	s := New(storage.NewMemoryStore(), &fakeAuthClient{}, nil)
	err := s.OfflineLogin(context.Background(), "alice", []byte("s3cret"))
	assert.ErrorIs(t, err, ErrLocalDataNotAvailable)
}

func TestClearOfflineData(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := New(kv, &fakeAuthClient{}, nil)
	ctx := context.Background()

	require.NoError(t, s.OnlineLogin(ctx, "alice", []byte("s3cret")))
	require.NoError(t, s.ClearOfflineData(ctx))

	err := s.OfflineLogin(ctx, "alice", []byte("s3cret"))
	assert.ErrorIs(t, err, ErrLocalDataNotAvailable)
}
