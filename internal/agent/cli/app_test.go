package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/config"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/facade"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/storage"
	"github.com/stretchr/testify/require"
)

// Opens the on-disk store exactly the way NewApp does. This package pulls
// in no database driver of its own, so the test fails if the storage
// package stops registering the sqlite driver itself.
func TestOpenLocalStorageFile(t *testing.T) {
	ctx := context.Background()

	kv, err := storage.Open(ctx, filepath.Join(t.TempDir(), "tillkeeper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}

func TestNewAppStartsWithFreshDatabase(t *testing.T) {
	app, err := NewApp(&config.Config{
		ServerAddr:          "http://127.0.0.1:0",
		Mode:                string(facade.ModeMock),
		StoragePath:         filepath.Join(t.TempDir(), "tillkeeper.db"),
		OnlineCheckInterval: time.Second,
		SyncInterval:        time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		app.locker.Close()
		_ = app.kv.Close()
	})

	require.Equal(t, facade.ModeMock, app.facade.Mode())
	require.Nil(t, app.remote)
}
