package storage

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]KeyValueStore {
	t.Helper()

	sq, err := Open(context.Background(), "file:kvstore_tests?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	// Start each run from an empty table; the shared-cache DSN survives
	// between tests in the same binary.
	keys, err := sq.Keys(context.Background())
	require.NoError(t, err)
	require.NoError(t, sq.MultiRemove(context.Background(), keys))

	return map[string]KeyValueStore{
		"sqlite": sq,
		"memory": NewMemoryStore(),
	}
}

func TestKeyValueStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, common.ErrorNotFound)

			require.NoError(t, s.Set(ctx, "pin_hash", []byte("abc")))
			v, err := s.Get(ctx, "pin_hash")
			require.NoError(t, err)
			assert.Equal(t, []byte("abc"), v)

			// Overwrite.
			require.NoError(t, s.Set(ctx, "pin_hash", []byte("def")))
			v, err = s.Get(ctx, "pin_hash")
			require.NoError(t, err)
			assert.Equal(t, []byte("def"), v)

			require.NoError(t, s.Remove(ctx, "pin_hash"))
			_, err = s.Get(ctx, "pin_hash")
			assert.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}

func TestKeyValueStoreMultiRemoveAndKeys(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Set(ctx, "cache_orders", []byte("1")))
			require.NoError(t, s.Set(ctx, "timestamp_orders", []byte("2")))
			require.NoError(t, s.Set(ctx, "queue_operations", []byte("3")))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"cache_orders", "queue_operations", "timestamp_orders"}, keys)

			require.NoError(t, s.MultiRemove(ctx, []string{"cache_orders", "timestamp_orders"}))

			keys, err = s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"queue_operations"}, keys)

			require.NoError(t, s.MultiRemove(ctx, nil))
		})
	}
}

func TestMemoryStoreFailNext(t *testing.T) {
	s := NewMemoryStore()
	s.FailNext = assert.AnError

	err := s.Set(context.Background(), "k", []byte("v"))
	assert.ErrorIs(t, err, assert.AnError)

	// Failure is one-shot.
	require.NoError(t, s.Set(context.Background(), "k", []byte("v")))
}
