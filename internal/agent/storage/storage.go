// Package storage provides the terminal-local persisted key-value store
// used by the offline cache, the mutation queue, and the PIN-lock state.
//
// The store is deliberately primitive: string keys, opaque byte values,
// no transactions across keys beyond MultiRemove. Callers that need
// durability guarantees stronger than "eventually flushed" must not rely
// on this layer.
package storage

import "context"

// KeyValueStore is the persisted key-value collaborator.
// Get returns common.ErrorNotFound for absent keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	MultiRemove(ctx context.Context, keys []string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
