package kv

import (
	"context"
)

// Repository is the durable key-value space the vault writes to. Values are
// opaque bytes; Get returns (nil, nil) for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetIfAbsent stores value only when key is missing and returns whatever
	// value is stored afterwards, so concurrent writers converge on one value.
	SetIfAbsent(ctx context.Context, key string, value []byte) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// Clear removes every key, vault metadata included.
	Clear(ctx context.Context) error
}
