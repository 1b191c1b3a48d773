package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been set or was removed.
var ErrNotFound = errors.New("storage: key not found")

// Store is the key-value persistence collaborator used by the engine.
// Values are opaque JSON documents; callers own their encoding.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
