// ABOUTME: Store interface and sentinel errors for versioned key-value persistence
// ABOUTME: Used by the skill conversation id factory and the dialog state persister

package state

import (
	"context"
	"errors"
)

// Store errors
var (
	// ErrNotFound is returned when a requested key does not exist
	ErrNotFound = errors.New("key not found")

	// ErrConflict is returned when an expected version does not match the
	// stored one. Callers should reload and retry.
	ErrConflict = errors.New("version conflict")
)

// Store is a versioned key-value store. Each successful Put returns an opaque
// version token; passing that token as expectedVersion on the next Put makes
// the write conditional, which is how lost updates are prevented when a retry
// or duplicate delivery races with normal processing.
type Store interface {
	// Get returns the value and current version for key, or ErrNotFound.
	Get(ctx context.Context, key string) (value []byte, version string, err error)

	// Put writes value under key. An empty expectedVersion writes
	// unconditionally; otherwise the write fails with ErrConflict unless
	// expectedVersion matches the stored version. Returns the new version.
	Put(ctx context.Context, key string, value []byte, expectedVersion string) (version string, err error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
