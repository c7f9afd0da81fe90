// internal/store/store.go
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("store: key not found")

// Store is a flat key-value namespace with prefix enumeration. It exposes
// the consistency of the weakest backing service: a List immediately after
// a Put may not include the new key, and no read-after-write guarantee is
// made. Callers are written to tolerate that, so implementations must not
// be relied on for anything stronger.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the names of all keys starting with prefix. Values are
	// not included; fetch them individually with Get.
	List(ctx context.Context, prefix string) ([]string, error)
}
