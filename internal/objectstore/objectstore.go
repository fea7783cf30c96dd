// objectstore.go: this code defines the interface for photo blob storage backends
package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/calz1/rushroster-cloud/internal/conf"
)

// Store abstracts the underlying storage backend and defines the interface
// for object operations. Keys are backend-opaque strings produced by the key
// builder; no backend-specific characters ever leak into them.
//
// All implementations provide identical semantics:
//   - Put is atomic from the caller's perspective; a failed put leaves no
//     partial object visible to Get or Exists.
//   - Get fails with an ErrNotFound coded error if the key is absent.
//   - Exists returns false for an absent key and only fails with
//     ErrUnavailable when the backend itself cannot be reached.
//   - Delete is idempotent; deleting an absent key is not an error.
type Store interface {
	// Name returns the name of the backend
	Name() string
	// Put stores content under key and returns the location URL for the object
	Put(ctx context.Context, key string, content []byte) (string, error)
	// Get retrieves the content stored under key
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error
	// Validate validates the backend configuration
	Validate() error
}

// New creates a Store for the configured provider. The provider is resolved
// once at process start; callers never branch on it per request.
func New(settings *conf.StorageSettings) (Store, error) {
	switch settings.Provider {
	case conf.StorageLocal:
		return NewLocalStore(settings)
	case conf.StorageS3:
		return NewS3Store(settings)
	case conf.StorageGCS:
		return NewGCSStore(settings)
	default:
		return nil, NewError(ErrValidation,
			fmt.Sprintf("unsupported storage provider: %s", settings.Provider), nil)
	}
}

// ctxErr maps a context error on a backend call to the storage error
// taxonomy. A deadline is reported as a timeout, never a crash.
func ctxErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(ErrTimeout, "storage operation timed out", err)
	case errors.Is(err, context.Canceled):
		return NewError(ErrCanceled, "storage operation canceled", err)
	default:
		return err
	}
}
