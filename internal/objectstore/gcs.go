// gcs.go: Google Cloud Storage backend
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/calz1/rushroster-cloud/internal/conf"
)

// GCSStore implements the Store interface on Google Cloud Storage.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	timeout time.Duration
}

// NewGCSStore creates a GCS store for the configured bucket. When a
// credentials file is configured it is used, otherwise application default
// credentials apply.
func NewGCSStore(settings *conf.StorageSettings) (*GCSStore, error) {
	if settings.Bucket == "" {
		return nil, NewError(ErrValidation, "bucket is required for gcs storage", nil)
	}

	var opts []option.ClientOption
	if settings.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(settings.CredentialsFile))
	}

	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, NewError(ErrValidation, "failed to create gcs client", err)
	}

	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(conf.DefaultStorageTimeoutSeconds) * time.Second
	}

	return &GCSStore{
		client:  client,
		bucket:  settings.Bucket,
		timeout: timeout,
	}, nil
}

// Name returns the name of this backend
func (s *GCSStore) Name() string {
	return "gcs"
}

// Put stores content under key. GCS object writes only become visible on a
// successful writer close, so no partial object is ever observable.
func (s *GCSStore) Put(ctx context.Context, key string, content []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(key)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "image/jpeg"

	if _, err := writer.Write(content); err != nil {
		writer.Close()
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return "", cerr
		}
		return "", NewError(ErrWrite, fmt.Sprintf("failed to write object %s", key), err)
	}
	if err := writer.Close(); err != nil {
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return "", cerr
		}
		return "", NewError(ErrWrite, fmt.Sprintf("failed to finalize object %s", key), err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
}

// Get retrieves the content stored under key.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, NewError(ErrNotFound, fmt.Sprintf("object not found: %s", key), err)
		}
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return nil, cerr
		}
		return nil, NewError(ErrUnavailable, fmt.Sprintf("failed to open object %s", key), err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, NewError(ErrUnavailable, fmt.Sprintf("failed to read object %s", key), err)
	}
	return content, nil
}

// Exists reports whether an object is stored under key.
func (s *GCSStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return false, cerr
		}
		return false, NewError(ErrUnavailable, fmt.Sprintf("failed to stat object %s", key), err)
	}
	return true, nil
}

// Delete removes the object stored under key. Deleting an absent key is
// not an error.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return cerr
		}
		return NewError(ErrWrite, fmt.Sprintf("failed to delete object %s", key), err)
	}
	return nil
}

// Validate checks that the bucket exists and is accessible, and that the
// credentials allow writes.
func (s *GCSStore) Validate() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	bucket := s.client.Bucket(s.bucket)
	if _, err := bucket.Attrs(ctx); err != nil {
		return NewError(ErrUnavailable, fmt.Sprintf("failed to access bucket %s", s.bucket), err)
	}

	testObj := bucket.Object(".write_test")
	writer := testObj.NewWriter(ctx)
	if _, err := writer.Write([]byte("test")); err != nil {
		writer.Close()
		return NewError(ErrWrite, "failed to write test object", err)
	}
	if err := writer.Close(); err != nil {
		return NewError(ErrWrite, "failed to finalize test object", err)
	}
	if err := testObj.Delete(ctx); err != nil {
		return NewError(ErrWrite, "failed to delete test object", err)
	}

	return nil
}
