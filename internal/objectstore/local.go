// local.go: local filesystem storage backend
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calz1/rushroster-cloud/internal/conf"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// LocalStore implements the Store interface on the local filesystem.
// Useful for development and self-hosted deployments.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a local filesystem store rooted at the configured
// base path, creating the directory if needed.
func NewLocalStore(settings *conf.StorageSettings) (*LocalStore, error) {
	if settings.LocalPath == "" {
		return nil, NewError(ErrValidation, "base path is required for local storage", nil)
	}

	cleanPath := filepath.Clean(settings.LocalPath)
	if strings.Contains(cleanPath, "..") {
		return nil, NewError(ErrValidation, "base path must not contain directory traversal sequences", nil)
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, NewError(ErrValidation, "failed to resolve absolute base path", err)
	}

	if err := os.MkdirAll(absPath, dirPermissions); err != nil {
		return nil, NewError(ErrWrite, "failed to create storage directory", err)
	}

	return &LocalStore{basePath: absPath}, nil
}

// Name returns the name of this backend
func (s *LocalStore) Name() string {
	return "local"
}

// filePath resolves a key to an absolute path under the base directory,
// refusing keys that would escape it.
func (s *LocalStore) filePath(key string) (string, error) {
	if key == "" {
		return "", NewError(ErrValidation, "object key must not be empty", nil)
	}
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(full, s.basePath+string(os.PathSeparator)) {
		return "", NewError(ErrValidation, fmt.Sprintf("object key escapes storage root: %q", key), nil)
	}
	return full, nil
}

// Put stores content under key. The write is atomic: content goes to a
// temporary file in the target directory which is then renamed into place,
// so a failed put leaves no partial object visible.
func (s *LocalStore) Put(ctx context.Context, key string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ctxErr(err)
	}

	targetPath, err := s.filePath(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), dirPermissions); err != nil {
		return "", NewError(ErrWrite, "failed to create object directory", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(targetPath), ".upload-*.tmp")
	if err != nil {
		return "", NewError(ErrWrite, "failed to create temporary file", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err := tempFile.Chmod(filePermissions); err != nil {
		return "", NewError(ErrWrite, "failed to set file permissions", err)
	}
	if _, err := tempFile.Write(content); err != nil {
		return "", NewError(ErrWrite, "failed to write object content", err)
	}
	if err := tempFile.Sync(); err != nil {
		return "", NewError(ErrWrite, "failed to sync object content", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", NewError(ErrWrite, "failed to close temporary file", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", NewError(ErrWrite, "failed to rename temporary file", err)
	}

	success = true
	return "/api/storage/files/" + key, nil
}

// Get retrieves the content stored under key.
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, ctxErr(err)
	}

	path, err := s.filePath(key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewError(ErrNotFound, fmt.Sprintf("object not found: %s", key), err)
		}
		return nil, NewError(ErrUnavailable, "failed to read object", err)
	}
	return content, nil
}

// Exists reports whether an object is stored under key.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, ctxErr(err)
	}

	path, err := s.filePath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, NewError(ErrUnavailable, "failed to stat object", err)
	}
	return true, nil
}

// Delete removes the object stored under key. Deleting an absent key is
// not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return ctxErr(err)
	}

	path, err := s.filePath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return NewError(ErrWrite, "failed to delete object", err)
	}
	return nil
}

// Validate checks that the base path exists, is a directory and is writable.
func (s *LocalStore) Validate() error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return NewError(ErrValidation, "storage path does not exist", err)
	}
	if !info.IsDir() {
		return NewError(ErrValidation, "storage path is not a directory", nil)
	}

	tmpFile := filepath.Join(s.basePath, ".write_test")
	f, err := os.Create(tmpFile)
	if err != nil {
		return NewError(ErrValidation, "storage path is not writable", err)
	}
	f.Close()
	os.Remove(tmpFile)

	return nil
}
