package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/quickscan/backend/internal/apperr"
)

// Local stores bytes as plain files under dir, one file per key. Files are
// temporary: anything older than the retention window is reclaimed by
// SweepExpired. Local I/O carries no timeout.
type Local struct {
	dir string
}

// NewLocal creates the directory if needed and returns a Local backend.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "create storage directory", err)
	}
	return &Local{dir: dir}, nil
}

// Put writes the bytes to a file named by a fresh UUID key.
func (l *Local) Put(_ context.Context, _ string, _ string, r io.Reader, size int64) (string, error) {
	key := uuid.NewString()
	path := filepath.Join(l.dir, key)

	f, err := os.Create(path)
	if err != nil {
		return "", apperr.Wrap(apperr.Storage, "create file", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", apperr.Wrap(apperr.Storage, "write file", err)
	}
	if size >= 0 && n != size {
		_ = os.Remove(path)
		return "", apperr.Newf(apperr.Storage, "short write: got %d bytes, want %d", n, size)
	}

	return key, nil
}

// Get opens the file stored under key.
func (l *Local) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.dir, SanitizeFilename(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.New(apperr.NotFound, "file not found in storage")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "open file", err)
	}
	return f, nil
}

// SignedURL is not supported for local files; callers stream bytes through
// the download endpoint instead.
func (l *Local) SignedURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", apperr.New(apperr.Unsupported, "signed URLs are not supported by local storage")
}

// Delete removes the file under key. An absent key is a success.
func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(l.dir, SanitizeFilename(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.Wrap(apperr.Storage, "delete file", err)
	}
	return nil
}

// SweepExpired removes every stored file whose modification time is older
// than maxAge and returns the removed keys.
func (l *Local) SweepExpired(_ context.Context, maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "read storage directory", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(l.dir, entry.Name())); err != nil {
			return removed, apperr.Wrap(apperr.Storage,
				fmt.Sprintf("remove expired file %q", entry.Name()), err)
		}
		removed = append(removed, entry.Name())
	}

	return removed, nil
}
