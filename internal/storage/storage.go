// Package storage defines the interface for file byte storage and its two
// implementations: Local (ephemeral disk with a retention window) and Minio
// (S3-compatible bucket with presigned URLs). The variant is chosen once at
// startup from configuration and injected; it is never re-checked per call.
package storage

import (
	"context"
	"io"
	"strings"
	"time"
)

// Backend is the contract every storage variant implements.
type Backend interface {
	// Put writes the bytes and returns an opaque key the registry retains.
	Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
	// Get returns a reader over the bytes stored under key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// SignedURL computes a fresh time-bounded download URL for key.
	// Variants without URL support return an unsupported error.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete removes the bytes under key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error
	// SweepExpired removes objects older than maxAge and reports the keys
	// removed, so the caller can retract matching metadata. Variants
	// without a local retention window return nil.
	SweepExpired(ctx context.Context, maxAge time.Duration) ([]string, error)
}

// Variant tags which backend holds a file's bytes.
type Variant string

const (
	VariantLocal  Variant = "local"
	VariantRemote Variant = "remote"
)

// SanitizeFilename replaces everything outside [A-Za-z0-9.-_] with an
// underscore, defusing path traversal in user-supplied names.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
