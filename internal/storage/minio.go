package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/quickscan/backend/internal/apperr"
)

// Minio stores bytes in an S3-compatible bucket (MinIO locally, any S3
// provider in production). Retrieval happens through short-lived presigned
// URLs computed on demand; the bucket stays private. Every call against the
// bucket API carries a bounded timeout.
type Minio struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
}

// NewMinio creates a MinIO client, ensures the bucket exists, and returns a
// ready-to-use backend.
func NewMinio(endpoint, accessKey, secretKey, bucket string, useSSL bool, timeout time.Duration) (*Minio, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	return &Minio{client: client, bucket: bucket, timeout: timeout}, nil
}

// Put streams the bytes to the bucket under a fresh "<uuid>/<name>" key.
func (m *Minio) Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	key := uuid.NewString() + "/" + SanitizeFilename(name)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", wrapMinioErr("put object", err)
	}
	return key, nil
}

// Get returns a reader over the object stored under key.
func (m *Minio) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		cancel()
		return nil, wrapMinioErr("get object", err)
	}

	// GetObject is lazy: the first Stat forces the request so a missing key
	// surfaces here instead of on first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		cancel()
		return nil, wrapMinioErr("stat object", err)
	}

	return &cancelReadCloser{ReadCloser: obj, cancel: cancel}, nil
}

// SignedURL computes a fresh presigned GET URL valid until now + ttl. Each
// call produces an independent URL with its own expiry.
func (m *Minio) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", wrapMinioErr("presign object", err)
	}
	return u.String(), nil
}

// Delete removes the object under key. Removing an absent key is a success.
func (m *Minio) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if apperr.IsKind(wrapMinioErr("", err), apperr.NotFound) {
			return nil
		}
		return wrapMinioErr("remove object", err)
	}
	return nil
}

// SweepExpired is a no-op: remote object lifecycle is managed by the bucket
// provider, not this process.
func (m *Minio) SweepExpired(context.Context, time.Duration) ([]string, error) {
	return nil, nil
}

// wrapMinioErr maps bucket API failures onto the error taxonomy: a missing
// key is NotFound, a deadline is Timeout, everything else a StorageError.
func wrapMinioErr(op string, err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket") {
		return apperr.Wrap(apperr.NotFound, "object not found", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.Timeout, op+" timed out", err)
	}
	return apperr.Wrap(apperr.Storage, op, err)
}

// cancelReadCloser ties the request's timeout context to the reader's
// lifetime so streaming a large object is not cut off mid-transfer by an
// early cancel.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
