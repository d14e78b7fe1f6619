// Package files orchestrates uploads and retrievals: it validates payloads,
// writes and reads bytes through the configured storage backend, keeps the
// file registry in step with the backend, and runs cleanup sweeps.
package files

import (
	"context"
	"fmt"
	"io"
	"mime"
	"time"

	"go.uber.org/zap"

	"github.com/quickscan/backend/internal/apperr"
	"github.com/quickscan/backend/internal/registry"
	"github.com/quickscan/backend/internal/storage"
)

// defaultAllowedTypes is the upload content-type allow-list.
var defaultAllowedTypes = map[string]struct{}{
	"text/plain":               {},
	"text/csv":                 {},
	"application/json":         {},
	"application/pdf":          {},
	"image/png":                {},
	"image/jpeg":               {},
	"image/gif":                {},
	"application/octet-stream": {},
}

// Options configures a Service.
type Options struct {
	Variant       storage.Variant
	MaxUploadSize int64
	SignedURLTTL  time.Duration
	LocalMaxAge   time.Duration
}

// Service is the upload/retrieval orchestrator. The backend variant is fixed
// at construction: no per-call backend negotiation, no runtime migration.
type Service struct {
	store storage.Backend
	reg   *registry.Registry
	log   *zap.SugaredLogger
	opts  Options
}

// NewService wires the orchestrator to its storage backend and registry.
func NewService(store storage.Backend, reg *registry.Registry, log *zap.SugaredLogger, opts Options) *Service {
	return &Service{store: store, reg: reg, log: log, opts: opts}
}

// DownloadURL is the result of a signed-URL request.
type DownloadURL struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	URL       string `json:"download_url"`
	ExpiresAt string `json:"expires_at"`
}

// Upload validates the payload, stores the bytes, and registers the file.
// Nothing is written on validation failure; a registry failure rolls the
// bytes back so no metadata-less bytes survive.
func (s *Service) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*registry.FileRecord, error) {
	if size > s.opts.MaxUploadSize {
		return nil, apperr.Newf(apperr.TooLarge, "file size exceeds %d byte limit", s.opts.MaxUploadSize)
	}

	ct := normalizeContentType(contentType)
	if _, ok := defaultAllowedTypes[ct]; !ok {
		return nil, apperr.Newf(apperr.Validation, "content type %q is not allowed", ct)
	}

	key, err := s.store.Put(ctx, filename, ct, r, size)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	rec, err := s.reg.Create(registry.Meta{
		Filename:    filename,
		Size:        size,
		ContentType: ct,
		Backend:     s.opts.Variant,
		StorageKey:  key,
	})
	if err != nil {
		// Retract the bytes so a registry failure leaves nothing behind.
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Errorw("orphaned bytes after registry failure",
				"key", key, "error", derr)
		}
		return nil, fmt.Errorf("register upload: %w", err)
	}

	s.log.Infow("file uploaded",
		"id", rec.ID, "filename", rec.Filename, "size", rec.Size, "backend", rec.Backend)

	// The remote variant's response carries a fresh signed URL; it is
	// computed here and never stored on the record.
	if s.opts.Variant == storage.VariantRemote {
		if url, err := s.store.SignedURL(ctx, key, s.opts.SignedURLTTL); err == nil {
			rec.DownloadURL = &url
		} else {
			s.log.Warnw("presign after upload failed", "id", rec.ID, "error", err)
		}
	}

	return rec, nil
}

// Download looks up the record and opens the stored bytes for streaming.
// A record whose bytes are gone is a registry/backend desync and surfaces
// as an internal error, never silently.
func (s *Service) Download(ctx context.Context, id string) (*registry.FileRecord, io.ReadCloser, error) {
	rec, err := s.reg.Get(id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Get(ctx, rec.StorageKey)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			s.log.Errorw("registry references missing bytes",
				"id", rec.ID, "key", rec.StorageKey)
			return nil, nil, apperr.Wrap(apperr.Internal, "file bytes missing from storage", err)
		}
		return nil, nil, fmt.Errorf("read stored file: %w", err)
	}

	return rec, rc, nil
}

// GetDownloadURL produces a time-bounded download reference. The remote
// variant computes a fresh presigned URL on every call; the local variant
// points at the API's own download endpoint since local files have no
// signed-URL support.
func (s *Service) GetDownloadURL(ctx context.Context, id string) (*DownloadURL, error) {
	rec, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(s.opts.SignedURLTTL)

	url, err := s.store.SignedURL(ctx, rec.StorageKey, s.opts.SignedURLTTL)
	if apperr.IsKind(err, apperr.Unsupported) {
		url = "/api/files/" + rec.ID + "/download"
	} else if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}

	return &DownloadURL{
		ID:        rec.ID,
		Filename:  rec.Filename,
		URL:       url,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

// List returns all live records in upload order.
func (s *Service) List() []*registry.FileRecord {
	return s.reg.List()
}

// Delete removes the bytes first and retracts the metadata second: a crash
// in between leaves an orphaned registry entry recoverable by retry, never a
// live download pointer to missing bytes. Any authenticated caller may
// delete any file; per-user scoping is intentionally absent.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.reg.Get(id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, rec.StorageKey); err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}

	if err := s.reg.MarkDeleted(id); err != nil {
		// A concurrent delete already retracted the record.
		return err
	}

	s.log.Infow("file deleted", "id", id)
	return nil
}

// Cleanup sweeps expired backend objects and retracts their records. It
// returns the number of objects reclaimed; the remote variant reclaims
// nothing.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	keys, err := s.store.SweepExpired(ctx, s.opts.LocalMaxAge)
	for _, key := range keys {
		if !s.reg.MarkDeletedByKey(key) {
			s.log.Debugw("swept object had no live record", "key", key)
		}
	}
	if err != nil {
		return len(keys), fmt.Errorf("sweep expired files: %w", err)
	}

	if len(keys) > 0 {
		s.log.Infow("cleanup sweep finished", "removed", len(keys))
	}
	return len(keys), nil
}

// normalizeContentType strips parameters and lowercases the media type;
// an empty or malformed declaration falls back to octet-stream.
func normalizeContentType(ct string) string {
	if ct == "" {
		return "application/octet-stream"
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}
