// Package registry keeps the in-memory directory of uploaded files. It maps
// file identifiers to metadata records independent of which storage backend
// holds the bytes.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickscan/backend/internal/apperr"
	"github.com/quickscan/backend/internal/storage"
)

// Status is a file record's lifecycle state.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusDeleted  Status = "deleted"
)

// FileRecord is the metadata tracked for one uploaded file. Exactly one
// backend variant holds the bytes, fixed at creation; records never migrate
// between backends.
type FileRecord struct {
	ID          string          `json:"id"`
	Filename    string          `json:"filename"`
	Size        int64           `json:"file_size"`
	ContentType string          `json:"content_type"`
	Status      Status          `json:"status"`
	Backend     storage.Variant `json:"storage_type"`
	StorageKey  string          `json:"-"`
	DownloadURL *string         `json:"download_url"`
	CreatedAt   time.Time       `json:"timestamp"`
}

// Meta is the creation-time input for a record; the registry assigns the ID
// and status.
type Meta struct {
	Filename    string
	Size        int64
	ContentType string
	Backend     storage.Variant
	StorageKey  string
	DownloadURL *string
}

// Registry is safe for concurrent use. A single RWMutex guards the map and
// the insertion-order index together; the order guarantee for List is what
// rules out a plain concurrent map here.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*FileRecord
	order   []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{records: make(map[string]*FileRecord)}
}

// Create inserts a new record under a freshly generated UUID and returns it.
// On the astronomically unlikely collision the UUID is regenerated once;
// a second collision is an internal error.
func (r *Registry) Create(meta Meta) (*FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	if _, exists := r.records[id]; exists {
		id = uuid.NewString()
		if _, exists := r.records[id]; exists {
			return nil, apperr.New(apperr.Internal, "file id collision")
		}
	}

	rec := &FileRecord{
		ID:          id,
		Filename:    meta.Filename,
		Size:        meta.Size,
		ContentType: meta.ContentType,
		Status:      StatusUploaded,
		Backend:     meta.Backend,
		StorageKey:  meta.StorageKey,
		DownloadURL: meta.DownloadURL,
		CreatedAt:   time.Now().UTC(),
	}
	r.records[id] = rec
	r.order = append(r.order, id)

	return rec.clone(), nil
}

// Get returns the record for id. Deleted and unknown ids are both NotFound.
func (r *Registry) Get(id string) (*FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok || rec.Status == StatusDeleted {
		return nil, apperr.New(apperr.NotFound, "file not found")
	}
	return rec.clone(), nil
}

// List returns all non-deleted records in insertion order.
func (r *Registry) List() []*FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*FileRecord, 0, len(r.order))
	for _, id := range r.order {
		if rec := r.records[id]; rec != nil && rec.Status != StatusDeleted {
			out = append(out, rec.clone())
		}
	}
	return out
}

// MarkDeleted transitions the record to deleted; subsequent Gets fail with
// NotFound.
func (r *Registry) MarkDeleted(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.Status == StatusDeleted {
		return apperr.New(apperr.NotFound, "file not found")
	}
	rec.Status = StatusDeleted
	return nil
}

// MarkDeletedByKey retracts the record whose bytes lived under the given
// storage key. Used by the cleanup sweep, which reports backend keys rather
// than record ids. Unknown keys are ignored: the sweep may reclaim files
// whose records are already gone.
func (r *Registry) MarkDeletedByKey(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.StorageKey == key && rec.Status != StatusDeleted {
			rec.Status = StatusDeleted
			return true
		}
	}
	return false
}

func (rec *FileRecord) clone() *FileRecord {
	c := *rec
	if rec.DownloadURL != nil {
		u := *rec.DownloadURL
		c.DownloadURL = &u
	}
	return &c
}
