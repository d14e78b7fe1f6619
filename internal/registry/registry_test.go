package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickscan/backend/internal/apperr"
	"github.com/quickscan/backend/internal/storage"
)

func testMeta(name, key string) Meta {
	return Meta{
		Filename:    name,
		Size:        5,
		ContentType: "text/plain",
		Backend:     storage.VariantLocal,
		StorageKey:  key,
	}
}

func TestCreateAndGet(t *testing.T) {
	r := New()

	rec, err := r.Create(testMeta("a.txt", "key-a"))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, StatusUploaded, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := r.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Filename)
	assert.Equal(t, "key-a", got.StorageKey)
}

func TestGetUnknown(t *testing.T) {
	r := New()

	_, err := r.Get("no-such-id")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestListInsertionOrder(t *testing.T) {
	r := New()

	var ids []string
	for i := 0; i < 5; i++ {
		rec, err := r.Create(testMeta(fmt.Sprintf("f%d.txt", i), fmt.Sprintf("key-%d", i)))
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	recs := r.List()
	require.Len(t, recs, 5)
	for i, rec := range recs {
		assert.Equal(t, ids[i], rec.ID)
	}
}

func TestMarkDeleted(t *testing.T) {
	r := New()

	rec, err := r.Create(testMeta("gone.txt", "key-gone"))
	require.NoError(t, err)

	require.NoError(t, r.MarkDeleted(rec.ID))

	_, err = r.Get(rec.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	assert.Empty(t, r.List())

	// Deleting twice reports NotFound.
	err = r.MarkDeleted(rec.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestMarkDeletedByKey(t *testing.T) {
	r := New()

	rec, err := r.Create(testMeta("swept.txt", "key-swept"))
	require.NoError(t, err)

	assert.True(t, r.MarkDeletedByKey("key-swept"))
	assert.False(t, r.MarkDeletedByKey("key-swept"))
	assert.False(t, r.MarkDeletedByKey("key-never-existed"))

	_, err = r.Get(rec.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestCloneIsolation(t *testing.T) {
	r := New()

	rec, err := r.Create(testMeta("iso.txt", "key-iso"))
	require.NoError(t, err)

	rec.Filename = "mutated.txt"

	got, err := r.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "iso.txt", got.Filename)
}
