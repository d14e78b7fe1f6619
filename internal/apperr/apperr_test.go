package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		tag    string
	}{
		{Validation, http.StatusBadRequest, "validation_error"},
		{TooLarge, http.StatusRequestEntityTooLarge, "validation_error"},
		{Auth, http.StatusUnauthorized, "authentication_error"},
		{NotFound, http.StatusNotFound, "not_found"},
		{Conflict, http.StatusConflict, "conflict"},
		{Storage, http.StatusInternalServerError, "storage_error"},
		{Unsupported, http.StatusNotImplemented, "unsupported"},
		{ExternalService, http.StatusBadGateway, "external_service_error"},
		{Timeout, http.StatusGatewayTimeout, "timeout_error"},
		{RateLimit, http.StatusTooManyRequests, "rate_limit_error"},
		{Internal, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.kind.Status(), "kind %v", tt.kind)
		assert.Equal(t, tt.tag, tt.kind.TypeTag(), "kind %v", tt.kind)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Storage, "write file", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "write file: disk full", err.Error())
	assert.Equal(t, Storage, KindOf(err))
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := New(NotFound, "file not found")
	outer := fmt.Errorf("lookup record: %w", inner)

	assert.Equal(t, NotFound, KindOf(outer))
	assert.True(t, IsKind(outer, NotFound))
	assert.False(t, IsKind(outer, Auth))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("anything")))
}
