// Package apperr defines the error taxonomy shared by all services.
// Every error crossing a service boundary is an *Error with a Kind;
// handlers map the Kind to an HTTP status and a stable type tag.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport-level mapping.
type Kind int

const (
	Validation Kind = iota
	TooLarge
	Auth
	NotFound
	Conflict
	Storage
	Unsupported
	ExternalService
	Timeout
	RateLimit
	Internal
)

// Error carries a kind, a caller-facing message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an *Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, defaulting to Internal for
// anything outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case TooLarge:
		return http.StatusRequestEntityTooLarge
	case Auth:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Unsupported:
		return http.StatusNotImplemented
	case ExternalService:
		return http.StatusBadGateway
	case Timeout:
		return http.StatusGatewayTimeout
	case RateLimit:
		return http.StatusTooManyRequests
	case Storage, Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// TypeTag returns the stable machine-readable tag used in the response
// envelope's error.type field.
func (k Kind) TypeTag() string {
	switch k {
	case Validation:
		return "validation_error"
	case TooLarge:
		return "validation_error"
	case Auth:
		return "authentication_error"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Storage:
		return "storage_error"
	case Unsupported:
		return "unsupported"
	case ExternalService:
		return "external_service_error"
	case Timeout:
		return "timeout_error"
	case RateLimit:
		return "rate_limit_error"
	case Internal:
		return "internal_error"
	default:
		return "internal_error"
	}
}
