// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/quickscan/backend/internal/apperr"
)

// Envelope is the standard API response envelope.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Message   *string     `json:"message"`
	Error     *ErrorBody  `json:"error"`
	Timestamp string      `json:"timestamp"`
}

// ErrorBody describes a failed request inside the envelope.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with data and a human-readable message.
func OK(w http.ResponseWriter, data interface{}, message string) {
	JSON(w, http.StatusOK, Envelope{
		Success:   true,
		Data:      data,
		Message:   &message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Created writes a 201 response with data.
func Created(w http.ResponseWriter, data interface{}, message string) {
	JSON(w, http.StatusCreated, Envelope{
		Success:   true,
		Data:      data,
		Message:   &message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Error writes an error response with the status, type tag, and message
// derived from the error's kind. Errors outside the taxonomy surface as
// internal_error with a generic message.
func Error(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == apperr.Internal {
		msg = "internal server error"
	}
	Fail(w, kind.Status(), kind.TypeTag(), msg)
}

// Fail writes an explicit error envelope.
func Fail(w http.ResponseWriter, status int, typeTag, message string) {
	JSON(w, status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Type:    typeTag,
			Message: message,
			Status:  status,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
