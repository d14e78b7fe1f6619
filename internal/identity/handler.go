package identity

import (
	"encoding/json"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/quickscan/backend/internal/apperr"
	"github.com/quickscan/backend/internal/response"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	store    *Store
	validate *validator.Validate
}

// NewHandler creates a new auth Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store, validate: validator.New()}
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type authData struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (h *Handler) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid request body", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "validation failed", err)
	}
	return nil
}

func (h *Handler) respondWithToken(w http.ResponseWriter, u *User, message string) {
	token, expiresAt, err := h.store.IssueToken(u)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, authData{
		User:      u,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, message)
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	u, err := h.store.Register(req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.respondWithToken(w, u, "User registered successfully")
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	u, err := h.store.Login(req.Email, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.respondWithToken(w, u, "Login successful")
}

// TokenLogin handles POST /api/auth/token: pre-shared demo strings traded
// for a regular bearer token.
func (h *Handler) TokenLogin(w http.ResponseWriter, r *http.Request) {
	var req tokenLoginRequest
	if err := h.decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	u, err := h.store.LoginWithToken(req.Token)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.respondWithToken(w, u, "Token authentication successful")
}

// Verify handles POST /api/auth/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := h.decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	u, err := h.store.Resolve(req.Token)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, u, "Token is valid")
}

// Me handles GET /api/auth/me. Unlike the other handlers it reads the
// Authorization header directly so it can run outside the auth middleware
// group.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	u, err := h.store.Resolve(token)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, u, "User information retrieved successfully")
}

func bearerToken(r *http.Request) (string, error) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperr.New(apperr.Auth, "missing Authorization header")
	}
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", apperr.New(apperr.Auth, "invalid Authorization header format")
	}
	return header[len(prefix):], nil
}
