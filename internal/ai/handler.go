package ai

import (
	"encoding/json"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quickscan/backend/internal/apperr"
	"github.com/quickscan/backend/internal/response"
)

// Handler holds HTTP handlers for the AI endpoints.
type Handler struct {
	client   *Client
	validate *validator.Validate
}

// NewHandler creates a new ai Handler.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client, validate: validator.New()}
}

type summarizeRequest struct {
	Content   string `json:"content" validate:"required,min=10,max=50000"`
	MaxLength *int   `json:"max_length" validate:"omitempty,min=50,max=2000"`
}

type summarizeData struct {
	ID              string `json:"id"`
	OriginalContent string `json:"original_content"`
	Summary         string `json:"summary"`
	OriginalLength  int    `json:"original_length"`
	SummaryLength   int    `json:"summary_length"`
	Timestamp       string `json:"timestamp"`
}

type chatRequest struct {
	Content      string   `json:"content" validate:"required,min=1,max=50000"`
	Model        string   `json:"model" validate:"omitempty,oneof=gpt-3.5-turbo gpt-4 gpt-4-turbo gpt-4o gpt-4o-mini"`
	Temperature  *float64 `json:"temperature" validate:"omitempty,min=0,max=2"`
	MaxTokens    *int     `json:"max_tokens" validate:"omitempty,min=1,max=4096"`
	SystemPrompt string   `json:"system_prompt"`
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

// Summarize handles POST /api/summarize.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := h.decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	maxLength := 200
	if req.MaxLength != nil {
		maxLength = *req.MaxLength
	}

	summary, err := h.client.Summarize(r.Context(), req.Content, maxLength)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, summarizeData{
		ID:              uuid.NewString(),
		OriginalContent: req.Content,
		Summary:         summary,
		OriginalLength:  len(req.Content),
		SummaryLength:   len(summary),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}, "Document summarized successfully")
}

// ChatCompletion handles POST /api/chat/completion.
func (h *Handler) ChatCompletion(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := h.decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	completion, err := h.client.ChatCompletion(r.Context(), Params{
		Content:      req.Content,
		Model:        req.Model,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, completion, "Chat completion generated successfully")
}
