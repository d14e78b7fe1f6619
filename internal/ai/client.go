// Package ai proxies text operations to an OpenAI-compatible completion API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/quickscan/backend/internal/apperr"
)

// Params describes one completion request.
type Params struct {
	Content      string
	Model        string
	Temperature  *float64
	MaxTokens    *int
	SystemPrompt string
}

// Usage reports upstream token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the result returned to callers.
type Completion struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Model     string `json:"model"`
	Usage     Usage  `json:"usage"`
	Timestamp string `json:"timestamp"`
}

// Wire types for the upstream chat-completions endpoint.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type wireResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Client is a thin pass-through to the completion API with a bounded
// per-request timeout.
type Client struct {
	http         *resty.Client
	defaultModel string
}

// NewClient configures the resty client against the given base URL.
func NewClient(baseURL, apiKey, defaultModel string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(apiKey).
			SetTimeout(timeout),
		defaultModel: defaultModel,
	}
}

// ChatCompletion sends one completion request upstream and returns the first
// choice. Upstream failures are never retried here; the caller decides.
func (c *Client) ChatCompletion(ctx context.Context, p Params) (*Completion, error) {
	model := p.Model
	if model == "" {
		model = c.defaultModel
	}

	var messages []wireMessage
	if p.SystemPrompt != "" {
		messages = append(messages, wireMessage{Role: "system", Content: p.SystemPrompt})
	}
	messages = append(messages, wireMessage{Role: "user", Content: p.Content})

	var out wireResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wireRequest{
			Model:       model,
			Messages:    messages,
			Temperature: p.Temperature,
			MaxTokens:   p.MaxTokens,
		}).
		SetResult(&out).
		Post("/v1/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.Timeout, "completion request timed out", err)
		}
		return nil, apperr.Wrap(apperr.ExternalService, "completion request failed", err)
	}
	if resp.IsError() {
		return nil, apperr.Newf(apperr.ExternalService,
			"completion API returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return nil, apperr.New(apperr.ExternalService, "completion API returned no choices")
	}

	return &Completion{
		ID:        uuid.NewString(),
		Content:   out.Choices[0].Message.Content,
		Model:     out.Model,
		Usage:     out.Usage,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Summarize asks the model for a summary of roughly maxLength characters.
func (c *Client) Summarize(ctx context.Context, content string, maxLength int) (string, error) {
	system := fmt.Sprintf(
		"You are a helpful assistant that summarizes text. Provide a concise summary of the given text in approximately %d characters or less. Focus on the main points and key information.",
		maxLength)

	temp := 0.3
	// Rough estimate: one token per three characters of output.
	maxTokens := maxLength / 3
	if maxTokens < 1 {
		maxTokens = 1
	}

	completion, err := c.ChatCompletion(ctx, Params{
		Content:      content,
		Temperature:  &temp,
		MaxTokens:    &maxTokens,
		SystemPrompt: system,
	})
	if err != nil {
		return "", err
	}
	return completion.Content, nil
}
