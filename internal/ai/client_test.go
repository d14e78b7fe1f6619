package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickscan/backend/internal/apperr"
)

func fakeUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestChatCompletion(t *testing.T) {
	var gotReq wireRequest
	srv := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "pong"}},
			},
			"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
		})
	})

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second)

	out, err := c.ChatCompletion(context.Background(), Params{
		Content:      "ping",
		SystemPrompt: "be terse",
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", out.Content)
	assert.Equal(t, "gpt-4o-mini", out.Model)
	assert.Equal(t, 4, out.Usage.TotalTokens)
	assert.NotEmpty(t, out.ID)

	// The default model filled in, system prompt first.
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "ping", gotReq.Messages[1].Content)
}

func TestChatCompletionUpstreamError(t *testing.T) {
	srv := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	})

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second)

	_, err := c.ChatCompletion(context.Background(), Params{Content: "hi"})
	assert.True(t, apperr.IsKind(err, apperr.ExternalService))
}

func TestChatCompletionNoChoices(t *testing.T) {
	srv := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"model": "gpt-4o-mini", "choices": []any{}})
	})

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second)

	_, err := c.ChatCompletion(context.Background(), Params{Content: "hi"})
	assert.True(t, apperr.IsKind(err, apperr.ExternalService))
}

func TestChatCompletionTimeout(t *testing.T) {
	srv := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ChatCompletion(ctx, Params{Content: "hi"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Timeout) || apperr.IsKind(err, apperr.ExternalService))
}

func TestSummarize(t *testing.T) {
	var gotReq wireRequest
	srv := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "short summary"}},
			},
		})
	})

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second)

	summary, err := c.Summarize(context.Background(), "a very long document", 300)
	require.NoError(t, err)
	assert.Equal(t, "short summary", summary)

	require.NotNil(t, gotReq.MaxTokens)
	assert.Equal(t, 100, *gotReq.MaxTokens)
	require.NotNil(t, gotReq.Temperature)
	assert.InDelta(t, 0.3, *gotReq.Temperature, 1e-9)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
}
