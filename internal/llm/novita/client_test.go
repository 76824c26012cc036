package novita

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plainlegal/plainlegal/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "deepseek/deepseek-v3.1",
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}, nil)

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func completionJSON(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestComplete_FirstAttemptSucceeds(t *testing.T) {
	var gotAuth, gotBody atomic.Value
	c, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotBody.Store(req)
		fmt.Fprint(w, completionJSON("Simplified text."))
	})

	res, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "Explain clause 4."})
	require.NoError(t, err)
	assert.Equal(t, "Simplified text.", res.Text)
	assert.Equal(t, "deepseek/deepseek-v3.1", res.Model)
	assert.Empty(t, *slept)

	assert.Equal(t, "Bearer test-key", gotAuth.Load())
	sent := gotBody.Load().(chatRequest)
	assert.Equal(t, "deepseek/deepseek-v3.1", sent.Model)
	assert.Equal(t, 1000, sent.MaxTokens) // default output cap
	require.Len(t, sent.Messages, 1)
	assert.Equal(t, "user", sent.Messages[0].Role)
	assert.Equal(t, "Explain clause 4.", sent.Messages[0].Content)
}

func TestComplete_RetriesWithExponentialBackoff(t *testing.T) {
	var calls atomic.Int32
	c, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "upstream overloaded", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, completionJSON("ok"))
	})

	res, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, int32(3), calls.Load())
	// Two retries: delays base*2^0, base*2^1 in increasing order.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestComplete_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still broken", http.StatusInternalServerError)
	})

	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	require.Error(t, err)

	var callErr *llm.CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, 4, callErr.Attempts) // 1 primary + 3 retries
	assert.Contains(t, callErr.Cause.Error(), "500")
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *slept)
}

func TestComplete_ContextCancelledDuringBackoff(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	var callErr *llm.CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, 1, callErr.Attempts)
}

func TestComplete_RequestModelOverridesDefault(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "gpt-4", req.Model)
		fmt.Fprint(w, completionJSON("x"))
	})

	res, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p", Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", res.Model)
}

func TestComplete_NoChoices(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})
	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	var callErr *llm.CallError
	require.ErrorAs(t, err, &callErr)
	assert.Contains(t, callErr.Cause.Error(), "no choices")
}

func TestComplete_Streaming(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Plain ", "English ", "text."} {
			b, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{
					{"delta": map[string]any{"content": piece}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var tap strings.Builder
	res, err := c.Complete(context.Background(), llm.CompletionRequest{
		Prompt:   "p",
		Stream:   true,
		StreamTo: &tap,
	})
	require.NoError(t, err)
	assert.Equal(t, "Plain English text.", res.Text)
	assert.Equal(t, "Plain English text.", tap.String())
}
