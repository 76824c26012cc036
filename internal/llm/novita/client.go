package novita

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plainlegal/plainlegal/internal/llm"
)

// Complete implements llm.Gateway. The first attempt is issued immediately;
// on failure it retries up to MaxRetries more times, sleeping
// BaseDelay*2^i before retry i. All attempts failing yields *llm.CallError
// wrapping the last transport error; no partial result is returned.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	c.log.Info("llm.call.start",
		"req_id", rid,
		"model", model,
		"prompt_chars", len(req.Prompt),
		"max_output_tokens", maxTokens,
		"stream", req.Stream,
	)

	text, err := c.callOnce(ctx, req, model, maxTokens)
	if err == nil {
		c.log.Info("llm.call.ok",
			"req_id", rid,
			"model", model,
			"output_chars", len(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Completion{Text: text, Model: model}, nil
	}

	lastErr := err
	attempts := 1
	for i := 0; i < c.cfg.MaxRetries; i++ {
		delay := c.cfg.BaseDelay << uint(i)
		c.log.Warn("llm.call.retry",
			"req_id", rid,
			"attempt", i+1,
			"max_retries", c.cfg.MaxRetries,
			"delay_ms", delay.Milliseconds(),
			"error", lastErr,
		)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return llm.Completion{}, &llm.CallError{Attempts: attempts, Cause: lastErr}
		}

		text, err = c.callOnce(ctx, req, model, maxTokens)
		attempts++
		if err == nil {
			c.log.Info("llm.call.ok",
				"req_id", rid,
				"model", model,
				"output_chars", len(text),
				"attempts", attempts,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Completion{Text: text, Model: model}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	c.log.Error("llm.call.exhausted",
		"req_id", rid,
		"model", model,
		"attempts", attempts,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"error", lastErr,
	)
	return llm.Completion{}, &llm.CallError{Attempts: attempts, Cause: lastErr}
}

// chatRequest is the wire shape for POST /chat/completions.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
	Stream    bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) callOnce(ctx context.Context, req llm.CompletionRequest, model string, maxTokens int) (string, error) {
	body := chatRequest{
		Model:     model,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: maxTokens,
		Stream:    req.Stream,
	}

	bs, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("novita http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("novita response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("novita status %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}

	if req.Stream {
		return c.readStream(resp.Body, req.StreamTo)
	}
	return decodeCompletion(resp.Body)
}

func decodeCompletion(r io.Reader) (string, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(r).Decode(&cc); err != nil {
		return "", fmt.Errorf("decode novita response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in novita response")
	}
	return cc.Choices[0].Message.Content, nil
}
