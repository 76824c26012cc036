package llm

import (
	"context"
	"fmt"
	"io"
)

// Mode selects which transformation a prompt requests.
type Mode string

const (
	ModePlainEnglish Mode = "plain_english"
	ModeSummary      Mode = "summary"
)

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	Prompt          string
	Model           string // empty -> gateway default
	MaxOutputTokens int    // <=0 -> 1000
	Stream          bool   // incremental delivery; interactive/debug paths only
	StreamTo        io.Writer
}

// Completion is the result of one successful gateway call.
type Completion struct {
	Text  string
	Model string
}

// Gateway is the interface the pipeline depends on for remote completions.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// CallError means the remote call could not be completed after exhausting
// retries. Cause carries the last underlying transport error.
type CallError struct {
	Attempts int
	Cause    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("llm call failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}
