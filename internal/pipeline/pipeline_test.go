package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plainlegal/plainlegal/internal/llm"
	"github.com/plainlegal/plainlegal/internal/reader"
)

// stubGateway answers every prompt with a fixed marker per mode and lets
// tests inject per-call failures and latency.
type stubGateway struct {
	calls   atomic.Int32
	fail    func(prompt string, call int) error
	latency func(prompt string) time.Duration
}

func (s *stubGateway) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	call := int(s.calls.Add(1))
	if s.latency != nil {
		select {
		case <-ctx.Done():
			return llm.Completion{}, ctx.Err()
		case <-time.After(s.latency(req.Prompt)):
		}
	}
	if s.fail != nil {
		if err := s.fail(req.Prompt, call); err != nil {
			return llm.Completion{}, err
		}
	}
	if strings.Contains(req.Prompt, "Bullet-Point Summary:") {
		return llm.Completion{Text: "[SUMMARY]", Model: "stub"}, nil
	}
	return llm.Completion{Text: "[PLAIN]", Model: "stub"}, nil
}

const threeParas = "Para one.\n\nPara two.\n\nPara three."

func TestProcess_EndToEnd(t *testing.T) {
	gw := &stubGateway{}
	orch := New(gw, nil)

	out, err := orch.Process(context.Background(), reader.Document{Text: threeParas}, Options{MaxSectionChars: 15})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Sections)
	assert.Equal(t, "[PLAIN]\n\n[PLAIN]\n\n[PLAIN]", out.PlainEnglish)
	assert.Equal(t, "[SUMMARY]\n\n[SUMMARY]\n\n[SUMMARY]", out.Summary)
	assert.Empty(t, out.Failures)
	assert.Equal(t, int32(6), gw.calls.Load()) // two calls per section
}

func TestProcess_EmptyDocument(t *testing.T) {
	gw := &stubGateway{}
	orch := New(gw, nil)

	out, err := orch.Process(context.Background(), reader.Document{Text: "   \n\n  "}, Options{})
	require.NoError(t, err)
	assert.Equal(t, Output{}, out)
	assert.Zero(t, gw.calls.Load(), "gateway must not be invoked for empty input")
}

func TestProcess_AbortsOnFirstFailure(t *testing.T) {
	gw := &stubGateway{
		fail: func(prompt string, _ int) error {
			// Fail the summary half of the second section.
			if strings.Contains(prompt, "Para two.") && strings.Contains(prompt, "Bullet-Point Summary:") {
				return errors.New("upstream gone")
			}
			return nil
		},
	}
	orch := New(gw, nil)

	_, err := orch.Process(context.Background(), reader.Document{Text: threeParas}, Options{MaxSectionChars: 15})
	require.Error(t, err)

	var sectionErr *SectionError
	require.ErrorAs(t, err, &sectionErr)
	assert.Equal(t, 1, sectionErr.Index)
	assert.Equal(t, llm.ModeSummary, sectionErr.Mode)
	// Third section never dispatched: 2 (section 0) + 2 (section 1) calls.
	assert.Equal(t, int32(4), gw.calls.Load())
}

func TestProcess_ContinueOnError(t *testing.T) {
	gw := &stubGateway{
		fail: func(prompt string, _ int) error {
			if strings.Contains(prompt, "Para two.") && strings.Contains(prompt, "Plain English Version:") {
				return errors.New("flaky upstream")
			}
			return nil
		},
	}
	orch := New(gw, nil)

	out, err := orch.Process(context.Background(), reader.Document{Text: threeParas},
		Options{MaxSectionChars: 15, ContinueOnError: true})
	require.NoError(t, err)

	assert.Equal(t, "[PLAIN]\n\n[SECTION 2 FAILED]\n\n[PLAIN]", out.PlainEnglish)
	assert.Equal(t, "[SUMMARY]\n\n[SUMMARY]\n\n[SUMMARY]", out.Summary)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, 1, out.Failures[0].Index)
	assert.Equal(t, llm.ModePlainEnglish, out.Failures[0].Mode)
	assert.Equal(t, int32(6), gw.calls.Load())
}

func TestProcess_OrderPreservedUnderConcurrency(t *testing.T) {
	// Earlier sections answer slower, so completion order is reversed
	// relative to section order.
	gw := &stubGateway{
		latency: func(prompt string) time.Duration {
			switch {
			case strings.Contains(prompt, "Para one."):
				return 30 * time.Millisecond
			case strings.Contains(prompt, "Para two."):
				return 15 * time.Millisecond
			default:
				return time.Millisecond
			}
		},
	}
	orch := New(gw, nil)

	out, err := orch.Process(context.Background(), reader.Document{Text: threeParas},
		Options{MaxSectionChars: 15, Concurrency: 4})
	require.NoError(t, err)

	parts := strings.Split(out.PlainEnglish, "\n\n")
	assert.Len(t, parts, out.Sections)
	assert.Equal(t, "[PLAIN]\n\n[PLAIN]\n\n[PLAIN]", out.PlainEnglish)
	assert.Equal(t, "[SUMMARY]\n\n[SUMMARY]\n\n[SUMMARY]", out.Summary)
}

func TestProcess_ConcurrentFailureAborts(t *testing.T) {
	gw := &stubGateway{
		fail: func(prompt string, _ int) error {
			if strings.Contains(prompt, "Para three.") {
				return errors.New("boom")
			}
			return nil
		},
	}
	orch := New(gw, nil)

	_, err := orch.Process(context.Background(), reader.Document{Text: threeParas},
		Options{MaxSectionChars: 15, Concurrency: 3})
	require.Error(t, err)

	var sectionErr *SectionError
	assert.ErrorAs(t, err, &sectionErr)
}

func TestProcess_CancelledContext(t *testing.T) {
	gw := &stubGateway{}
	orch := New(gw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Process(ctx, reader.Document{Text: threeParas}, Options{MaxSectionChars: 15})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gw.calls.Load())
}

func TestValidateOutput(t *testing.T) {
	long := strings.Repeat("All parties agree to the stated terms. ", 5)

	v := ValidateOutput(long)
	assert.True(t, v.Valid)
	assert.Empty(t, v.Warnings)

	v = ValidateOutput(long + " [TRUNCATED]")
	assert.True(t, v.Valid)
	assert.Contains(t, v.Warnings, "output may be truncated")

	v = ValidateOutput("too short")
	assert.False(t, v.Valid)
	assert.Contains(t, v.Errors, "output suspiciously short")
}
