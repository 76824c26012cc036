// Package pipeline orchestrates chunking and per-section LLM calls into the
// two output streams: a plain-English rewrite and a bullet summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/plainlegal/plainlegal/internal/chunker"
	"github.com/plainlegal/plainlegal/internal/llm"
	"github.com/plainlegal/plainlegal/internal/reader"
)

// Options control one Process invocation.
type Options struct {
	MaxSectionChars int    // soft per-section budget; <=0 -> chunker default
	Model           string // empty -> gateway default
	MaxOutputTokens int    // <=0 -> gateway default (1000)

	// Concurrency bounds how many sections are in flight at once.
	// <=1 means strictly sequential calls.
	Concurrency int

	// ContinueOnError switches the per-section failure policy from
	// "abort the whole document" (default) to "record the failure,
	// emit a marker and keep going".
	ContinueOnError bool
}

// Output holds the two joined result streams for one document.
type Output struct {
	PlainEnglish string
	Summary      string
	Sections     int
	Failures     []SectionFailure
}

// SectionFailure records one unrecovered completion failure under
// continue-on-error mode.
type SectionFailure struct {
	Index int
	Mode  llm.Mode
	Err   string
}

// SectionError reports which half of which section failed.
type SectionError struct {
	Index int
	Mode  llm.Mode
	Err   error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section %d (%s): %v", e.Index, e.Mode, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// Orchestrator composes the chunker, prompt builders and the LLM gateway.
// Stateless between invocations; safe for concurrent use.
type Orchestrator struct {
	gateway llm.Gateway
	log     *slog.Logger
}

func New(gateway llm.Gateway, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{gateway: gateway, log: logger}
}

// sectionResult holds both completions for one section, index-addressed so
// final ordering never depends on completion order.
type sectionResult struct {
	plain   string
	summary string
}

// run owns the mutable state of a single Process invocation.
type run struct {
	orch     *Orchestrator
	opts     Options
	results  []sectionResult
	mu       sync.Mutex
	failures []SectionFailure
}

// Process chunks the document, issues two completions per section and joins
// the results in section order with blank-line separators. An empty document
// yields empty output without touching the gateway. Under the default
// failure policy the first unrecovered gateway failure aborts the document
// and the error identifies the section and mode.
func (o *Orchestrator) Process(ctx context.Context, doc reader.Document, opts Options) (Output, error) {
	sections, err := chunker.Chunk(doc.Text, opts.MaxSectionChars)
	if err != nil {
		if errors.Is(err, chunker.ErrEmptyDocument) {
			o.log.Info("pipeline.empty_document")
			return Output{}, nil
		}
		return Output{}, fmt.Errorf("chunk document: %w", err)
	}

	o.log.Info("pipeline.start",
		"sections", len(sections),
		"max_section_chars", opts.MaxSectionChars,
		"concurrency", opts.Concurrency,
		"continue_on_error", opts.ContinueOnError,
	)

	r := &run{
		orch:    o,
		opts:    opts,
		results: make([]sectionResult, len(sections)),
	}

	if opts.Concurrency > 1 {
		err = r.processConcurrent(ctx, sections)
	} else {
		err = r.processSequential(ctx, sections)
	}
	if err != nil {
		return Output{}, err
	}

	plain := make([]string, len(r.results))
	summary := make([]string, len(r.results))
	for i, res := range r.results {
		plain[i] = res.plain
		summary[i] = res.summary
	}
	out := Output{
		PlainEnglish: strings.Join(plain, "\n\n"),
		Summary:      strings.Join(summary, "\n\n"),
		Sections:     len(sections),
		Failures:     r.failures,
	}

	o.log.Info("pipeline.done",
		"sections", out.Sections,
		"failures", len(out.Failures),
		"plain_chars", len(out.PlainEnglish),
		"summary_chars", len(out.Summary),
	)
	return out, nil
}

func (r *run) processSequential(ctx context.Context, sections []chunker.Section) error {
	for i, section := range sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.processSection(ctx, section, &r.results[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) processConcurrent(ctx context.Context, sections []chunker.Section) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, r.opts.Concurrency)
	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	for i, section := range sections {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, section chunker.Section) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := r.processSection(ctx, section, &r.results[i]); err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i, section)
	}
	wg.Wait()
	return firstErr
}

// processSection issues the two completions for one section, writing into
// the section's own result slot. Failure markers replace the failed half
// under continue-on-error.
func (r *run) processSection(ctx context.Context, section chunker.Section, res *sectionResult) error {
	for _, mode := range []llm.Mode{llm.ModePlainEnglish, llm.ModeSummary} {
		prompt := llm.BuildPrompt(section, mode)

		// Advisory only: oversized single paragraphs are dispatched anyway,
		// the chunker budget is the sole enforcement point.
		if !llm.CheckTokenLimit(prompt, r.opts.Model) {
			r.orch.log.Warn("pipeline.section.token_budget_exceeded",
				"section", section.Index,
				"mode", string(mode),
				"estimated_tokens", llm.EstimateTokens(prompt),
			)
		}

		completion, err := r.orch.gateway.Complete(ctx, llm.CompletionRequest{
			Prompt:          prompt,
			Model:           r.opts.Model,
			MaxOutputTokens: r.opts.MaxOutputTokens,
		})
		if err != nil {
			if !r.opts.ContinueOnError {
				return &SectionError{Index: section.Index, Mode: mode, Err: err}
			}
			r.orch.log.Warn("pipeline.section.failed",
				"section", section.Index, "mode", string(mode), "error", err)
			r.mu.Lock()
			r.failures = append(r.failures, SectionFailure{Index: section.Index, Mode: mode, Err: err.Error()})
			r.mu.Unlock()
			res.set(mode, fmt.Sprintf("[SECTION %d FAILED]", section.Index+1))
			continue
		}

		r.orch.log.Info("pipeline.section.ok",
			"section", section.Index, "mode", string(mode), "chars", len(completion.Text))
		res.set(mode, completion.Text)
	}
	return nil
}

func (sr *sectionResult) set(mode llm.Mode, text string) {
	if mode == llm.ModeSummary {
		sr.summary = text
	} else {
		sr.plain = text
	}
}
