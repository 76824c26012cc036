// Package core coordinates the read -> chunk/LLM -> write flow for one
// document.
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/plainlegal/plainlegal/internal/common"
	"github.com/plainlegal/plainlegal/internal/pipeline"
	"github.com/plainlegal/plainlegal/internal/reader"
	"github.com/plainlegal/plainlegal/internal/writer"
)

// Processor runs the full conversion for a single document: read the source,
// drive the two LLM passes, render both artifacts.
type Processor struct {
	Logger       *slog.Logger
	Reader       *reader.Reader
	Orchestrator *pipeline.Orchestrator
	Writer       *writer.Writer
}

func NewProcessor(logger *slog.Logger, rd *reader.Reader, orch *pipeline.Orchestrator, wr *writer.Writer) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Reader: rd, Orchestrator: orch, Writer: wr}
}

// Result summarizes one processed document.
type Result struct {
	Sections    int
	InputChars  int
	PlainPath   string
	SummaryPath string
	Failures    []pipeline.SectionFailure
	Elapsed     time.Duration
}

// ProcessDocument reads the file at path (originalName carries the format
// extension and names the outputs), runs both passes and writes both DOCX
// artifacts. An empty document completes with empty artifacts.
func (p *Processor) ProcessDocument(ctx context.Context, path, originalName string, opts pipeline.Options) (Result, error) {
	start := time.Now()

	doc, err := p.Reader.Read(path, originalName)
	if err != nil {
		p.Logger.Error("processor.read.failed", "name", originalName, "err", err)
		return Result{}, err
	}

	out, err := p.Orchestrator.Process(ctx, doc, opts)
	if err != nil {
		p.Logger.Error("processor.pipeline.failed", "name", originalName, "err", err)
		return Result{}, err
	}

	for _, kind := range []string{"plainEnglish", "summary"} {
		content := out.PlainEnglish
		if kind == "summary" {
			content = out.Summary
		}
		if v := pipeline.ValidateOutput(content); !v.Valid || len(v.Warnings) > 0 {
			p.Logger.Warn("processor.output.suspect",
				"name", originalName, "kind", kind,
				"warnings", v.Warnings, "errors", v.Errors)
		}
	}

	plainPath, err := p.Writer.WriteDOCX(out.PlainEnglish, writer.OutputFilename(originalName, "plainEnglish", "docx"))
	if err != nil {
		return Result{}, err
	}
	summaryPath, err := p.Writer.WriteDOCX(out.Summary, writer.OutputFilename(originalName, "summary", "docx"))
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Sections:    out.Sections,
		InputChars:  len(doc.Text),
		PlainPath:   plainPath,
		SummaryPath: summaryPath,
		Failures:    out.Failures,
		Elapsed:     time.Since(start),
	}
	log := p.Logger
	if jobID := common.JobIDFromContext(ctx); jobID != "" {
		log = log.With("job_id", jobID)
	}
	log.Info("processor.document.ok",
		"name", originalName,
		"sections", res.Sections,
		"failures", len(res.Failures),
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res, nil
}
