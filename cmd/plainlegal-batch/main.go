package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/plainlegal/plainlegal/internal/common"
	"github.com/plainlegal/plainlegal/internal/core"
	"github.com/plainlegal/plainlegal/internal/export"
	"github.com/plainlegal/plainlegal/internal/ingest"
	"github.com/plainlegal/plainlegal/internal/llm/novita"
	"github.com/plainlegal/plainlegal/internal/pipeline"
	"github.com/plainlegal/plainlegal/internal/reader"
	"github.com/plainlegal/plainlegal/internal/writer"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in              = flag.String("in", "", "input folder with pdf/docx/txt documents (required)")
		out             = flag.String("out", "", "output folder for rendered DOCX artifacts (default: <in>/processed)")
		maxChars        = flag.Int("max-chars", 0, "per-section character budget (default from MAX_SECTION_CHARS)")
		model           = flag.String("model", "", "completion model override")
		continueOnError = flag.Bool("continue-on-error", false, "keep going after a section fails, marking the gap")
		concurrency     = flag.Int("concurrency", 0, "sections in flight per document (default from PIPELINE_CONCURRENCY)")
		watch           = flag.Bool("watch", false, "keep watching the input folder for new documents")
		report          = flag.String("report", "", "write an XLSX run report to this path (empty disables)")
	)
	flag.Parse()

	if *in == "" {
		printError("Error: -in is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(*in, "processed")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		printError("Error: NOVITA_OPENAI_API_KEY is required\n")
		os.Exit(2)
	}

	opts := pipeline.Options{
		MaxSectionChars: cfg.Pipeline.MaxSectionChars,
		MaxOutputTokens: cfg.Pipeline.MaxOutputTokens,
		Concurrency:     cfg.Pipeline.Concurrency,
		ContinueOnError: cfg.Pipeline.ContinueOnError,
	}
	if *maxChars > 0 {
		opts.MaxSectionChars = *maxChars
	}
	if *model != "" {
		opts.Model = *model
	}
	if *concurrency > 0 {
		opts.Concurrency = *concurrency
	}
	if *continueOnError {
		opts.ContinueOnError = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := novita.NewClient(novita.Config{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		MaxRetries: cfg.LLM.MaxRetries,
		BaseDelay:  cfg.LLM.BaseDelay,
		Timeout:    cfg.LLM.Timeout,
	}, logger)

	wr, err := writer.New(*out, logger)
	if err != nil {
		logger.Error("failed to prepare output folder", "dir", *out, "error", err)
		os.Exit(1)
	}
	processor := core.NewProcessor(logger, reader.New(logger), pipeline.New(gateway, logger), wr)

	logger.Info("scanning input folder", "dir", *in)
	files, stats, err := ingest.ListDocuments(*in, nil, true)
	if err != nil {
		logger.Error("failed to scan input folder", "dir", *in, "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	var results []export.DocumentResult
	processed := 0
	failures := 0
	skipped := 0

	processOne := func(path string) {
		name := filepath.Base(path)
		res, err := processor.ProcessDocument(ctx, path, name, opts)
		row := export.DocumentResult{Filename: name}
		if err != nil {
			logger.Error("document failed", "file", name, "error", err)
			row.Status = "ERROR"
			row.Error = err.Error()
			failures++
		} else {
			row.Status = "COMPLETED"
			row.Sections = res.Sections
			row.Failures = len(res.Failures)
			row.PlainPath = res.PlainPath
			row.SummaryPath = res.SummaryPath
			row.Elapsed = res.Elapsed
			processed++
		}
		results = append(results, row)
	}

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if f.Err != "" {
			logger.Error("skipping unreadable file", "file", f.Path, "error", f.Err)
			failures++
			continue
		}
		if f.Deduplicated {
			logger.Info("skipping duplicate content", "file", f.Path)
			skipped++
			continue
		}
		processOne(f.Path)
	}

	if *report != "" {
		xlsx, err := export.NewService(logger).RunReportXLSX(results)
		if err != nil {
			logger.Error("failed to build run report", "error", err)
		} else if err := os.WriteFile(*report, xlsx, 0o644); err != nil {
			logger.Error("failed to write run report", "path", *report, "error", err)
		} else {
			logger.Info("run report written", "path", *report)
		}
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Duplicates skipped: %d\n", skipped)
	fmt.Printf("- Output: %s\n", *out)

	if !*watch {
		if failures > 0 {
			os.Exit(1)
		}
		return
	}

	logger.Info("watching for new documents", "dir", *in)
	events, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Roots:    []string{*in},
		Debounce: 500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "dir", *in, "error", err)
		os.Exit(1)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Error("watch error", "error", err)
		case path, ok := <-events:
			if !ok {
				return
			}
			// Outputs land under the input tree in the default layout;
			// never re-ingest our own artifacts.
			if rel, err := filepath.Rel(*out, path); err == nil && filepath.IsLocal(rel) {
				continue
			}
			logger.Info("new document detected", "file", path)
			processOne(path)
		}
	}
}
