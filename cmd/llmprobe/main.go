// llmprobe sends one prompt through the completion gateway and streams
// the response to stdout. Useful for checking credentials, model names
// and latency without touching the pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/plainlegal/plainlegal/internal/chunker"
	"github.com/plainlegal/plainlegal/internal/common"
	"github.com/plainlegal/plainlegal/internal/llm"
	"github.com/plainlegal/plainlegal/internal/llm/novita"
)

func main() {
	var (
		model   = flag.String("model", "", "completion model override")
		mode    = flag.String("mode", "plain", "prompt template: plain or summary")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall deadline")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		logger.Error("usage: llmprobe [-model m] [-mode plain|summary] <legal text>")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("NOVITA_OPENAI_API_KEY env var is required")
		os.Exit(2)
	}

	section := chunker.Section{Text: text, Heading: "Full Document"}

	var prompt string
	switch *mode {
	case "plain":
		prompt = llm.BuildPlainEnglishPrompt(section)
	case "summary":
		prompt = llm.BuildSummaryPrompt(section)
	default:
		logger.Error("mode must be plain or summary", "mode", *mode)
		os.Exit(2)
	}

	est := llm.EstimateTokens(prompt)
	logger.Info("probe starting",
		"model", cfg.LLM.Model,
		"estimated_tokens", est,
		"within_limit", llm.CheckTokenLimit(prompt, cfg.LLM.Model))

	client := novita.NewClient(novita.Config{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		MaxRetries: cfg.LLM.MaxRetries,
		BaseDelay:  cfg.LLM.BaseDelay,
		Timeout:    cfg.LLM.Timeout,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	out, err := client.Complete(ctx, llm.CompletionRequest{
		Prompt:   prompt,
		Model:    *model,
		Stream:   true,
		StreamTo: os.Stdout,
	})
	fmt.Println()
	if err != nil {
		logger.Error("probe failed", "error", err)
		os.Exit(1)
	}
	logger.Info("probe complete",
		"model", out.Model,
		"chars", len(out.Text),
		"elapsed_ms", time.Since(start).Milliseconds())
}
