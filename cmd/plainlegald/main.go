package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plainlegal/plainlegal/internal/async"
	"github.com/plainlegal/plainlegal/internal/common"
	"github.com/plainlegal/plainlegal/internal/core"
	"github.com/plainlegal/plainlegal/internal/llm/novita"
	"github.com/plainlegal/plainlegal/internal/pipeline"
	"github.com/plainlegal/plainlegal/internal/reader"
	repo "github.com/plainlegal/plainlegal/internal/repository"
	"github.com/plainlegal/plainlegal/internal/server"
	"github.com/plainlegal/plainlegal/internal/writer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.Error("failed to open job store", "dsn", cfg.Database.DSN, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate job store", "error", err)
		os.Exit(1)
	}

	jobsRepo := repo.NewJobRepository(store, logger)
	filesRepo := repo.NewFileRepository(store, logger)

	gateway := novita.NewClient(novita.Config{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		MaxRetries: cfg.LLM.MaxRetries,
		BaseDelay:  cfg.LLM.BaseDelay,
		Timeout:    cfg.LLM.Timeout,
	}, logger)

	wr, err := writer.New(cfg.Paths.OutputDir, logger)
	if err != nil {
		logger.Error("failed to prepare output directory", "dir", cfg.Paths.OutputDir, "error", err)
		os.Exit(1)
	}
	processor := core.NewProcessor(logger, reader.New(logger), pipeline.New(gateway, logger), wr)
	worker := server.NewWorker(jobsRepo, filesRepo, processor, logger)

	queue := async.NewWorkerQueue(worker.ProcessFile, logger,
		async.WithWorkers(4),
		async.WithQueueSize(512),
		async.WithProcessTimeout(10*time.Minute),
	)

	srv, err := server.New(jobsRepo, filesRepo, queue, cfg.Paths.UploadDir, logger)
	if err != nil {
		logger.Error("failed to prepare upload directory", "dir", cfg.Paths.UploadDir, "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("plainlegald listening", "addr", cfg.Server.Addr, "model", cfg.LLM.Model)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}
