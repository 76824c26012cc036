package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/plainlegal/plainlegal/constants"
	"github.com/plainlegal/plainlegal/internal/common"
	"github.com/plainlegal/plainlegal/internal/core"
	"github.com/plainlegal/plainlegal/internal/repository"
)

// Worker turns one queued job file into its two DOCX artifacts and keeps
// the job/file rows honest about progress.
type Worker struct {
	jobs      repository.JobRepository
	files     repository.FileRepository
	processor *core.Processor
	logger    *slog.Logger
}

func NewWorker(jobs repository.JobRepository, files repository.FileRepository, processor *core.Processor, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{jobs: jobs, files: files, processor: processor, logger: logger}
}

// ProcessFile is the async.ProcessFunc for the worker queue. A per-file
// failure marks the row ERROR; the job still completes when every file
// has been accounted for.
func (w *Worker) ProcessFile(ctx context.Context, fileID uuid.UUID) error {
	f, err := w.files.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if f.Status != constants.FileStatusQueued {
		w.logger.Warn("worker.file.skipped", "file_id", fileID, "status", f.Status)
		return nil
	}

	job, err := w.jobs.GetJob(ctx, f.JobID)
	if err != nil {
		return err
	}
	if job.Status == constants.JobStatusQueued {
		if err := w.jobs.UpdateJobStatus(ctx, job.ID, constants.JobStatusProcessing, ""); err != nil {
			return err
		}
	}

	var opts UploadOptions
	if err := json.Unmarshal([]byte(job.Options), &opts); err != nil {
		w.logger.Error("worker.options.corrupt", "job_id", job.ID, "err", err)
		opts = UploadOptions{}
	}

	if err := w.files.UpdateFileStatus(ctx, f.ID, constants.FileStatusProcessing, ""); err != nil {
		return err
	}

	ctx = common.WithJobID(ctx, job.ID.String())
	res, procErr := w.processor.ProcessDocument(ctx, f.SourcePath, f.Filename, opts.Pipeline())
	if procErr != nil {
		w.logger.Error("worker.file.failed", "file_id", f.ID, "filename", f.Filename, "err", procErr)
		if err := w.files.UpdateFileStatus(ctx, f.ID, constants.FileStatusError, procErr.Error()); err != nil {
			return err
		}
	} else {
		if err := w.files.SetFileOutputs(ctx, f.ID, res.PlainPath, res.SummaryPath); err != nil {
			return err
		}
		if err := w.files.UpdateFileStatus(ctx, f.ID, constants.FileStatusCompleted, ""); err != nil {
			return err
		}
	}

	completed, total, err := w.jobs.IncrementCompleted(ctx, job.ID)
	if err != nil {
		return err
	}
	if completed >= total {
		if err := w.jobs.UpdateJobStatus(ctx, job.ID, constants.JobStatusCompleted, ""); err != nil {
			return err
		}
		w.logger.Info("worker.job.completed", "job_id", job.ID, "files", total)
	}
	return procErr
}
