package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plainlegal/plainlegal/constants"
	"github.com/plainlegal/plainlegal/internal/common"
)

const timeLayout = time.RFC3339Nano

// Job is one upload batch moving through the pipeline.
type Job struct {
	ID             uuid.UUID
	Status         constants.JobStatus
	Options        string // JSON options blob as submitted
	TotalFiles     int
	CompletedFiles int
	Error          string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

type JobRepository interface {
	CreateJob(ctx context.Context, options string, totalFiles int) (*Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus, errMsg string) error
	// IncrementCompleted bumps the finished-file counter and returns the
	// new count so the caller can detect batch completion.
	IncrementCompleted(ctx context.Context, id uuid.UUID) (completed, total int, err error)
}

type jobRepo struct {
	store *Store
	log   *slog.Logger
}

func NewJobRepository(store *Store, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{store: store, log: log}
}

func (r *jobRepo) CreateJob(ctx context.Context, options string, totalFiles int) (*Job, error) {
	if options == "" {
		options = "{}"
	}
	job := &Job{
		ID:         uuid.New(),
		Status:     constants.JobStatusQueued,
		Options:    options,
		TotalFiles: totalFiles,
		StartedAt:  time.Now().UTC(),
	}
	_, err := r.store.DB.ExecContext(ctx, r.store.rebind(
		`INSERT INTO jobs (id, status, options, total_files, completed_files, error, started_at)
		 VALUES (?, ?, ?, ?, 0, '', ?)`),
		job.ID.String(), string(job.Status), job.Options, job.TotalFiles,
		job.StartedAt.Format(timeLayout),
	)
	if err != nil {
		r.log.Error("job.create.failed", "err", err)
		return nil, common.WrapError(err, "failed to create job")
	}
	r.log.Info("job.created", "job_id", job.ID, "total_files", totalFiles)
	return job, nil
}

func (r *jobRepo) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := r.store.DB.QueryRowContext(ctx, r.store.rebind(
		`SELECT id, status, options, total_files, completed_files, error, started_at, completed_at
		 FROM jobs WHERE id = ?`), id.String())

	var (
		job         Job
		idStr       string
		status      string
		startedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(&idStr, &status, &job.Options, &job.TotalFiles,
		&job.CompletedFiles, &job.Error, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", "job not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to load job")
	}

	job.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, common.NewAppError("INTERNAL", "corrupt job id", err)
	}
	job.Status = constants.JobStatus(status)
	if job.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, common.NewAppError("INTERNAL", "corrupt job timestamp", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(timeLayout, completedAt.String)
		if err != nil {
			return nil, common.NewAppError("INTERNAL", "corrupt job timestamp", err)
		}
		job.CompletedAt = &t
	}
	return &job, nil
}

func (r *jobRepo) UpdateJobStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus, errMsg string) error {
	var completedAt any
	if status == constants.JobStatusCompleted || status == constants.JobStatusFailed {
		completedAt = time.Now().UTC().Format(timeLayout)
	}
	res, err := r.store.DB.ExecContext(ctx, r.store.rebind(
		`UPDATE jobs SET status = ?, error = ?, completed_at = ? WHERE id = ?`),
		string(status), errMsg, completedAt, id.String())
	if err != nil {
		r.log.Error("job.update_status.failed", "job_id", id, "err", err)
		return common.WrapError(err, "failed to update job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("NOT_FOUND", "job not found", common.ErrNotFound)
	}
	r.log.Info("job.status", "job_id", id, "status", status)
	return nil
}

func (r *jobRepo) IncrementCompleted(ctx context.Context, id uuid.UUID) (int, int, error) {
	_, err := r.store.DB.ExecContext(ctx, r.store.rebind(
		`UPDATE jobs SET completed_files = completed_files + 1 WHERE id = ?`), id.String())
	if err != nil {
		return 0, 0, common.WrapError(err, "failed to bump job counter")
	}
	var completed, total int
	err = r.store.DB.QueryRowContext(ctx, r.store.rebind(
		`SELECT completed_files, total_files FROM jobs WHERE id = ?`), id.String()).
		Scan(&completed, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, common.NewAppError("NOT_FOUND", "job not found", common.ErrNotFound)
	}
	if err != nil {
		return 0, 0, common.WrapError(err, "failed to load job counters")
	}
	return completed, total, nil
}
