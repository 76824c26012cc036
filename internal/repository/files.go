package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/plainlegal/plainlegal/constants"
	"github.com/plainlegal/plainlegal/internal/common"
)

// JobFile is one uploaded document inside a job.
type JobFile struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	Filename    string
	SourcePath  string
	Status      constants.FileStatus
	Error       string
	PlainPath   string
	SummaryPath string
}

type FileRepository interface {
	CreateFile(ctx context.Context, jobID uuid.UUID, filename, sourcePath string) (*JobFile, error)
	GetFile(ctx context.Context, id uuid.UUID) (*JobFile, error)
	ListJobFiles(ctx context.Context, jobID uuid.UUID) ([]*JobFile, error)
	UpdateFileStatus(ctx context.Context, id uuid.UUID, status constants.FileStatus, errMsg string) error
	SetFileOutputs(ctx context.Context, id uuid.UUID, plainPath, summaryPath string) error
}

type fileRepo struct {
	store *Store
	log   *slog.Logger
}

func NewFileRepository(store *Store, log *slog.Logger) FileRepository {
	if log == nil {
		log = slog.Default()
	}
	return &fileRepo{store: store, log: log}
}

func (r *fileRepo) CreateFile(ctx context.Context, jobID uuid.UUID, filename, sourcePath string) (*JobFile, error) {
	f := &JobFile{
		ID:         uuid.New(),
		JobID:      jobID,
		Filename:   filename,
		SourcePath: sourcePath,
		Status:     constants.FileStatusQueued,
	}
	_, err := r.store.DB.ExecContext(ctx, r.store.rebind(
		`INSERT INTO job_files (id, job_id, filename, source_path, status)
		 VALUES (?, ?, ?, ?, ?)`),
		f.ID.String(), f.JobID.String(), f.Filename, f.SourcePath, string(f.Status))
	if err != nil {
		r.log.Error("file.create.failed", "job_id", jobID, "filename", filename, "err", err)
		return nil, common.WrapError(err, "failed to create job file")
	}
	return f, nil
}

const fileColumns = `id, job_id, filename, source_path, status, error, plain_path, summary_path`

func scanFile(scan func(...any) error) (*JobFile, error) {
	var (
		f      JobFile
		id     string
		jobID  string
		status string
	)
	if err := scan(&id, &jobID, &f.Filename, &f.SourcePath, &status,
		&f.Error, &f.PlainPath, &f.SummaryPath); err != nil {
		return nil, err
	}
	var err error
	if f.ID, err = uuid.Parse(id); err != nil {
		return nil, common.NewAppError("INTERNAL", "corrupt file id", err)
	}
	if f.JobID, err = uuid.Parse(jobID); err != nil {
		return nil, common.NewAppError("INTERNAL", "corrupt file job id", err)
	}
	f.Status = constants.FileStatus(status)
	return &f, nil
}

func (r *fileRepo) GetFile(ctx context.Context, id uuid.UUID) (*JobFile, error) {
	row := r.store.DB.QueryRowContext(ctx, r.store.rebind(
		`SELECT `+fileColumns+` FROM job_files WHERE id = ?`), id.String())
	f, err := scanFile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", "file not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to load file")
	}
	return f, nil
}

func (r *fileRepo) ListJobFiles(ctx context.Context, jobID uuid.UUID) ([]*JobFile, error) {
	rows, err := r.store.DB.QueryContext(ctx, r.store.rebind(
		`SELECT `+fileColumns+` FROM job_files WHERE job_id = ? ORDER BY filename`), jobID.String())
	if err != nil {
		return nil, common.WrapError(err, "failed to list job files")
	}
	defer rows.Close()

	var files []*JobFile
	for rows.Next() {
		f, err := scanFile(rows.Scan)
		if err != nil {
			return nil, common.WrapError(err, "failed to scan job file")
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "failed to iterate job files")
	}
	return files, nil
}

func (r *fileRepo) UpdateFileStatus(ctx context.Context, id uuid.UUID, status constants.FileStatus, errMsg string) error {
	res, err := r.store.DB.ExecContext(ctx, r.store.rebind(
		`UPDATE job_files SET status = ?, error = ? WHERE id = ?`),
		string(status), errMsg, id.String())
	if err != nil {
		r.log.Error("file.update_status.failed", "file_id", id, "err", err)
		return common.WrapError(err, "failed to update file")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("NOT_FOUND", "file not found", common.ErrNotFound)
	}
	r.log.Info("file.status", "file_id", id, "status", status)
	return nil
}

func (r *fileRepo) SetFileOutputs(ctx context.Context, id uuid.UUID, plainPath, summaryPath string) error {
	res, err := r.store.DB.ExecContext(ctx, r.store.rebind(
		`UPDATE job_files SET plain_path = ?, summary_path = ? WHERE id = ?`),
		plainPath, summaryPath, id.String())
	if err != nil {
		return common.WrapError(err, "failed to record file outputs")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("NOT_FOUND", "file not found", common.ErrNotFound)
	}
	return nil
}
