// Package server exposes the upload/status/download HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/plainlegal/plainlegal/constants"
	"github.com/plainlegal/plainlegal/internal/async"
	"github.com/plainlegal/plainlegal/internal/common"
	"github.com/plainlegal/plainlegal/internal/repository"
)

const (
	maxUploadBytes  = 256 << 20 // whole multipart request
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type Server struct {
	jobs      repository.JobRepository
	files     repository.FileRepository
	queue     async.Queue
	uploadDir string
	logger    *slog.Logger
}

func New(jobs repository.JobRepository, files repository.FileRepository, queue async.Queue, uploadDir string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Server{jobs: jobs, files: files, queue: queue, uploadDir: uploadDir, logger: logger}, nil
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Get("/status/{jobID}", s.handleStatus)
	r.Get("/download/{fileID}/{kind}", s.handleDownload)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "plainlegal",
		"status":  "ok",
	})
}

type uploadResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	FileCount int    `json:"file_count"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form upload")
		return
	}

	opts, err := ParseUploadOptions([]byte(r.FormValue("options")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}
	for _, part := range parts {
		ext := constants.NormalizeExt(filepath.Ext(part.Filename))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("unsupported file type %q: allowed pdf, docx, txt", filepath.Base(part.Filename)))
			return
		}
	}

	optionsJSON, _ := json.Marshal(opts)
	job, err := s.jobs.CreateJob(r.Context(), string(optionsJSON), len(parts))
	if err != nil {
		s.logger.Error("upload.create_job.failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	for _, part := range parts {
		name := filepath.Base(part.Filename)
		dest := filepath.Join(s.uploadDir, job.ID.String()+"_"+name)
		if err := savePart(part, dest); err != nil {
			s.logger.Error("upload.save.failed", "job_id", job.ID, "filename", name, "err", err)
			_ = s.jobs.UpdateJobStatus(r.Context(), job.ID, constants.JobStatusFailed, "failed to store upload")
			writeError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}

		f, err := s.files.CreateFile(r.Context(), job.ID, name, dest)
		if err != nil {
			s.logger.Error("upload.create_file.failed", "job_id", job.ID, "filename", name, "err", err)
			_ = s.jobs.UpdateJobStatus(r.Context(), job.ID, constants.JobStatusFailed, "failed to register upload")
			writeError(w, http.StatusInternalServerError, "failed to register upload")
			return
		}
		_ = s.queue.Enqueue(r.Context(), async.Job{FileID: f.ID, SubmittedAt: time.Now()})
	}

	s.logger.Info("upload.accepted", "job_id", job.ID, "files", len(parts))
	writeJSON(w, http.StatusAccepted, uploadResponse{
		JobID:     job.ID.String(),
		Status:    string(job.Status),
		FileCount: len(parts),
	})
}

type fileStatusResponse struct {
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	PlainURL   string `json:"plain_url,omitempty"`
	SummaryURL string `json:"summary_url,omitempty"`
}

type jobStatusResponse struct {
	JobID          string               `json:"job_id"`
	Status         string               `json:"status"`
	TotalFiles     int                  `json:"total_files"`
	CompletedFiles int                  `json:"completed_files"`
	Error          string               `json:"error,omitempty"`
	StartedAt      string               `json:"started_at"`
	CompletedAt    string               `json:"completed_at,omitempty"`
	Files          []fileStatusResponse `json:"files"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "job id must be a UUID")
		return
	}

	job, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		writeRepoError(w, s.logger, err)
		return
	}
	files, err := s.files.ListJobFiles(r.Context(), jobID)
	if err != nil {
		writeRepoError(w, s.logger, err)
		return
	}

	resp := jobStatusResponse{
		JobID:          job.ID.String(),
		Status:         string(job.Status),
		TotalFiles:     job.TotalFiles,
		CompletedFiles: job.CompletedFiles,
		Error:          job.Error,
		StartedAt:      job.StartedAt.Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	for _, f := range files {
		fr := fileStatusResponse{
			FileID:   f.ID.String(),
			Filename: f.Filename,
			Status:   string(f.Status),
			Error:    f.Error,
		}
		if f.Status == constants.FileStatusCompleted {
			fr.PlainURL = "/download/" + f.ID.String() + "/plain"
			fr.SummaryURL = "/download/" + f.ID.String() + "/summary"
		}
		resp.Files = append(resp.Files, fr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "file id must be a UUID")
		return
	}
	kind := chi.URLParam(r, "kind")
	if kind != "plain" && kind != "summary" {
		writeError(w, http.StatusBadRequest, "kind must be plain or summary")
		return
	}

	f, err := s.files.GetFile(r.Context(), fileID)
	if err != nil {
		writeRepoError(w, s.logger, err)
		return
	}

	path := f.PlainPath
	if kind == "summary" {
		path = f.SummaryPath
	}
	if f.Status != constants.FileStatusCompleted || path == "" {
		writeError(w, http.StatusNotFound, "output not ready")
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func savePart(part *multipart.FileHeader, dest string) error {
	src, err := part.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeRepoError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, strings.TrimSpace(notFoundMessage(err)))
		return
	}
	logger.Error("server.repo.failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func notFoundMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "not found"
}
