package constants

// JobStatus is the canonical status for rows in jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued     JobStatus = "QUEUED"     // accepted, waiting for a worker
	JobStatusProcessing JobStatus = "PROCESSING" // at least one file in flight
	JobStatusCompleted  JobStatus = "COMPLETED"  // all files finished (some may have errored)
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure before per-file work
)

// FileStatus is the canonical status for rows in job_files.
type FileStatus string

const (
	FileStatusQueued     FileStatus = "QUEUED"
	FileStatusProcessing FileStatus = "PROCESSING"
	FileStatusCompleted  FileStatus = "COMPLETED"
	FileStatusError      FileStatus = "ERROR"
)
