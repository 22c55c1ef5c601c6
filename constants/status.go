package constants

// JobStatus is the canonical status for rows in batch_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED" // terminal failure
)

// Terminal reports whether no further transitions are expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Coarse progress checkpoints recorded by the batch runner.
const (
	ProgressQueued    = 0
	ProgressStaged    = 10
	ProgressProcessed = 60
	ProgressExported  = 90
	ProgressDone      = 100
)
