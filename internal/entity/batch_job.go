package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
)

// BatchJob represents a batch job for data transfer between layers.
type BatchJob struct {
	ID           uuid.UUID           `json:"id"`
	Status       constants.JobStatus `json:"status"`
	Progress     int                 `json:"progress"`
	WorkDir      string              `json:"work_dir"`
	Rename       bool                `json:"rename"`
	ArchivePath  *string             `json:"archive_path,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	Documents    int                 `json:"documents"`
	Individuals  int                 `json:"individuals"`
	Companies    int                 `json:"companies"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}
