package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/services/batch"
)

// BatchService is what the transports need from the batch runner.
type BatchService interface {
	SubmitJSON(ctx context.Context, raw []byte) (*entity.BatchJob, error)
	SubmitUploads(ctx context.Context, uploads []batch.Upload, rename *bool) (*entity.BatchJob, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.BatchJob, error)
	List(ctx context.Context, limit int) ([]*entity.BatchJob, error)
	ArchivePath(ctx context.Context, id uuid.UUID) (string, error)
	Cleanup(ctx context.Context, id uuid.UUID) error
}

// jobView is the wire shape of a job on both transports. The working directory stays private.
func jobView(j *entity.BatchJob) map[string]any {
	out := map[string]any{
		"id":          j.ID.String(),
		"status":      string(j.Status),
		"progress":    j.Progress,
		"rename":      j.Rename,
		"documents":   j.Documents,
		"individuals": j.Individuals,
		"companies":   j.Companies,
		"created_at":  j.CreatedAt.UTC().Format(timeLayout),
		"updated_at":  j.UpdatedAt.UTC().Format(timeLayout),
	}
	if j.ErrorMessage != nil {
		out["error"] = *j.ErrorMessage
	}
	if j.FinishedAt != nil {
		out["finished_at"] = j.FinishedAt.UTC().Format(timeLayout)
	}
	return out
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"
