package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one staged batch directory waiting for processing.
type Job struct {
	BatchID     uuid.UUID
	WorkDir     string
	Rename      bool
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Handler runs a single job to completion.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

func (f HandlerFunc) Handle(ctx context.Context, job Job) error { return f(ctx, job) }
