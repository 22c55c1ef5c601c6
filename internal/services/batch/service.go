package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/async"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/common"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/core"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/export"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/ingest"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/repository"
)

var (
	ErrNotReady     = errors.New("batch archive not ready")
	ErrNoReports    = errors.New("no pdf files to process")
	ErrSmallArchive = errors.New("archive smaller than expected")
)

type Config struct {
	WorkRoot        string
	SpreadsheetName string
	ArchiveName     string
	MinArchiveBytes int64 // 0 disables the size check
	RenameDefault   bool
	SourceRoots     []string // where SourceDir and Files may point; empty disables path submissions
}

// Service handles batch submission, execution and retrieval.
type Service struct {
	cfg    Config
	stager ingest.Stager
	jobs   repository.BatchJobRepository
	proc   *core.Processor
	writer *export.Writer
	queue  async.Queue
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewService creates a batch service. The queue is attached separately with SetQueue
// because the queue itself runs jobs through the service.
func NewService(cfg Config, stager ingest.Stager, jobs repository.BatchJobRepository, proc *core.Processor, writer *export.Writer, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SpreadsheetName == "" {
		cfg.SpreadsheetName = constants.DefaultSpreadsheetName
	}
	if cfg.ArchiveName == "" {
		cfg.ArchiveName = constants.DefaultArchiveName
	}
	schema, err := common.CompileSchema("submit_request.json", submitSchema)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:    cfg,
		stager: stager,
		jobs:   jobs,
		proc:   proc,
		writer: writer,
		schema: schema,
		logger: logger,
	}, nil
}

func (s *Service) SetQueue(q async.Queue) { s.queue = q }

// SubmitRequest names the reports of a new batch: a directory to copy from, explicit files,
// or both.
type SubmitRequest struct {
	SourceDir string   `json:"source_dir,omitempty"`
	Files     []string `json:"files,omitempty"`
	Rename    *bool    `json:"rename,omitempty"`
	Move      bool     `json:"move,omitempty"` // move Files instead of copying them
}

var submitSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"source_dir": map[string]any{"type": "string", "minLength": 1},
		"files": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
		"rename": map[string]any{"type": "boolean"},
		"move":   map[string]any{"type": "boolean"},
	},
	"anyOf": []any{
		map[string]any{"required": []any{"source_dir"}},
		map[string]any{"required": []any{"files"}},
	},
}

// SubmitJSON validates a raw JSON request and submits it.
func (s *Service) SubmitJSON(ctx context.Context, raw []byte) (*entity.BatchJob, error) {
	if err := common.ValidateJSON(s.schema, raw); err != nil {
		s.logger.Warn("batch.submit.invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	var req SubmitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return s.Submit(ctx, req)
}

// Submit stages the requested PDFs into a fresh working directory and queues the batch.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*entity.BatchJob, error) {
	req.SourceDir = strings.TrimSpace(req.SourceDir)
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := common.ValidateJSON(s.schema, raw); err != nil {
		s.logger.Warn("batch.submit.invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	within := common.WithinRoots(s.cfg.SourceRoots...)
	v := common.NewValidator().Field("source_dir", req.SourceDir, common.ExistingDir, within)
	for i, f := range req.Files {
		v.Field(fmt.Sprintf("files[%d]", i), f, common.Required, within)
	}
	if err := v.Error(); err != nil {
		s.logger.Warn("batch.submit.rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if s.queue == nil {
		return nil, fmt.Errorf("%w: queue not attached", common.ErrInternal)
	}

	id := uuid.New()
	workDir := filepath.Join(s.cfg.WorkRoot, id.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, common.WrapError(err, "create work dir")
	}

	staged, err := s.stage(ctx, req, workDir)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}
	if staged == 0 {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, ErrNoReports)
	}

	return s.enqueue(ctx, id, workDir, s.rename(req.Rename))
}

// Upload is one report received in a request body.
type Upload struct {
	Name string
	Body io.Reader
}

// SubmitUploads writes uploaded reports into a fresh working directory and queues the batch.
// Names must be plain file names; non-PDF uploads are skipped.
func (s *Service) SubmitUploads(ctx context.Context, uploads []Upload, rename *bool) (*entity.BatchJob, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, ErrNoReports)
	}
	v := common.NewValidator()
	for i, u := range uploads {
		v.Field(fmt.Sprintf("files[%d]", i), u.Name, common.Required, common.BaseName)
	}
	if err := v.Error(); err != nil {
		s.logger.Warn("batch.upload.rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if s.queue == nil {
		return nil, fmt.Errorf("%w: queue not attached", common.ErrInternal)
	}

	workDir, err := s.NewWorkDir()
	if err != nil {
		return nil, err
	}
	staged := 0
	for _, u := range uploads {
		if !constants.IsPDFExt(filepath.Ext(u.Name)) {
			s.logger.Info("batch.upload.skipped", "name", u.Name)
			continue
		}
		if err := writeUpload(filepath.Join(workDir, u.Name), u.Body); err != nil {
			_ = os.RemoveAll(workDir)
			if errors.Is(err, fs.ErrExist) {
				return nil, fmt.Errorf("%w: duplicate file name %q", common.ErrInvalidInput, u.Name)
			}
			return nil, common.WrapError(err, "store upload")
		}
		staged++
	}
	if staged == 0 {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, ErrNoReports)
	}
	return s.SubmitStaged(ctx, workDir, s.rename(rename))
}

func writeUpload(path string, body io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (s *Service) rename(override *bool) bool {
	if override != nil {
		return *override
	}
	return s.cfg.RenameDefault
}

// SubmitStaged queues a directory that already holds the batch's files, as the inbox
// watcher produces.
func (s *Service) SubmitStaged(ctx context.Context, workDir string, rename bool) (*entity.BatchJob, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("%w: queue not attached", common.ErrInternal)
	}
	id, err := uuid.Parse(filepath.Base(workDir))
	if err != nil {
		id = uuid.New()
	}
	return s.enqueue(ctx, id, workDir, rename)
}

// NewWorkDir creates an empty working directory under the work root.
func (s *Service) NewWorkDir() (string, error) {
	dir := filepath.Join(s.cfg.WorkRoot, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

func (s *Service) stage(ctx context.Context, req SubmitRequest, workDir string) (int, error) {
	staged := 0
	if req.SourceDir != "" {
		_, stats, err := s.stager.StageDirectory(ctx, req.SourceDir, workDir, true)
		if err != nil {
			return 0, common.WrapError(err, "stage directory")
		}
		staged += int(stats.Succeeded - stats.Deduplicated)
	}
	for _, f := range req.Files {
		r, err := s.stager.StagePath(ctx, f, workDir, req.Move)
		if err != nil {
			s.logger.Warn("batch.stage.file.failed", "path", f, "error", err)
			continue
		}
		if !r.Deduplicated {
			staged++
		}
	}
	return staged, nil
}

func (s *Service) enqueue(ctx context.Context, id uuid.UUID, workDir string, rename bool) (*entity.BatchJob, error) {
	job, err := s.jobs.Create(ctx, id, workDir, rename)
	if err != nil {
		return nil, fmt.Errorf("%w: create job: %v", common.ErrDatabase, err)
	}
	if err := s.queue.Enqueue(ctx, async.Job{BatchID: job.ID, WorkDir: workDir, Rename: rename, SubmittedAt: time.Now()}); err != nil {
		_ = s.jobs.Fail(ctx, job.ID, err.Error())
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	s.logger.Info("batch.submitted", "batch_id", job.ID, "work_dir", workDir, "rename", rename)
	return job, nil
}

// Get returns the job record for id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.BatchJob, error) {
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, repository.ErrJobNotFound) {
		return nil, fmt.Errorf("%w: batch %s", common.ErrNotFound, id)
	}
	return job, err
}

func (s *Service) List(ctx context.Context, limit int) ([]*entity.BatchJob, error) {
	return s.jobs.List(ctx, limit)
}

// ArchivePath returns the finished archive of a completed batch.
func (s *Service) ArchivePath(ctx context.Context, id uuid.UUID) (string, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != constants.JobStatusCompleted || job.ArchivePath == nil {
		return "", fmt.Errorf("%w: status %s", ErrNotReady, job.Status)
	}
	if _, err := os.Stat(*job.ArchivePath); err != nil {
		return "", fmt.Errorf("%w: archive already removed", common.ErrNotFound)
	}
	return *job.ArchivePath, nil
}

// Cleanup deletes the batch working directory.
func (s *Service) Cleanup(ctx context.Context, id uuid.UUID) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(job.WorkDir); err != nil {
		s.logger.Warn("batch.cleanup.failed", "batch_id", id, "error", err)
		return err
	}
	s.logger.Info("batch.cleanup.ok", "batch_id", id, "work_dir", job.WorkDir)
	return nil
}
