package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/async"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/common"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/core"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/repository"
)

// Result is everything one executed batch produced.
type Result struct {
	Batch           *core.Batch
	SpreadsheetPath string
	ArchivePath     string
	ArchiveBytes    int64
}

// Execute processes dir, writes the workbook and archives the directory. progress, when
// non-nil, is called at each stage boundary.
func (s *Service) Execute(ctx context.Context, dir string, rename bool, progress func(int)) (*Result, error) {
	report := func(p int) {
		if progress != nil {
			progress(p)
		}
	}

	b, err := s.proc.ProcessBatch(ctx, dir, rename)
	if err != nil {
		return nil, err
	}
	report(constants.ProgressProcessed)

	xlsx := filepath.Join(dir, s.cfg.SpreadsheetName)
	if err := s.writer.WriteLedgers(b.Ledgers, xlsx); err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", err)
	}
	zipPath, err := s.writer.ArchiveDirectory(dir, s.cfg.ArchiveName)
	if err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}
	report(constants.ProgressExported)

	info, err := os.Stat(zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBatchOutput, err)
	}
	if info.Size() < s.cfg.MinArchiveBytes {
		return nil, fmt.Errorf("%w: %w: %d < %d bytes", common.ErrBatchOutput, ErrSmallArchive, info.Size(), s.cfg.MinArchiveBytes)
	}

	return &Result{
		Batch:           b,
		SpreadsheetPath: xlsx,
		ArchivePath:     zipPath,
		ArchiveBytes:    info.Size(),
	}, nil
}

// Handle runs a queued batch and records its lifecycle in the job store.
func (s *Service) Handle(ctx context.Context, job async.Job) error {
	start := time.Now()
	log := common.LoggerFromContext(common.WithBatchID(ctx, job.BatchID.String()), s.logger)

	setProgress := func(p int) {
		// Progress writes are best-effort; the terminal write below is what callers poll for.
		if err := s.jobs.SetProgress(context.WithoutCancel(ctx), job.BatchID, constants.JobStatusRunning, p); err != nil {
			log.Warn("batch.progress.failed", "progress", p, "error", err)
		}
	}
	setProgress(constants.ProgressStaged)

	res, err := s.Execute(ctx, job.WorkDir, job.Rename, setProgress)
	if err != nil {
		log.Error("batch.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		s.fail(ctx, job.BatchID, err)
		return err
	}

	out := repository.JobOutcome{
		ArchivePath: res.ArchivePath,
		Documents:   len(res.Batch.Documents),
		Individuals: len(res.Batch.Ledgers.Individuals),
		Companies:   len(res.Batch.Ledgers.Organizations),
	}
	if err := s.jobs.Complete(context.WithoutCancel(ctx), job.BatchID, out); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	log.Info("batch.completed",
		"documents", out.Documents,
		"individuals", out.Individuals,
		"organizations", out.Companies,
		"archive_bytes", res.ArchiveBytes,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *Service) fail(ctx context.Context, id uuid.UUID, cause error) {
	if err := s.jobs.Fail(context.WithoutCancel(ctx), id, cause.Error()); err != nil {
		s.logger.Error("batch.fail.record.failed", "batch_id", id, "error", err)
	}
}
