package batch

import (
	"context"
	"os"
	"time"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/ingest"
)

type InboxConfig struct {
	Dir         string
	Debounce    time.Duration
	Rename      bool
	InitialScan bool
}

// WatchInbox turns every quiet-period burst of PDFs dropped into cfg.Dir into one batch.
// Files are moved out of the inbox before the batch is queued. It returns when ctx ends.
func (s *Service) WatchInbox(ctx context.Context, cfg InboxConfig) error {
	bursts, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Dir},
		InitialScan: cfg.InitialScan,
		Debounce:    cfg.Debounce,
		Logger:      s.logger,
	})
	if err != nil {
		return err
	}
	s.logger.Info("inbox.watching", "dir", cfg.Dir, "debounce", cfg.Debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("inbox.watch.error", "error", err)
		case paths, ok := <-bursts:
			if !ok {
				return nil
			}
			s.submitBurst(ctx, paths, cfg.Rename)
		}
	}
}

func (s *Service) submitBurst(ctx context.Context, paths []string, rename bool) {
	workDir, err := s.NewWorkDir()
	if err != nil {
		s.logger.Error("inbox.workdir.failed", "error", err)
		return
	}
	staged := 0
	for _, p := range paths {
		r, err := s.stager.StagePath(ctx, p, workDir, true)
		if err != nil {
			s.logger.Warn("inbox.stage.failed", "path", p, "error", err)
			continue
		}
		if !r.Deduplicated {
			staged++
		}
	}
	if staged == 0 {
		_ = os.RemoveAll(workDir)
		return
	}
	job, err := s.SubmitStaged(ctx, workDir, rename)
	if err != nil {
		s.logger.Error("inbox.submit.failed", "work_dir", workDir, "error", err)
		return
	}
	s.logger.Info("inbox.batch.submitted", "batch_id", job.ID, "files", staged)
}
