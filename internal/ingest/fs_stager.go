package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedExt = errors.New("unsupported or missing extension")
	ErrNameConflict   = errors.New("a different file with the same name is already staged")
)

// FSStager reads from the local filesystem. Files are flattened into dstDir by base name.
type FSStager struct {
	logger *slog.Logger
}

func NewFSStager(logger *slog.Logger) *FSStager {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStager{logger: logger}
}

func (s *FSStager) StagePath(ctx context.Context, src, dstDir string, move bool) (StageResult, error) {
	out := StageResult{SourcePath: src}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return out, err
	}
	if !AllowedExt(filepath.Ext(abs)) {
		s.logger.Debug("ingest.skip", "path", abs, "reason", "extension")
		return out, fmt.Errorf("%w: %q", ErrUnsupportedExt, filepath.Ext(abs))
	}

	sum, err := hashFile(abs)
	if err != nil {
		return out, err
	}
	out.HashHex = sum

	dst := filepath.Join(dstDir, filepath.Base(abs))
	out.StagedPath = dst
	if _, err := os.Stat(dst); err == nil {
		existing, herr := hashFile(dst)
		if herr == nil && existing == sum {
			out.Deduplicated = true
			if move {
				_ = os.Remove(abs)
			}
			s.logger.Info("ingest.dedup", "path", abs, "hash", sum)
			return out, nil
		}
		return out, fmt.Errorf("%w: %s", ErrNameConflict, filepath.Base(abs))
	}

	if move {
		err = moveFile(abs, dst)
	} else {
		err = copyFile(abs, dst)
	}
	if err != nil {
		s.logger.Error("ingest.stage.failed", "path", abs, "error", err)
		return out, err
	}
	s.logger.Debug("ingest.stage.ok", "path", abs, "dst", dst, "move", move)
	return out, nil
}

// StageDirectory walks root, skips hidden if requested, and stages each PDF.
// Returns per-file results + aggregate stats.
func (s *FSStager) StageDirectory(ctx context.Context, root, dstDir string, skipHidden bool) ([]StageResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}
	rootAbs, _ := filepath.Abs(root)
	dstAbs, _ := filepath.Abs(dstDir)

	var results []StageResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, StageResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if d.IsDir() {
			abs, _ := filepath.Abs(path)
			if abs == dstAbs && abs != rootAbs {
				return filepath.SkipDir
			}
			if skipHidden && path != root && IsHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if skipHidden && IsHidden(path) {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := s.StagePath(ctx, path, dstDir, false)
		if err != nil {
			results = append(results, StageResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	s.logger.Info("ingest.directory.done", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched, "succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated, "failed", stats.Failed)
	return results, stats, nil
}
