package ingest

import (
	"context"
)

// StageResult is the per-file staging outcome.
type StageResult struct {
	SourcePath   string
	StagedPath   string
	HashHex      string
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory staging run.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Stager copies or moves candidate reports into a batch working directory.
type Stager interface {
	// StagePath stages a single file into dstDir.
	StagePath(ctx context.Context, src, dstDir string, move bool) (StageResult, error)
	// StageDirectory stages every PDF under root into dstDir.
	StageDirectory(ctx context.Context, root, dstDir string, skipHidden bool) ([]StageResult, DirStats, error)
}
