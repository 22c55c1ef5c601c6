package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/common"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/core"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/export"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/pdftext"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg := common.LoadConfig()

	var (
		dir     = flag.String("dir", "", "directory of World-Check PDF reports to process in place (required)")
		rename  = flag.Bool("rename", cfg.Batch.RenameDefault, "rename reports by category and subject name")
		xlsx    = flag.String("xlsx", "", "output XLSX path (optional, defaults to <dir>/"+cfg.Batch.SpreadsheetName+")")
		zipName = flag.String("zip", "", "archive the directory into this file name inside it (optional)")
		backend = flag.String("backend", cfg.PDF.Backend, "pdf text backend: auto, native or pdftotext")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if info, err := os.Stat(*dir); err != nil || !info.IsDir() {
		printError("Error: --dir must be an existing directory\n")
		os.Exit(1)
	}
	if *xlsx == "" {
		*xlsx = filepath.Join(*dir, cfg.Batch.SpreadsheetName)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	text := pdftext.NewExtractor(pdftext.Config{
		Backend:   *backend,
		Pdftotext: cfg.PDF.Pdftotext,
		Validate:  cfg.PDF.Validate,
	}, logger)
	processor := core.NewProcessor(logger, text)
	writer := export.NewWriter(logger)

	start := time.Now()
	batch, err := processor.ProcessBatch(ctx, *dir, *rename)
	if err != nil {
		logger.Error("failed to process directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	if err := writer.WriteLedgers(batch.Ledgers, *xlsx); err != nil {
		logger.Error("failed to write spreadsheet", "output", *xlsx, "error", err)
		os.Exit(1)
	}

	var archive string
	if *zipName != "" {
		archive, err = writer.ArchiveDirectory(*dir, *zipName)
		if err != nil {
			logger.Error("failed to archive directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
	}

	s := batch.Stats
	logger.Info("batch processing complete",
		"scanned", s.Scanned,
		"discarded", s.Discarded,
		"individuals", s.Individuals,
		"organizations", s.Organizations,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Reports scanned: %d (discarded %d)\n", s.Scanned, s.Discarded)
	fmt.Printf("- Found / Case / No match: %d / %d / %d\n", s.Found, s.Cases, s.NoMatch)
	fmt.Printf("- Unreadable: %d\n", s.TextFailed)
	if *rename {
		fmt.Printf("- Renamed: %d (failed %d)\n", s.Renamed, s.RenameFailed)
	}
	fmt.Printf("- Individuals: %d, Organizations: %d\n", s.Individuals, s.Organizations)
	fmt.Printf("- Spreadsheet: %s\n", *xlsx)
	if archive != "" {
		fmt.Printf("- Archive: %s\n", archive)
	}
}
