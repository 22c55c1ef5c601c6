// Package pdftext reads text out of PDF reports for screening and extraction.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Backend names accepted in Config.Backend.
const (
	BackendAuto      = "auto"      // native first, pdftotext on failure
	BackendNative    = "native"    // pure Go reader
	BackendPdftotext = "pdftotext" // poppler-utils binary
)

var (
	ErrNoPages        = errors.New("pdf has no pages")
	ErrUnknownBackend = errors.New("unknown pdf text backend")
)

type Config struct {
	Backend   string // see Backend* constants; if empty -> "auto"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Validate  bool   // run structural validation before screening
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return newExtractor(cfg, execRunner{}, logger)
}

func newExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendAuto
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// FirstPageText returns the text of page one. Any failure means the file is not a usable report.
func (e *Extractor) FirstPageText(ctx context.Context, path string) (string, error) {
	start := time.Now()
	if e.cfg.Validate {
		if err := Validate(path); err != nil {
			e.logger.Warn("pdftext.validate.failed", "path", path, "error", err)
			return "", err
		}
	}
	pages, err := e.read(ctx, path, true)
	if err != nil {
		return "", err
	}
	e.logger.Debug("pdftext.first_page.ok", "path", path, "bytes", len(pages[0]), "elapsed_ms", time.Since(start).Milliseconds())
	return pages[0], nil
}

// PageTexts returns the text of every page in order.
func (e *Extractor) PageTexts(ctx context.Context, path string) ([]string, error) {
	start := time.Now()
	pages, err := e.read(ctx, path, false)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("pdftext.pages.ok", "path", path, "pages", len(pages), "elapsed_ms", time.Since(start).Milliseconds())
	return pages, nil
}

func (e *Extractor) read(ctx context.Context, path string, firstOnly bool) ([]string, error) {
	switch e.cfg.Backend {
	case BackendNative:
		return nativePages(path, firstOnly)
	case BackendPdftotext:
		return e.popplerPages(ctx, path, firstOnly)
	case BackendAuto:
		pages, err := nativePages(path, firstOnly)
		if err == nil {
			return pages, nil
		}
		e.logger.Debug("pdftext.native.failed", "path", path, "error", err)
		pages, perr := e.popplerPages(ctx, path, firstOnly)
		if perr != nil {
			return nil, fmt.Errorf("native: %v; pdftotext: %w", err, perr)
		}
		return pages, nil
	default:
		e.logger.Error("unsupported pdf text backend", "backend", e.cfg.Backend)
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, e.cfg.Backend)
	}
}
