package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/classify"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/extract"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/rename"
)

// Processor screens, classifies, renames and aggregates one directory of reports.
// A Processor holds no per-batch state; one batch directory must not be processed twice
// concurrently.
type Processor struct {
	logger  *slog.Logger
	text    extract.TextExtractor
	renamer *rename.Renamer
}

func NewProcessor(logger *slog.Logger, text extract.TextExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:  logger,
		text:    text,
		renamer: rename.NewRenamer(logger),
	}
}

// Stats summarises a batch for logs and callers.
type Stats struct {
	Scanned       int
	Discarded     int
	Found         int
	Cases         int
	NoMatch       int
	TextFailed    int
	Renamed       int
	RenameFailed  int
	Individuals   int
	Organizations int
}

// Batch is the result of ProcessBatch.
type Batch struct {
	Dir       string
	Documents []*entity.CaseDocument
	Ledgers   entity.Ledgers
	Stats     Stats
}

// ScreenAndLoad lists the PDFs directly inside dir, screens each by its first page and
// deletes the ones that fail. Only screened-in documents are returned.
func (p *Processor) ScreenAndLoad(ctx context.Context, dir string) ([]*entity.CaseDocument, Stats, error) {
	var stats Stats
	paths, err := ListPDFs(dir)
	if err != nil {
		return nil, stats, err
	}

	docs := make([]*entity.CaseDocument, 0, len(paths))
	for _, path := range paths {
		stats.Scanned++
		doc := entity.NewCaseDocument(path, p.screen(ctx, path))
		if !doc.ShouldProcess {
			stats.Discarded++
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				p.logger.Warn("screen.discard.failed", "file", doc.DisplayName, "error", err)
			}
			continue
		}
		docs = append(docs, doc)
	}

	p.logger.Info("screen.done", "dir", dir, "scanned", stats.Scanned, "kept", len(docs), "discarded", stats.Discarded)
	return docs, stats, nil
}

func (p *Processor) screen(ctx context.Context, path string) bool {
	first, err := p.text.FirstPageText(ctx, path)
	if err != nil {
		p.logger.Warn("screen.unreadable", "file", filepath.Base(path), "error", err)
		return false
	}
	if !classify.Screen(first) {
		p.logger.Info("screen.rejected", "file", filepath.Base(path))
		return false
	}
	return true
}

// ProcessBatch runs the whole pipeline over dir and returns both ledgers, sorted by
// (name, filename). Per-document failures are logged and never abort the batch.
func (p *Processor) ProcessBatch(ctx context.Context, dir string, doRename bool) (*Batch, error) {
	start := time.Now()
	docs, stats, err := p.ScreenAndLoad(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("screen %s: %w", dir, err)
	}

	for _, doc := range docs {
		if err := p.derive(ctx, doc); err != nil {
			stats.TextFailed++
			continue
		}
		switch doc.Category {
		case constants.CategoryFound:
			stats.Found++
		case constants.CategoryCase:
			stats.Cases++
		default:
			stats.NoMatch++
		}

		if doRename {
			if err := p.renamer.Apply(doc); err != nil {
				stats.RenameFailed++
			} else {
				stats.Renamed++
			}
		}
	}

	ledgers := Aggregate(docs)
	stats.Individuals = len(ledgers.Individuals)
	stats.Organizations = len(ledgers.Organizations)

	p.logger.Info("batch.done",
		"dir", dir,
		"documents", len(docs),
		"found", stats.Found,
		"cases", stats.Cases,
		"no_match", stats.NoMatch,
		"individuals", stats.Individuals,
		"organizations", stats.Organizations,
		"rename_failed", stats.RenameFailed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Batch{Dir: dir, Documents: docs, Ledgers: ledgers, Stats: stats}, nil
}

// derive loads the full text once, caches category and fields, then drops the text.
func (p *Processor) derive(ctx context.Context, doc *entity.CaseDocument) error {
	if doc.Classified() && doc.Extracted() {
		return nil
	}
	if doc.RawText == nil {
		pages, err := p.text.PageTexts(ctx, doc.SourcePath)
		if err != nil {
			p.logger.Warn("extract.text.failed", "file", doc.DisplayName, "error", err)
			return err
		}
		text := extract.JoinPages(pages)
		doc.RawText = &text
	}

	doc.SetCategory(classify.Classify(*doc.RawText))
	doc.SetFields(extract.Extract(*doc.RawText))
	doc.ReleaseText()

	p.logger.Debug("classify.ok", "file", doc.DisplayName, "category", string(doc.Category))
	if doc.Fields.NameLine == nil {
		p.logger.Info("extract.name.missing", "file", doc.DisplayName, "category", string(doc.Category))
	}
	return nil
}

// Aggregate projects derived documents into the two ledgers. CASE documents and documents
// whose text could not be read produce no row.
func Aggregate(docs []*entity.CaseDocument) entity.Ledgers {
	var l entity.Ledgers
	for _, doc := range docs {
		if !doc.ShouldProcess || !doc.Classified() || !doc.Extracted() {
			continue
		}
		if doc.Category == constants.CategoryCase {
			continue
		}

		exists := constants.ExistsNo
		bio, report := "", ""
		if doc.Category == constants.CategoryFound {
			exists = constants.ExistsYes
			bio = orSentinel(doc.Fields.BioText)
			report = orSentinel(doc.Fields.ReportText)
		}

		switch doc.Fields.EntityType {
		case constants.EntityOrganization:
			l.Organizations = append(l.Organizations, entity.OrganizationRow{
				Filename: doc.BaseName(),
				Name:     doc.Fields.Name(),
				Exists:   exists,
				Reports:  report,
			})
		default:
			l.Individuals = append(l.Individuals, entity.IndividualRow{
				Filename: doc.BaseName(),
				Name:     doc.Fields.Name(),
				Exists:   exists,
				Reports:  report,
				Bios:     bio,
			})
		}
	}

	sort.SliceStable(l.Individuals, func(i, j int) bool {
		a, b := l.Individuals[i], l.Individuals[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Filename < b.Filename
	})
	sort.SliceStable(l.Organizations, func(i, j int) bool {
		a, b := l.Organizations[i], l.Organizations[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Filename < b.Filename
	})
	return l
}

func orSentinel(s *string) string {
	if s == nil || *s == "" {
		return constants.MissingNarrative
	}
	return *s
}
