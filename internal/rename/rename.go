// Package rename gives screened reports human-readable file names derived from the subject.
package rename

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/extract"
)

var (
	ErrNoName       = errors.New("no extracted name")
	ErrTargetExists = errors.New("target file already exists")
	ErrUnsafeName   = errors.New("name is not a plain file name")
)

// maxSequence bounds the FOUND sequence search.
const maxSequence = 9999

// Renamer moves documents to their category-specific names.
type Renamer struct {
	logger *slog.Logger
}

func NewRenamer(logger *slog.Logger) *Renamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renamer{logger: logger}
}

// NewName returns the target basename for a document. FOUND names take the first free
// two-digit sequence number in dir; the other categories have a single fixed form.
func NewName(dir string, category constants.Category, name string) (string, error) {
	if name == "" {
		return "", ErrNoName
	}
	// names come from report text and must never leave dir
	if strings.ContainsAny(name, `/\`+"\x00") {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	cjk := extract.ContainsCJK(name)
	switch category {
	case constants.CategoryFound:
		for n := 1; n <= maxSequence; n++ {
			candidate := fmt.Sprintf("%s%02d.pdf", name, n)
			if !exists(filepath.Join(dir, candidate)) {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("%w: %s01..%02d", ErrTargetExists, name, maxSequence)
	case constants.CategoryCase:
		if cjk {
			return name + "Case.pdf", nil
		}
		return name + "Case .pdf", nil
	default:
		if cjk {
			return "No" + name + ".pdf", nil
		}
		return "No " + name + ".pdf", nil
	}
}

// Apply renames doc inside its current directory. Failures are logged and returned; the
// document keeps its old identity when an error is returned.
func (r *Renamer) Apply(doc *entity.CaseDocument) error {
	name := doc.Fields.Name()
	if name == "" {
		r.logger.Info("rename.skipped", "file", doc.DisplayName, "reason", "no extracted name")
		return ErrNoName
	}

	dir := filepath.Dir(doc.SourcePath)
	target, err := NewName(dir, doc.Category, name)
	if err != nil {
		r.logger.Warn("rename.failed", "file", doc.DisplayName, "error", err)
		return err
	}
	if target == doc.DisplayName {
		return nil
	}
	if filepath.Base(target) != target {
		r.logger.Warn("rename.failed", "file", doc.DisplayName, "target", target, "error", ErrUnsafeName)
		return fmt.Errorf("%w: %q", ErrUnsafeName, target)
	}

	newPath := filepath.Join(dir, target)
	if doc.Category != constants.CategoryFound && exists(newPath) {
		r.logger.Warn("rename.failed", "file", doc.DisplayName, "target", target, "error", ErrTargetExists)
		return fmt.Errorf("%w: %s", ErrTargetExists, target)
	}
	if err := os.Rename(doc.SourcePath, newPath); err != nil {
		r.logger.Warn("rename.failed", "file", doc.DisplayName, "target", target, "error", err)
		return fmt.Errorf("rename %s: %w", doc.DisplayName, err)
	}

	r.logger.Info("rename.ok", "from", doc.DisplayName, "to", target, "category", string(doc.Category))
	doc.Relocate(newPath)
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
