package extract

import (
	"context"
	"strings"
)

// TextExtractor turns a PDF into text. FirstPageText is the cheap screening read;
// PageTexts reads the whole document and is only called for screened-in reports.
type TextExtractor interface {
	FirstPageText(ctx context.Context, path string) (string, error)
	PageTexts(ctx context.Context, path string) ([]string, error)
}

// JoinPages concatenates page texts with a single newline, the shape every marker search expects.
func JoinPages(pages []string) string {
	return strings.Join(pages, "\n")
}
