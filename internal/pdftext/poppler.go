package pdftext

import (
	"context"
	"fmt"
	"strings"
)

func (e *Extractor) popplerPages(ctx context.Context, path string, firstOnly bool) ([]string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix [-f 1 -l 1] <path> -
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if firstOnly {
		args = append(args, "-f", "1", "-l", "1")
	}
	args = append(args, path, "-")

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	return splitPages(string(out)), nil
}

// splitPages breaks pdftotext output on the form-feed it emits after every page.
func splitPages(text string) []string {
	text = strings.TrimSuffix(text, "\f")
	return strings.Split(text, "\f")
}
