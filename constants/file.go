package constants

import "strings"

// AllowedExtensions holds the file extensions accepted into a batch.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFExt reports whether ext (with or without the dot, any case) names a PDF.
func IsPDFExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// Default artifact names written into a batch directory.
const (
	DefaultSpreadsheetName = "finished.xlsx"
	DefaultArchiveName     = "finished.zip"
)
