package entity

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
)

// CaseDocument represents one World-Check report within a batch.
type CaseDocument struct {
	SourcePath    string             `json:"source_path"`
	DisplayName   string             `json:"display_name"`
	OriginalName  string             `json:"original_name"`
	RawText       *string            `json:"-"`
	ShouldProcess bool               `json:"should_process"`
	Category      constants.Category `json:"category,omitempty"`
	Fields        Fields             `json:"fields"`

	classified bool
	extracted  bool
}

// Fields are the values derived from a report's full text. Nil pointers mean absent.
type Fields struct {
	NameLine      *string              `json:"name_line,omitempty"`
	BioText       *string              `json:"bio_text,omitempty"`
	ReportText    *string              `json:"report_text,omitempty"`
	ExtractedName *string              `json:"extracted_name,omitempty"`
	EntityType    constants.EntityType `json:"entity_type,omitempty"`
}

// NewCaseDocument creates a document for path with its screening verdict.
func NewCaseDocument(path string, shouldProcess bool) *CaseDocument {
	base := filepath.Base(path)
	return &CaseDocument{
		SourcePath:    path,
		DisplayName:   base,
		OriginalName:  base,
		ShouldProcess: shouldProcess,
	}
}

// Classified reports whether Category has been set.
func (d *CaseDocument) Classified() bool { return d.classified }

// SetCategory records the category once; later calls are ignored.
func (d *CaseDocument) SetCategory(c constants.Category) {
	if d.classified {
		return
	}
	d.Category = c
	d.classified = true
}

// Extracted reports whether Fields have been derived.
func (d *CaseDocument) Extracted() bool { return d.extracted }

// SetFields records derived fields once; later calls are ignored.
func (d *CaseDocument) SetFields(f Fields) {
	if d.extracted {
		return
	}
	d.Fields = f
	d.extracted = true
}

// Relocate moves the document's identity to newPath, keeping SourcePath and DisplayName in step.
func (d *CaseDocument) Relocate(newPath string) {
	d.SourcePath = newPath
	d.DisplayName = filepath.Base(newPath)
}

// ReleaseText drops the cached full text.
func (d *CaseDocument) ReleaseText() {
	d.RawText = nil
}

// BaseName is the display name without its .pdf suffix, matched case-insensitively.
func (d *CaseDocument) BaseName() string {
	name := d.DisplayName
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// Name returns the extracted name or "" when absent.
func (f Fields) Name() string {
	if f.ExtractedName == nil {
		return ""
	}
	return *f.ExtractedName
}
