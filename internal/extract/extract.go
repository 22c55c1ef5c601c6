package extract

import (
	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
)

// Extract derives every text-based field of a report. It is pure: the same text always
// yields the same fields.
func Extract(text string) entity.Fields {
	var f entity.Fields

	if line, ok := NameLine(text); ok {
		f.NameLine = &line
		name := ResolveName(line)
		f.ExtractedName = &name
	}
	if bio, report, ok := Narratives(text); ok {
		f.BioText = &bio
		f.ReportText = &report
	}

	nameLine := ""
	if f.NameLine != nil {
		nameLine = *f.NameLine
	}
	f.EntityType = DetectEntityType(nameLine, text)
	return f
}
