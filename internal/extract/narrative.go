package extract

import (
	"strings"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
)

// Narratives slices the biography and report spans out of the full text.
//
// bio runs from the end of the second BIOGRAPHY to the first REPORTS; report runs from the
// end of REPORTS to the first IDENTIFICATION. ok is false when any marker is missing. A span
// whose end precedes its start is returned empty.
func Narratives(text string) (bio, report string, ok bool) {
	second := nthIndex(text, constants.MarkerBiography, 2)
	reports := strings.Index(text, constants.MarkerReports)
	ident := strings.Index(text, constants.MarkerIdentification)
	if second < 0 || reports < 0 || ident < 0 {
		return "", "", false
	}
	bio = span(text, second+len(constants.MarkerBiography), reports)
	report = span(text, reports+len(constants.MarkerReports), ident)
	return bio, report, true
}

func span(text string, start, end int) string {
	if start > end {
		return ""
	}
	s := strings.TrimSpace(text[start:end])
	return strings.ReplaceAll(s, "\n", " ")
}

// nthIndex returns the byte offset of the n-th non-overlapping occurrence of sub, or -1.
func nthIndex(s, sub string, n int) int {
	offset := 0
	for i := 1; ; i++ {
		idx := strings.Index(s[offset:], sub)
		if idx < 0 {
			return -1
		}
		if i == n {
			return offset + idx
		}
		offset += idx + len(sub)
	}
}
