// Package classify decides whether a PDF is a World-Check report and which outcome it records.
package classify

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
)

var unresolvedRe = regexp.MustCompile(`Unresolved Matches (\d+)`)

// Screen reports whether the first page looks like a World-Check report.
func Screen(firstPage string) bool {
	return strings.Contains(firstPage, constants.MarkerWorldCheck)
}

// Classify derives the outcome category from the full report text.
func Classify(text string) constants.Category {
	if strings.Contains(text, constants.MarkerMatchDetails) {
		return constants.CategoryFound
	}
	if strings.Contains(text, constants.MarkerCaseReport) {
		if UnresolvedMatches(text) {
			return constants.CategoryCase
		}
		return constants.CategoryNoMatch
	}
	return constants.CategoryNoMatch
}

// UnresolvedMatches reports whether the first "Unresolved Matches <N>" carries N > 0.
// The count is compared as a digit string so arbitrarily long values cannot overflow.
func UnresolvedMatches(text string) bool {
	m := unresolvedRe.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	return strings.TrimLeft(m[1], "0") != ""
}
