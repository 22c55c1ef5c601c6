package extract

import (
	"strings"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
)

// NameLine finds the line carrying the subject name. The layout is chosen from the text
// itself: match-details reports use the comparison table, case reports the first
// "Name <value>" line. ok is false when no line qualifies.
func NameLine(text string) (line string, ok bool) {
	switch {
	case strings.Contains(text, constants.MarkerMatchDetails):
		return foundNameLine(text)
	case strings.Contains(text, constants.MarkerCaseReport):
		return caseNameLine(text)
	default:
		return "", false
	}
}

func foundNameLine(text string) (string, bool) {
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, constants.MarkerCaseComparison) {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if strings.Contains(line, constants.MarkerKeyData) {
			break
		}
		if strings.Contains(line, constants.MarkerWorldCheckData) {
			continue
		}
		if strings.Contains(line, constants.MarkerName) {
			return line, true
		}
	}
	return "", false
}

func caseNameLine(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, constants.MarkerName) && len(strings.Fields(line)) >= 2 {
			return line, true
		}
	}
	return "", false
}
