package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
)

// IsCJK reports whether r is in the CJK Unified Ideographs block.
func IsCJK(r rune) bool {
	return r >= '\u4e00' && r <= '\u9fff'
}

// ResolveName picks the display name from a name line. A space-separated token that starts
// with a CJK ideograph wins; otherwise all CJK ideographs in the line are concatenated;
// otherwise the text after the first "Name" is used.
func ResolveName(nameLine string) string {
	for _, tok := range strings.Split(nameLine, " ") {
		if r, _ := utf8.DecodeRuneInString(tok); tok != "" && IsCJK(r) {
			return tok
		}
	}

	var b strings.Builder
	for _, r := range nameLine {
		if IsCJK(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		return b.String()
	}

	if idx := strings.Index(nameLine, constants.MarkerName); idx >= 0 {
		return strings.TrimSpace(nameLine[idx+len(constants.MarkerName):])
	}
	return strings.TrimSpace(nameLine)
}

// ContainsCJK reports whether s has at least one CJK ideograph.
func ContainsCJK(s string) bool {
	return strings.ContainsFunc(s, IsCJK)
}
