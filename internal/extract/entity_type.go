package extract

import (
	"strings"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
)

// sampleRunes bounds the identifier search to the report header.
const sampleRunes = 1000

var orgNameKeywords = []string{
	"limited", "ltd", "llc", "inc", "corporation", "corp", "company", "co",
	"group", "holdings", "bank", "公司", "集团", "银行", "企业", "有限",
}

type weighted struct {
	term   string
	weight int
}

var personalIdentifiers = []weighted{
	{"date of birth", 3},
	{"nationality", 2},
	{"passport", 2},
	{"gender", 2},
	{"birth place", 2},
	{"place of birth", 2},
	{"出生", 2},
	{"国籍", 2},
	{"护照", 2},
	{"性别", 2},
}

var orgIdentifiers = []weighted{
	{"registration number", 2},
	{"registered address", 2},
	{"business type", 2},
	{"incorporation date", 2},
	{"registered capital", 2},
	{"注册号", 2},
	{"注册地址", 2},
	{"企业类型", 2},
	{"注册资本", 2},
}

// EntityScore is the weighted vote behind DetectEntityType.
type EntityScore struct {
	Individual   int
	Organization int
}

// ScoreEntity tallies keyword evidence from the name line and the first 1000 characters of text.
// Keywords match as substrings.
func ScoreEntity(nameLine, text string) EntityScore {
	var s EntityScore

	name := strings.ToLower(nameLine)
	for _, kw := range orgNameKeywords {
		if strings.Contains(name, kw) {
			s.Organization += 2
			break
		}
	}

	sample := strings.ToLower(headRunes(text, sampleRunes))
	for _, id := range personalIdentifiers {
		if strings.Contains(sample, id.term) {
			s.Individual += id.weight
		}
	}
	for _, id := range orgIdentifiers {
		if strings.Contains(sample, id.term) {
			s.Organization += id.weight
		}
	}
	return s
}

// Type resolves the vote; a tie is an individual.
func (s EntityScore) Type() constants.EntityType {
	if s.Organization > s.Individual {
		return constants.EntityOrganization
	}
	return constants.EntityIndividual
}

// DetectEntityType infers individual vs organization.
func DetectEntityType(nameLine, text string) constants.EntityType {
	return ScoreEntity(nameLine, text).Type()
}

func headRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
