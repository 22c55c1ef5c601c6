package constants

import "strings"

// Category is the screening outcome of a single report.
type Category string

const (
	CategoryFound   Category = "FOUND"
	CategoryCase    Category = "CASE"
	CategoryNoMatch Category = "NO_MATCH"
)

var allCategories = []Category{
	CategoryFound,
	CategoryCase,
	CategoryNoMatch,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps loose user input ("found", "no match", "no-match") to a Category.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	if normalized == "" {
		return CategoryNoMatch, false
	}

	// synonyms map
	synonyms := map[string]Category{
		"NO":       CategoryNoMatch,
		"NO MATCH": CategoryNoMatch,
		"NO-MATCH": CategoryNoMatch,
		"NOMATCH":  CategoryNoMatch,
		"MATCH":    CategoryFound,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	return CategoryNoMatch, false
}

// EntityType is the inferred kind of the screened subject.
type EntityType string

const (
	EntityIndividual   EntityType = "individual"
	EntityOrganization EntityType = "organization"
)

// Ledger labels written into the "verified exists" column.
const (
	ExistsYes = "是"
	ExistsNo  = "否"
)
