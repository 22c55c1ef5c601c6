package constants

// Literal markers of the World-Check report layout.
const (
	MarkerWorldCheck     = "WORLD-CHECK"
	MarkerMatchDetails   = "WORLD-CHECK MATCH DETAILS REPORT"
	MarkerCaseReport     = "CASE REPORT"
	MarkerCaseComparison = "CASE AND COMPARISON DATA"
	MarkerKeyData        = "KEY DATA"
	MarkerWorldCheckData = "World-Check Data"
	MarkerName           = "Name"
	MarkerBiography      = "BIOGRAPHY"
	MarkerReports        = "REPORTS"
	MarkerIdentification = "IDENTIFICATION"
)

// MissingNarrative is written for FOUND rows whose bio or report could not be sliced.
const MissingNarrative = "CHECK DATA"
