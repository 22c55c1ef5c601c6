package entity

// IndividualRow is one line of the individual ledger. Position, IsSubject, Reason and
// Reviewer are left blank for the human reviewer.
type IndividualRow struct {
	Filename  string `json:"filename"`
	Name      string `json:"name"`
	Position  string `json:"position"`
	Exists    string `json:"exists"`
	Reports   string `json:"reports"`
	Bios      string `json:"bios"`
	IsSubject string `json:"is_subject"`
	Reason    string `json:"reason"`
	Reviewer  string `json:"reviewer"`
}

// OrganizationRow is one line of the organization ledger.
type OrganizationRow struct {
	Filename     string `json:"filename"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Exists       string `json:"exists"`
	Reports      string `json:"reports"`
	IsCompany    string `json:"is_company"`
	Reason       string `json:"reason"`
	Reviewer     string `json:"reviewer"`
}

// Ledgers holds both outputs of a batch.
type Ledgers struct {
	Individuals   []IndividualRow   `json:"individuals"`
	Organizations []OrganizationRow `json:"organizations"`
}

// Len is the total number of rows.
func (l Ledgers) Len() int {
	return len(l.Individuals) + len(l.Organizations)
}
