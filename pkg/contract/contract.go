// Package contract defines the structured agreement record produced by the extraction step.
package contract

// Agreement is one extracted contract. ContractID is assigned at ingestion time.
type Agreement struct {
	ContractID                     int64        `json:"contract_id" validate:"gt=0"`
	AgreementName                  string       `json:"agreement_name"`
	AgreementType                  string       `json:"agreement_type"`
	AgreementDate                  string       `json:"agreement_date"`
	EffectiveDate                  string       `json:"effective_date"`
	ExpirationDate                 string       `json:"expiration_date"`
	RenewalTerm                    string       `json:"renewal_term"`
	NoticePeriodToTerminateRenewal string       `json:"Notice_period_to_Terminate_Renewal"`
	Parties                        []Party      `json:"parties" validate:"dive"`
	GoverningLaw                   GoverningLaw `json:"governing_law"`
	Clauses                        []Clause     `json:"clauses" validate:"dive"`
}

// Party is an organization that signed the agreement.
type Party struct {
	Role                 string `json:"role" validate:"required"`
	Name                 string `json:"name" validate:"required"`
	IncorporationCountry string `json:"incorporation_country"`
	IncorporationState   string `json:"incorporation_state"`
}

// GoverningLaw is the jurisdiction whose law governs the agreement.
type GoverningLaw struct {
	Country            string `json:"country"`
	State              string `json:"state"`
	MostFavoredCountry string `json:"most_favored_country"`
}

// Clause records whether a clause category is present and the supporting quotations.
type Clause struct {
	ClauseType string   `json:"clause_type" validate:"required,clausetype"`
	Exists     bool     `json:"exists"`
	Excerpts   []string `json:"excerpts"`
}

// Extraction is the on-disk envelope written by the extraction step.
type Extraction struct {
	Agreement *Agreement `json:"agreement"`
}

// PresentClauses returns the clauses that were determined to exist.
func (a *Agreement) PresentClauses() []Clause {
	present := make([]Clause, 0, len(a.Clauses))
	for _, clause := range a.Clauses {
		if clause.Exists {
			present = append(present, clause)
		}
	}
	return present
}
