package retrieval

import "github.com/theapemachine/mcp-server-contract-graph/pkg/graph"

// Party is an organization's part in an agreement.
type Party struct {
	Name                 string `json:"name"`
	Role                 string `json:"role"`
	IncorporationCountry string `json:"incorporation_country"`
	IncorporationState   string `json:"incorporation_state"`
}

// ContractSummary is the common result shape of the list strategies.
type ContractSummary struct {
	ContractID    int64   `json:"contract_id"`
	Name          string  `json:"name"`
	AgreementType string  `json:"agreement_type"`
	Parties       []Party `json:"parties"`
}

// GoverningLaw is the jurisdiction an agreement is governed by.
type GoverningLaw struct {
	Country string `json:"country"`
	State   string `json:"state"`
}

// ContractInfo is a summary plus the agreement's dates and terms.
type ContractInfo struct {
	ContractSummary
	EffectiveDate      string        `json:"effective_date"`
	ExpirationDate     string        `json:"expiration_date"`
	RenewalTerm        string        `json:"renewal_term"`
	NoticePeriod       string        `json:"notice_period"`
	MostFavoredCountry string        `json:"most_favored_country"`
	GoverningLaw       *GoverningLaw `json:"governing_law,omitempty"`
}

// ClauseRef names a clause present in an agreement.
type ClauseRef struct {
	ClauseType string `json:"clause_type"`
}

// ContractDetail is the full detail of one agreement.
type ContractDetail struct {
	ContractInfo
	Clauses []ClauseRef `json:"clauses"`
}

// ClauseExcerpts groups the supporting quotations of one clause.
type ClauseExcerpts struct {
	ClauseType string   `json:"clause_type"`
	Excerpts   []string `json:"excerpts"`
}

// ContractExcerpts is the full detail of one agreement with every clause's excerpts.
type ContractExcerpts struct {
	ContractInfo
	Clauses []ClauseExcerpts `json:"clauses"`
}

// SimilarExcerpt is one excerpt close to the searched text, with the clause and agreement it
// belongs to.
type SimilarExcerpt struct {
	ContractID    int64   `json:"contract_id"`
	AgreementName string  `json:"agreement_name"`
	ClauseType    string  `json:"clause_type"`
	Excerpt       string  `json:"excerpt"`
	Score         float64 `json:"score"`
}

func partiesFrom(record graph.Record) []Party {
	rows := record.Maps("parties")
	parties := make([]Party, 0, len(rows))
	for _, row := range rows {
		parties = append(parties, Party{
			Name:                 graph.StringValue(row, "name"),
			Role:                 graph.StringValue(row, "role"),
			IncorporationCountry: graph.StringValue(row, "incorporation_country"),
			IncorporationState:   graph.StringValue(row, "incorporation_state"),
		})
	}
	return parties
}

func summaryFrom(record graph.Record) ContractSummary {
	return ContractSummary{
		ContractID:    record.Int("contract_id"),
		Name:          record.String("name"),
		AgreementType: record.String("agreement_type"),
		Parties:       partiesFrom(record),
	}
}

func infoFrom(record graph.Record) ContractInfo {
	agreement := record.Map("agreement")

	info := ContractInfo{
		ContractSummary: ContractSummary{
			ContractID:    graph.IntValue(agreement, "contract_id"),
			Name:          graph.StringValue(agreement, "name"),
			AgreementType: graph.StringValue(agreement, "agreement_type"),
			Parties:       partiesFrom(record),
		},
		EffectiveDate:      graph.StringValue(agreement, "effective_date"),
		ExpirationDate:     graph.StringValue(agreement, "expiration_date"),
		RenewalTerm:        graph.StringValue(agreement, "renewal_term"),
		NoticePeriod:       graph.StringValue(agreement, "notice_period"),
		MostFavoredCountry: graph.StringValue(agreement, "most_favored_country"),
	}

	if law := record.Map("governing_law"); law != nil {
		info.GoverningLaw = &GoverningLaw{
			Country: graph.StringValue(law, "name"),
			State:   graph.StringValue(law, "state"),
		}
	}

	return info
}
