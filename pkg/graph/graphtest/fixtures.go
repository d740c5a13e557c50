package graphtest

import "github.com/theapemachine/mcp-server-contract-graph/pkg/contract"

// MSA returns a minimal service agreement with one vendor and one present insurance clause.
func MSA(id int64) *contract.Agreement {
	return &contract.Agreement{
		ContractID:    id,
		AgreementName: "MSA-001",
		AgreementType: "Service",
		EffectiveDate: "2024-01-01",
		Parties: []contract.Party{
			{Name: "Acme Corp", Role: "Vendor", IncorporationCountry: "USA", IncorporationState: "Delaware"},
		},
		GoverningLaw: contract.GoverningLaw{Country: "USA", State: "New York"},
		Clauses: []contract.Clause{
			{ClauseType: "Insurance", Exists: true, Excerpts: []string{"Vendor shall maintain insurance."}},
		},
	}
}

// Distribution returns a second agreement that shares the MSA insurance excerpt and declares a
// clause that is absent.
func Distribution(id int64) *contract.Agreement {
	return &contract.Agreement{
		ContractID:    id,
		AgreementName: "Distribution Agreement",
		AgreementType: "Distributor",
		Parties: []contract.Party{
			{Name: "Globex Ltd", Role: "Distributor", IncorporationCountry: "United Kingdom"},
			{Name: "Acme Corp", Role: "Supplier", IncorporationCountry: "USA"},
		},
		Clauses: []contract.Clause{
			{ClauseType: "Insurance", Exists: true, Excerpts: []string{"Vendor shall maintain insurance.", "Coverage of at least $1M."}},
			{ClauseType: "Non-Compete", Exists: false},
		},
	}
}
