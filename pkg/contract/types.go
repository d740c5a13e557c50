package contract

import "strings"

// ContractTypes are the agreement categories the extraction step chooses from.
var ContractTypes = []string{
	"Affiliate Agreement",
	"Agency Agreement",
	"Collaboration/Cooperation Agreement",
	"Co-Branding Agreement",
	"Consulting Agreement",
	"Development Agreement",
	"Distributor Agreement",
	"Endorsement Agreement",
	"Franchise Agreement",
	"Hosting Agreement",
	"IP Agreement",
	"Joint Venture Agreement",
	"License Agreement",
	"Maintenance Agreement",
	"Manufacturing Agreement",
	"Marketing Agreement",
	"Non-Compete/No-Solicit/Non-Disparagement Agreement",
	"Outsourcing Agreement",
	"Promotion Agreement",
	"Reseller Agreement",
	"Service Agreement",
	"Sponsorship Agreement",
	"Supply Agreement",
	"Strategic Alliance Agreement",
	"Transportation Agreement",
	"Other",
}

// ClauseTypes is the fixed clause enumeration. One ClauseType node exists per entry once used.
var ClauseTypes = []string{
	"Competitive Restriction Exception",
	"Non-Compete",
	"Exclusivity",
	"No-Solicit Of Customers",
	"No-Solicit Of Employees",
	"Non-Disparagement",
	"Termination For Convenience",
	"Rofr/Rofo/Rofn",
	"Change Of Control",
	"Anti-Assignment",
	"Revenue/Profit Sharing",
	"Price Restrictions",
	"Minimum Commitment",
	"Volume Restriction",
	"IP Ownership Assignment",
	"Joint IP Ownership",
	"License grant",
	"Non-Transferable License",
	"Affiliate License-Licensor",
	"Affiliate License-Licensee",
	"Unlimited/All-You-Can-Eat-License",
	"Irrevocable Or Perpetual License",
	"Source Code Escrow",
	"Post-Termination Services",
	"Audit Rights",
	"Uncapped Liability",
	"Cap On Liability",
	"Liquidated Damages",
	"Warranty Duration",
	"Insurance",
	"Covenant Not To Sue",
	"Third Party Beneficiary",
}

var contractTypeSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ContractTypes))
	for _, name := range ContractTypes {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}()

// IsContractType reports whether name is one of ContractTypes, ignoring case. Agreement types are
// free text, so an unknown one is worth a warning but never a rejection.
func IsContractType(name string) bool {
	_, ok := contractTypeSet[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

var clauseTypeSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ClauseTypes))
	for _, name := range ClauseTypes {
		set[name] = struct{}{}
	}
	return set
}()

// IsClauseType reports whether name is one of ClauseTypes (exact match).
func IsClauseType(name string) bool {
	_, ok := clauseTypeSet[name]
	return ok
}
