// Package schema is the single description of the contract graph. Statements, indices and the
// schema text handed to the query translator are all derived from it.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

const (
	Agreement      = "Agreement"
	Organization   = "Organization"
	Country        = "Country"
	ContractClause = "ContractClause"
	Excerpt        = "Excerpt"
	ClauseType     = "ClauseType"

	IsPartyTo      = "IS_PARTY_TO"
	IncorporatedIn = "INCORPORATED_IN"
	GovernedByLaw  = "GOVERNED_BY_LAW"
	HasClause      = "HAS_CLAUSE"
	HasExcerpt     = "HAS_EXCERPT"
	HasType        = "HAS_TYPE"
)

// Property is a typed property on a node or relationship.
type Property struct {
	Name string
	Type string
}

// Node is a node label and its properties.
type Node struct {
	Label      string
	Properties []Property
	// Hidden properties are real but left out of the translator description.
	Hidden []Property
}

// Relationship is a relationship type between two labels.
type Relationship struct {
	Type       string
	From       string
	To         string
	Properties []Property
}

// Graph is the complete contract graph schema.
type Graph struct {
	Nodes         []Node
	Relationships []Relationship
}

// Contracts returns the contract graph schema.
func Contracts() Graph {
	return Graph{
		Nodes: []Node{
			{
				Label: Agreement,
				Properties: []Property{
					{"contract_id", "INTEGER"},
					{"name", "STRING"},
					{"agreement_type", "STRING"},
					{"effective_date", "STRING"},
					{"expiration_date", "STRING"},
					{"renewal_term", "STRING"},
					{"notice_period", "STRING"},
					{"most_favored_country", "STRING"},
				},
			},
			{Label: ContractClause, Properties: []Property{{"type", "STRING"}}},
			{Label: ClauseType, Properties: []Property{{"name", "STRING"}}},
			{Label: Country, Properties: []Property{{"name", "STRING"}}},
			{
				Label:      Excerpt,
				Properties: []Property{{"text", "STRING"}},
				Hidden:     []Property{{"embedding", "LIST<FLOAT>"}},
			},
			{Label: Organization, Properties: []Property{{"name", "STRING"}}},
		},
		Relationships: []Relationship{
			{Type: HasClause, From: Agreement, To: ContractClause, Properties: []Property{{"type", "STRING"}}},
			{Type: HasExcerpt, From: ContractClause, To: Excerpt},
			{Type: HasType, From: ContractClause, To: ClauseType},
			{Type: GovernedByLaw, From: Agreement, To: Country, Properties: []Property{{"state", "STRING"}}},
			{Type: IsPartyTo, From: Organization, To: Agreement, Properties: []Property{{"role", "STRING"}}},
			{Type: IncorporatedIn, From: Organization, To: Country, Properties: []Property{{"state", "STRING"}}},
		},
	}
}

// Labels returns the node labels in schema order.
func (g Graph) Labels() []string {
	labels := make([]string, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		labels = append(labels, node.Label)
	}
	return labels
}

// HiddenProperties returns the names of every hidden property, which never leave the store.
func (g Graph) HiddenProperties() map[string]struct{} {
	hidden := make(map[string]struct{})
	for _, node := range g.Nodes {
		for _, prop := range node.Hidden {
			hidden[prop.Name] = struct{}{}
		}
	}
	return hidden
}

// RelationshipTypes returns the relationship types in schema order.
func (g Graph) RelationshipTypes() []string {
	types := make([]string, 0, len(g.Relationships))
	for _, rel := range g.Relationships {
		types = append(types, rel.Type)
	}
	return types
}

// Describe renders the schema in the form the query translator expects.
func (g Graph) Describe() string {
	var builder strings.Builder

	builder.WriteString("Node properties:\n")
	for _, node := range g.Nodes {
		fmt.Fprintf(&builder, "%s {%s}\n", node.Label, formatProperties(node.Properties))
	}

	builder.WriteString("\nRelationship properties:\n")
	for _, rel := range g.Relationships {
		if len(rel.Properties) == 0 {
			continue
		}
		fmt.Fprintf(&builder, "%s {%s}\n", rel.Type, formatProperties(rel.Properties))
	}

	builder.WriteString("\nThe relationships:\n")
	for _, rel := range g.Relationships {
		fmt.Fprintf(&builder, "(:%s)-[:%s]->(:%s)\n", rel.From, rel.Type, rel.To)
	}

	return builder.String()
}

func formatProperties(props []Property) string {
	sorted := make([]Property, len(props))
	copy(sorted, props)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	parts := make([]string, 0, len(sorted))
	for _, prop := range sorted {
		parts = append(parts, prop.Name+": "+prop.Type)
	}
	return strings.Join(parts, ", ")
}
