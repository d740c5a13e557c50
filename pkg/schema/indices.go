package schema

import "fmt"

// IndexKind is the store-native index family.
type IndexKind string

const (
	IndexVector   IndexKind = "VECTOR"
	IndexFullText IndexKind = "FULLTEXT"
	IndexRange    IndexKind = "RANGE"
	IndexText     IndexKind = "TEXT"
	// IndexUnique is a uniqueness constraint; its backing index carries the same name.
	IndexUnique IndexKind = "UNIQUE"
)

const (
	ExcerptVectorIndex    = "excerpt_vector_index"
	ExcerptTextIndex      = "excerpt_text_index"
	AgreementTypeIndex    = "agreement_type_index"
	ClauseTypeIndex       = "clause_type_index"
	OrganizationNameIndex = "organization_name_index"
	AgreementIDIndex      = "agreement_id_index"
	OrganizationNameKey   = "organization_name_unique"
	CountryNameKey        = "country_name_unique"
	ClauseTypeNameKey     = "clause_type_name_unique"
	ExcerptTextLookup     = "excerpt_text_lookup_index"
)

// VectorOptions sizes the excerpt vector index.
type VectorOptions struct {
	Dimensions int
	Similarity string
}

// Index is one named index over a label's properties.
type Index struct {
	Name       string
	Kind       IndexKind
	Label      string
	Properties []string
	Vector     VectorOptions
}

// Indices returns every index and constraint the contract graph relies on. The constraints cover
// the keys the build statement merges on, so they must exist before the first build. Excerpt text
// can outgrow a constraint's key size, so it only gets a text lookup index.
func Indices(vector VectorOptions) []Index {
	return []Index{
		{Name: ExcerptVectorIndex, Kind: IndexVector, Label: Excerpt, Properties: []string{"embedding"}, Vector: vector},
		{Name: ExcerptTextIndex, Kind: IndexFullText, Label: Excerpt, Properties: []string{"text"}},
		{Name: AgreementTypeIndex, Kind: IndexFullText, Label: Agreement, Properties: []string{"agreement_type"}},
		{Name: ClauseTypeIndex, Kind: IndexFullText, Label: ClauseType, Properties: []string{"name"}},
		{Name: OrganizationNameIndex, Kind: IndexFullText, Label: Organization, Properties: []string{"name"}},
		{Name: AgreementIDIndex, Kind: IndexUnique, Label: Agreement, Properties: []string{"contract_id"}},
		{Name: OrganizationNameKey, Kind: IndexUnique, Label: Organization, Properties: []string{"name"}},
		{Name: CountryNameKey, Kind: IndexUnique, Label: Country, Properties: []string{"name"}},
		{Name: ClauseTypeNameKey, Kind: IndexUnique, Label: ClauseType, Properties: []string{"name"}},
		{Name: ExcerptTextLookup, Kind: IndexText, Label: Excerpt, Properties: []string{"text"}},
	}
}

// Cypher renders the CREATE statement for the index.
func (index Index) Cypher() string {
	switch index.Kind {
	case IndexVector:
		return fmt.Sprintf(
			"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s) "+
				"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: '%s'}}",
			index.Name, index.Label, index.Properties[0], index.Vector.Dimensions, index.Vector.Similarity,
		)
	case IndexFullText:
		return fmt.Sprintf(
			"CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [%s]",
			index.Name, index.Label, nodeProperties(index.Properties),
		)
	case IndexUnique:
		return fmt.Sprintf(
			"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			index.Name, index.Label, index.Properties[0],
		)
	case IndexText:
		return fmt.Sprintf(
			"CREATE TEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s)",
			index.Name, index.Label, index.Properties[0],
		)
	default:
		return fmt.Sprintf(
			"CREATE INDEX %s IF NOT EXISTS FOR (n:%s) ON (%s)",
			index.Name, index.Label, nodeProperties(index.Properties),
		)
	}
}

func nodeProperties(props []string) string {
	out := ""
	for i, prop := range props {
		if i > 0 {
			out += ", "
		}
		out += "n." + prop
	}
	return out
}
