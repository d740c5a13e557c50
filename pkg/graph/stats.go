package graph

import "context"

const statsCypher = `
RETURN
  COUNT { MATCH (:Agreement) } AS agreements,
  COUNT { MATCH (:Organization) } AS organizations,
  COUNT { MATCH (:Country) } AS countries,
  COUNT { MATCH (:ContractClause) } AS clauses,
  COUNT { MATCH (:ClauseType) } AS clause_types,
  COUNT { MATCH (:Excerpt) } AS excerpts,
  COUNT { MATCH (e:Excerpt) WHERE e.embedding IS NOT NULL } AS embedded_excerpts
`

// Stats counts the nodes in the contract graph.
type Stats struct {
	Agreements       int64 `json:"agreements"`
	Organizations    int64 `json:"organizations"`
	Countries        int64 `json:"countries"`
	Clauses          int64 `json:"clauses"`
	ClauseTypes      int64 `json:"clause_types"`
	Excerpts         int64 `json:"excerpts"`
	EmbeddedExcerpts int64 `json:"embedded_excerpts"`
}

// Pending is the number of excerpts still waiting for an embedding.
func (stats *Stats) Pending() int64 {
	return stats.Excerpts - stats.EmbeddedExcerpts
}

// GraphStats reads the current node counts.
func GraphStats(ctx context.Context, runner Runner) (*Stats, error) {
	result, err := runner.Read(ctx, statsCypher, nil)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	if len(result.Records) == 0 {
		return stats, nil
	}

	row := result.Records[0]
	stats.Agreements = row.Int("agreements")
	stats.Organizations = row.Int("organizations")
	stats.Countries = row.Int("countries")
	stats.Clauses = row.Int("clauses")
	stats.ClauseTypes = row.Int("clause_types")
	stats.Excerpts = row.Int("excerpts")
	stats.EmbeddedExcerpts = row.Int("embedded_excerpts")

	return stats, nil
}
