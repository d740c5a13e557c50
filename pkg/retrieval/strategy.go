// Package retrieval answers questions about the contract graph. Each query strategy is its own
// Strategy implementation; all of them share only the graph.Runner.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/contract"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/embedding"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/schema"
)

// Strategy names, which double as the tool names callers see.
const (
	GetContract                = "get_contract"
	GetContractsByOrganization = "get_contracts_by_organization"
	GetContractsWithClauseType = "get_contracts_with_clause_type"
	GetContractsWithoutClause  = "get_contracts_without_clause"
	GetContractsSimilarText    = "get_contracts_similar_text"
	AnswerAggregationQuestion  = "answer_aggregation_question"
	GetContractExcerpts        = "get_contract_excerpts"
)

// NoResults is the aggregation answer when nothing could be found.
const NoResults = "No results found."

// Input is the single primitive argument a strategy takes. Id-based strategies read ContractID,
// the others read Text.
type Input struct {
	ContractID int64
	Text       string
}

// Strategy is one independently selectable way of querying the graph.
type Strategy interface {
	Name() string
	Run(ctx context.Context, input Input) (any, error)
}

// Translator is the natural-language-to-query capability.
type Translator interface {
	Translate(ctx context.Context, question string) (string, error)
}

func validateID(id int64) error {
	if id <= 0 {
		return &ValidationError{Field: "contract_id", Reason: "Contract ID must be positive"}
	}
	return nil
}

func requireText(field, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("%s must not be empty", field)}
	}
	return text, nil
}

/*
ContractLookup finds one agreement by id with its parties, governing law and clauses. With
excerpts set it returns every clause's excerpts as well.
*/
type ContractLookup struct {
	runner   graph.Runner
	excerpts bool
}

func (lookup *ContractLookup) Name() string {
	if lookup.excerpts {
		return GetContractExcerpts
	}
	return GetContract
}

func (lookup *ContractLookup) Run(ctx context.Context, input Input) (any, error) {
	record, err := lookup.find(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}

	if lookup.excerpts {
		return excerptsFrom(record), nil
	}
	return detailFrom(record), nil
}

func (lookup *ContractLookup) find(ctx context.Context, id int64) (graph.Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	result, err := lookup.runner.Read(ctx, contractCypher, map[string]any{"contract_id": id})
	if err != nil {
		return nil, err
	}

	if len(result.Records) == 0 {
		return nil, &NotFoundError{Kind: "Contract", Key: id}
	}

	return result.Records[0], nil
}

func detailFrom(record graph.Record) *ContractDetail {
	detail := &ContractDetail{ContractInfo: infoFrom(record), Clauses: []ClauseRef{}}
	for _, clause := range record.Maps("clauses") {
		detail.Clauses = append(detail.Clauses, ClauseRef{ClauseType: graph.StringValue(clause, "type")})
	}
	return detail
}

func excerptsFrom(record graph.Record) *ContractExcerpts {
	out := &ContractExcerpts{ContractInfo: infoFrom(record), Clauses: []ClauseExcerpts{}}
	for _, clause := range record.Maps("clauses") {
		excerpts := graph.Record(clause).Strings("excerpts")
		sort.Strings(excerpts)
		out.Clauses = append(out.Clauses, ClauseExcerpts{
			ClauseType: graph.StringValue(clause, "type"),
			Excerpts:   excerpts,
		})
	}
	return out
}

// OrganizationSearch ranks organizations by full-text score, takes the best match and lists the
// agreements it is party to.
type OrganizationSearch struct {
	runner graph.Runner
}

func (search *OrganizationSearch) Name() string {
	return GetContractsByOrganization
}

func (search *OrganizationSearch) Run(ctx context.Context, input Input) (any, error) {
	name := strings.TrimSpace(input.Text)
	if name == "" {
		return []ContractSummary{}, nil
	}

	result, err := search.runner.Read(ctx, organizationCypher, map[string]any{
		"index_name":        schema.OrganizationNameIndex,
		"organization_name": escapeLucene(name),
	})
	if err != nil {
		return nil, err
	}

	return summariesFrom(result), nil
}

// ClauseSearch lists agreements that have, or with negate set lack, a clause type.
type ClauseSearch struct {
	runner graph.Runner
	negate bool
}

func (search *ClauseSearch) Name() string {
	if search.negate {
		return GetContractsWithoutClause
	}
	return GetContractsWithClauseType
}

func (search *ClauseSearch) Run(ctx context.Context, input Input) (any, error) {
	clauseType, err := canonicalClauseType(input.Text)
	if err != nil {
		return nil, err
	}

	cypher := withClauseCypher
	if search.negate {
		cypher = withoutClauseCypher
	}

	result, err := search.runner.Read(ctx, cypher, map[string]any{"clause_type": clauseType})
	if err != nil {
		return nil, err
	}

	return summariesFrom(result), nil
}

// canonicalClauseType accepts a clause type in any letter case and returns the enumerated spelling.
func canonicalClauseType(text string) (string, error) {
	text, err := requireText("clause_type", text)
	if err != nil {
		return "", err
	}

	for _, clauseType := range contract.ClauseTypes {
		if strings.EqualFold(clauseType, text) {
			return clauseType, nil
		}
	}

	return "", &ValidationError{
		Field:  "clause_type",
		Reason: fmt.Sprintf("unknown clause type %q, expected one of: %s", text, strings.Join(contract.ClauseTypes, ", ")),
	}
}

func summariesFrom(result *graph.Result) []ContractSummary {
	summaries := make([]ContractSummary, 0, len(result.Records))
	for _, record := range result.Records {
		summaries = append(summaries, summaryFrom(record))
	}
	return summaries
}

// ExcerptSearch finds the excerpts nearest to a query vector and traverses back to their clauses
// and agreements.
type ExcerptSearch interface {
	SearchExcerpts(ctx context.Context, vector []float64, topK int) (*graph.Result, error)
}

// SimilarText embeds the query text and searches excerpt vectors.
type SimilarText struct {
	embedder embedding.Embedder
	search   ExcerptSearch
	topK     int
}

func (similar *SimilarText) Name() string {
	return GetContractsSimilarText
}

func (similar *SimilarText) Run(ctx context.Context, input Input) (any, error) {
	text, err := requireText("clause_text", input.Text)
	if err != nil {
		return nil, err
	}

	vector, err := similar.embedder.Embed(ctx, text)
	if err != nil {
		return nil, &CapabilityError{Capability: "embedding", Err: err}
	}

	result, err := similar.search.SearchExcerpts(ctx, vector, similar.topK)
	if err != nil {
		return nil, err
	}

	matches := make([]SimilarExcerpt, 0, len(result.Records))
	for _, record := range result.Records {
		matches = append(matches, SimilarExcerpt{
			ContractID:    record.Int("contract_id"),
			AgreementName: record.String("agreement_name"),
			ClauseType:    record.String("clause_type"),
			Excerpt:       record.String("excerpt"),
			Score:         record.Float("score"),
		})
	}

	return matches, nil
}

// Aggregation translates a question into a read query and renders every row as text. It is
// best-effort: a failed translation or a failing statement answers NoResults. Only a store
// failure worth retrying is returned as an error.
type Aggregation struct {
	runner     graph.Runner
	translator Translator
	hidden     map[string]struct{}
	logger     *log.Logger
}

func (aggregation *Aggregation) Name() string {
	return AnswerAggregationQuestion
}

func (aggregation *Aggregation) Run(ctx context.Context, input Input) (any, error) {
	return aggregation.Answer(ctx, input.Text)
}

// Answer returns the textual answer to question.
func (aggregation *Aggregation) Answer(ctx context.Context, question string) (string, error) {
	question, err := requireText("user_question", question)
	if err != nil {
		return "", err
	}

	cypher, err := aggregation.translator.Translate(ctx, question)
	if err != nil {
		aggregation.logger.Error("translation failed", "question", question, "err", &CapabilityError{Capability: "translation", Err: err})
		return NoResults, nil
	}

	result, err := aggregation.runner.Read(ctx, cypher, nil)
	if err != nil {
		var storeErr *graph.StoreError
		if errors.As(err, &storeErr) && storeErr.Retryable {
			return "", err
		}
		aggregation.logger.Warn("translated query failed", "cypher", cypher, "err", err)
		return NoResults, nil
	}

	items := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		if item := formatRecord(record, aggregation.hidden); item != "" {
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return NoResults, nil
	}

	return strings.Join(items, "\n\n"), nil
}

// formatRecord renders a row as sorted "key: value" pairs. Hidden properties are dropped, both as
// columns and inside returned nodes.
func formatRecord(record graph.Record, hidden map[string]struct{}) string {
	keys := make([]string, 0, len(record))
	for key := range record {
		if _, ok := hidden[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", key, withoutHidden(record[key], hidden)))
	}
	return strings.Join(parts, ", ")
}

func withoutHidden(value any, hidden map[string]struct{}) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if _, ok := hidden[key]; !ok {
				out[key] = withoutHidden(item, hidden)
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = withoutHidden(item, hidden)
		}
		return out
	default:
		return value
	}
}

var luceneReplacer = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `&`, `\&`, `|`, `\|`, `!`, `\!`, `(`, `\(`, `)`, `\)`,
	`{`, `\{`, `}`, `\}`, `[`, `\[`, `]`, `\]`, `^`, `\^`, `"`, `\"`, `~`, `\~`, `*`, `\*`,
	`?`, `\?`, `:`, `\:`, `/`, `\/`,
)

// escapeLucene quotes full-text query syntax so names like "AT&T (US)" match literally.
func escapeLucene(text string) string {
	return luceneReplacer.Replace(text)
}
