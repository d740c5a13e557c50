package retrieval

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/embedding"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/schema"
)

// Service composes the query strategies into one surface.
type Service struct {
	contract      *ContractLookup
	excerpts      *ContractLookup
	organization  *OrganizationSearch
	withClause    *ClauseSearch
	withoutClause *ClauseSearch
	similar       *SimilarText
	aggregation   *Aggregation
}

// Option configures a Service.
type Option func(*options)

type options struct {
	search ExcerptSearch
	topK   int
	logger *log.Logger
}

// WithExcerptSearch replaces the store's native vector index as the similarity backend.
func WithExcerptSearch(search ExcerptSearch) Option {
	return func(o *options) {
		o.search = search
	}
}

// WithTopK sets how many excerpts the similarity search returns.
func WithTopK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewService wires every strategy to the same runner.
func NewService(runner graph.Runner, embedder embedding.Embedder, translator Translator, opts ...Option) *Service {
	o := &options{topK: 3, logger: log.Default()}
	for _, opt := range opts {
		opt(o)
	}

	if o.search == nil {
		o.search = NewNativeIndex(runner)
	}

	return &Service{
		contract:      &ContractLookup{runner: runner},
		excerpts:      &ContractLookup{runner: runner, excerpts: true},
		organization:  &OrganizationSearch{runner: runner},
		withClause:    &ClauseSearch{runner: runner},
		withoutClause: &ClauseSearch{runner: runner, negate: true},
		similar:       &SimilarText{embedder: embedder, search: o.search, topK: o.topK},
		aggregation:   &Aggregation{
			runner:     runner,
			translator: translator,
			hidden:     schema.Contracts().HiddenProperties(),
			logger:     o.logger,
		},
	}
}

// Strategies lists every strategy in tool order.
func (service *Service) Strategies() []Strategy {
	return []Strategy{
		service.contract,
		service.organization,
		service.withClause,
		service.withoutClause,
		service.similar,
		service.aggregation,
		service.excerpts,
	}
}

// Strategy returns the strategy called name.
func (service *Service) Strategy(name string) (Strategy, error) {
	for _, strategy := range service.Strategies() {
		if strategy.Name() == name {
			return strategy, nil
		}
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// GetContract returns the full detail of one agreement.
func (service *Service) GetContract(ctx context.Context, id int64) (*ContractDetail, error) {
	out, err := service.contract.Run(ctx, Input{ContractID: id})
	if err != nil {
		return nil, err
	}
	return out.(*ContractDetail), nil
}

// GetContractsByOrganization lists the agreements of the best matching organization.
func (service *Service) GetContractsByOrganization(ctx context.Context, name string) ([]ContractSummary, error) {
	return summaries(service.organization.Run(ctx, Input{Text: name}))
}

// GetContractsWithClauseType lists the agreements that have clauseType.
func (service *Service) GetContractsWithClauseType(ctx context.Context, clauseType string) ([]ContractSummary, error) {
	return summaries(service.withClause.Run(ctx, Input{Text: clauseType}))
}

// GetContractsWithoutClause lists the agreements that lack clauseType.
func (service *Service) GetContractsWithoutClause(ctx context.Context, clauseType string) ([]ContractSummary, error) {
	return summaries(service.withoutClause.Run(ctx, Input{Text: clauseType}))
}

// GetContractsSimilarText returns the excerpts closest in meaning to text.
func (service *Service) GetContractsSimilarText(ctx context.Context, text string) ([]SimilarExcerpt, error) {
	out, err := service.similar.Run(ctx, Input{Text: text})
	if err != nil {
		return nil, err
	}
	return out.([]SimilarExcerpt), nil
}

// AnswerAggregationQuestion answers an analytical question on a best-effort basis.
func (service *Service) AnswerAggregationQuestion(ctx context.Context, question string) (string, error) {
	return service.aggregation.Answer(ctx, question)
}

// GetContractExcerpts returns the full detail of one agreement with every clause's excerpts.
func (service *Service) GetContractExcerpts(ctx context.Context, id int64) (*ContractExcerpts, error) {
	out, err := service.excerpts.Run(ctx, Input{ContractID: id})
	if err != nil {
		return nil, err
	}
	return out.(*ContractExcerpts), nil
}

func summaries(out any, err error) ([]ContractSummary, error) {
	if err != nil {
		return nil, err
	}
	return out.([]ContractSummary), nil
}
