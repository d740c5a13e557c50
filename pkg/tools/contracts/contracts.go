// Package contracts exposes the retrieval strategies as single-argument MCP tools.
package contracts

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/retrieval"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/tools"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/tools/utils"
)

type definition struct {
	description string
	param       tools.Param
}

var contractID = tools.Param{
	Name:        "contract_id",
	Kind:        tools.Integer,
	Description: "The ID of the contract (e.g. 1, 2, 3)",
}

var definitions = map[string]definition{
	retrieval.GetContract: {
		description: "Get detailed information about a contract by its ID, including parties, governing law, clause types and dates",
		param:       contractID,
	},
	retrieval.GetContractsByOrganization: {
		description: "Find all contracts where an organization is a party. Partial names are allowed; the best matching organization is used",
		param: tools.Param{
			Name:        "organization_name",
			Kind:        tools.String,
			Description: "Name of the organization to search for",
		},
	},
	retrieval.GetContractsWithClauseType: {
		description: "Get contracts that contain a type of clause, such as 'Non-Compete', 'Exclusivity', 'License grant', 'Price Restrictions' or 'Insurance'",
		param: tools.Param{
			Name:        "clause_type",
			Kind:        tools.String,
			Description: "The clause type to search for",
		},
	},
	retrieval.GetContractsWithoutClause: {
		description: "Get contracts that do NOT contain a type of clause. Useful for finding gaps in contract coverage",
		param: tools.Param{
			Name:        "clause_type",
			Kind:        tools.String,
			Description: "The clause type that must be absent",
		},
	},
	retrieval.GetContractsSimilarText: {
		description: "Find contract clauses semantically similar to a piece of text, with their contracts and matching excerpts",
		param: tools.Param{
			Name:        "clause_text",
			Kind:        tools.String,
			Description: "Text to search for, e.g. \"product delivery requirements\"",
		},
	},
	retrieval.AnswerAggregationQuestion: {
		description: "Answer analytical questions across the whole contract database, such as counts, averages or which organizations have the most contracts",
		param: tools.Param{
			Name:        "user_question",
			Kind:        tools.String,
			Description: "Natural language question about the contracts",
		},
	},
	retrieval.GetContractExcerpts: {
		description: "Get contract details including the full text excerpts of every clause",
		param:       contractID,
	},
}

// Tool runs one retrieval strategy.
type Tool struct {
	*tools.BaseTool
	strategy retrieval.Strategy
	param    tools.Param
	logger   *log.Logger
}

// New wraps strategy as a tool named after it.
func New(strategy retrieval.Strategy, logger *log.Logger) (*Tool, error) {
	def, ok := definitions[strategy.Name()]
	if !ok {
		return nil, fmt.Errorf("no tool definition for strategy %q", strategy.Name())
	}

	if logger == nil {
		logger = log.Default()
	}

	return &Tool{
		BaseTool: tools.NewBaseTool(strategy.Name(), def.description, def.param),
		strategy: strategy,
		param:    def.param,
		logger:   logger,
	}, nil
}

// All returns one tool per strategy of service, in tool order.
func All(service *retrieval.Service, logger *log.Logger) ([]tools.Tool, error) {
	strategies := service.Strategies()
	out := make([]tools.Tool, 0, len(strategies))

	for _, strategy := range strategies {
		tool, err := New(strategy, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, tool)
	}

	return out, nil
}

// Handler parses the single argument, runs the strategy and renders its result.
func (tool *Tool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		input retrieval.Input
		err   error
	)

	switch tool.param.Kind {
	case tools.Integer:
		input.ContractID, err = utils.GetRequiredIntParam(request, tool.param.Name)
	default:
		input.Text, err = utils.GetRequiredStringParam(request, tool.param.Name)
	}

	if err != nil {
		return tools.NewErrorResult(err), nil
	}

	tool.logger.Debug("tool call", "tool", tool.Name(), "input", request.Params.Arguments[tool.param.Name])

	out, err := tool.strategy.Run(ctx, input)
	if err != nil {
		return tool.failure(err), nil
	}

	if text, ok := out.(string); ok {
		return tools.NewTextResult(text), nil
	}

	return tools.NewJSONResult(out), nil
}

// failure renders rejected input and missing entities as a structured answer the caller can
// read; anything else is a tool error.
func (tool *Tool) failure(err error) *mcp.CallToolResult {
	if errors.Is(err, retrieval.ErrValidation) || errors.Is(err, retrieval.ErrNotFound) {
		return tools.NewJSONResult(map[string]string{"error": err.Error()})
	}

	tool.logger.Error("tool failed", "tool", tool.Name(), "err", err)
	return tools.NewErrorResult(err)
}
