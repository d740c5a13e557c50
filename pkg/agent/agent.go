// Package agent answers questions about the contract graph with an OpenAI tool-calling loop over
// the contract tools.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/tools"
)

// Instructions is the system prompt of the contract review agent.
const Instructions = `You are a seasoned legal expert specializing in commercial contract review and analysis.

Your expertise lies in:
- Identifying critical elements within legal documents
- Assessing compliance with legal standards
- Analyzing contractual relationships and obligations
- Providing clear, accurate information about contract terms

You have access to a knowledge graph of contracts with tools to:
- Retrieve specific contract details
- Search contracts by organization, clause type, or content
- Find semantic similarities across contract clauses
- Answer analytical questions about the contract database

Always provide accurate, well-structured responses based on the contract data.
When citing contract information, reference specific contract IDs when available.`

// MaxRounds bounds how many times the model may call tools before it has to answer.
const MaxRounds = 8

// ErrTooManyRounds means the model kept calling tools past MaxRounds.
var ErrTooManyRounds = errors.New("agent did not answer within the tool-calling budget")

// Agent is the contract review agent.
type Agent struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	tools   map[string]tools.Tool
	params  []openai.ChatCompletionToolParam
	logger  *log.Logger
}

// New creates an agent that may call every tool in toolset.
func New(cfg *config.Config, toolset []tools.Tool, logger *log.Logger, opts ...option.RequestOption) *Agent {
	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	requestOpts = append(requestOpts, opts...)

	model := cfg.OpenAI.ChatModel
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	timeout := cfg.Timeouts.Translation
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	if logger == nil {
		logger = log.Default()
	}

	byName := make(map[string]tools.Tool, len(toolset))
	for _, tool := range toolset {
		byName[tool.Name()] = tool
	}

	return &Agent{
		client:  openai.NewClient(requestOpts...),
		model:   model,
		timeout: timeout,
		tools:   byName,
		params:  tools.GetOpenAITools(toolset),
		logger:  logger,
	}
}

// Ask runs the conversation for one question and returns the final answer.
func (agent *Agent) Ask(ctx context.Context, question string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(Instructions),
			openai.UserMessage(question),
		}),
		Model:       openai.F(agent.model),
		Temperature: openai.F(0.0),
	}

	if len(agent.params) > 0 {
		params.Tools = openai.F(agent.params)
	}

	for round := 0; round < MaxRounds; round++ {
		message, err := agent.complete(ctx, params)
		if err != nil {
			return "", err
		}

		params.Messages.Value = append(params.Messages.Value, message)

		if len(message.ToolCalls) == 0 {
			return message.Content, nil
		}

		for _, call := range message.ToolCalls {
			output := agent.call(ctx, call)
			params.Messages.Value = append(params.Messages.Value, openai.ToolMessage(call.ID, output))
		}
	}

	return "", ErrTooManyRounds
}

func (agent *Agent) complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, agent.timeout)
	defer cancel()

	chat, err := agent.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("openai completion error: %w", err)
	}

	if len(chat.Choices) == 0 {
		return openai.ChatCompletionMessage{}, errors.New("openai completion error: no choices in response")
	}

	return chat.Choices[0].Message, nil
}

// call runs one tool call. Failures are reported back to the model as the tool's output.
func (agent *Agent) call(ctx context.Context, call openai.ChatCompletionMessageToolCall) string {
	tool, ok := agent.tools[call.Function.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", call.Function.Name)
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return "Error: " + err.Error()
	}

	agent.logger.Info("calling tool", "tool", call.Function.Name, "args", call.Function.Arguments)

	request := mcp.CallToolRequest{}
	request.Params.Name = call.Function.Name
	request.Params.Arguments = args

	result, err := tool.Handler(ctx, request)
	if err != nil {
		return "Error: " + err.Error()
	}

	if result.IsError {
		return "Error: " + tools.ResultText(result)
	}

	return tools.ResultText(result)
}
