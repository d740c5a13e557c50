package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
)

// AnthropicCompleter completes prompts with a Claude model.
type AnthropicCompleter struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewAnthropicCompleter creates a completer from the Anthropic configuration.
func NewAnthropicCompleter(cfg *config.Config, opts ...option.RequestOption) *AnthropicCompleter {
	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.Anthropic.APIKey)}
	requestOpts = append(requestOpts, opts...)

	model := cfg.Anthropic.Model
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}

	return &AnthropicCompleter{
		client:    anthropic.NewClient(requestOpts...),
		model:     model,
		maxTokens: 4096,
		timeout:   translationTimeout(cfg),
	}
}

// Complete sends one user message and concatenates the text blocks of the reply. Claude has no
// response format switch, so a requested schema is spelled out in the system prompt.
func (completer *AnthropicCompleter) Complete(ctx context.Context, request Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completer.timeout)
	defer cancel()

	system := request.System
	if request.Schema != nil {
		system += "\n\nRespond with a single JSON object and nothing else. It must match this JSON schema:\n" +
			schemaText(request.Schema)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(completer.model),
		MaxTokens: anthropic.Int(completer.maxTokens),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		}),
	}

	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	response, err := completer.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion error: %w", err)
	}

	text := ""
	for _, block := range response.Content {
		switch block := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text += block.Text
		}
	}

	if text == "" {
		return "", errors.New("anthropic completion error: no text in response")
	}

	return text, nil
}
