package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
)

// OpenAICompleter completes prompts with an OpenAI chat model.
type OpenAICompleter struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAICompleter creates a completer from the OpenAI configuration.
func NewOpenAICompleter(cfg *config.Config, opts ...option.RequestOption) *OpenAICompleter {
	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	requestOpts = append(requestOpts, opts...)

	model := cfg.OpenAI.ChatModel
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	return &OpenAICompleter{
		client:  openai.NewClient(requestOpts...),
		model:   model,
		timeout: translationTimeout(cfg),
	}
}

// Complete sends one system and one user message and returns the reply text.
func (completer *OpenAICompleter) Complete(ctx context.Context, request Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completer.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessageParamUnion{}
	if request.System != "" {
		messages = append(messages, openai.SystemMessage(request.System))
	}
	messages = append(messages, openai.UserMessage(request.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(completer.model),
		Temperature: openai.F(0.0),
	}

	if request.Schema != nil {
		params.ResponseFormat = openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONSchemaParam{
				Type: openai.F(openai.ResponseFormatJSONSchemaTypeJSONSchema),
				JSONSchema: openai.F(openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        openai.F(request.Schema.Name),
					Description: openai.F(request.Schema.Description),
					Schema:      openai.F(request.Schema.Value),
					Strict:      openai.Bool(true),
				}),
			},
		)
	}

	chat, err := completer.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai completion error: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", errors.New("openai completion error: no content in response")
	}

	return chat.Choices[0].Message.Content, nil
}

func translationTimeout(cfg *config.Config) time.Duration {
	if cfg.Timeouts.Translation > 0 {
		return cfg.Timeouts.Translation
	}
	return 60 * time.Second
}
