// Package llm defines the completion capability and its OpenAI and Anthropic providers.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
)

// Schema asks a provider for structured output matching Value.
type Schema struct {
	Name        string
	Description string
	Value       any
}

// Request is a single-turn completion.
type Request struct {
	System string
	Prompt string
	Schema *Schema
}

// Completer is the completion capability.
type Completer interface {
	Complete(ctx context.Context, request Request) (string, error)
}

// New returns the completer selected by the translation provider setting.
func New(cfg *config.Config) (Completer, error) {
	switch cfg.Translation.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAICompleter(cfg), nil
	case config.ProviderAnthropic:
		return NewAnthropicCompleter(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported completion provider %q", cfg.Translation.Provider)
	}
}

// GenerateSchema reflects a strict JSON schema for T.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func schemaText(schema *Schema) string {
	buf, err := json.Marshal(schema.Value)
	if err != nil {
		return "{}"
	}
	return string(buf)
}
