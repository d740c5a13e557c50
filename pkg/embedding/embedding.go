// Package embedding turns text into fixed-width vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
)

// ErrEmptyText is returned for blank input, before any call is made.
var ErrEmptyText = errors.New("cannot embed empty text")

// Embedder is the embedding capability.
type Embedder interface {
	// Embed returns the vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions is the width of every returned vector.
	Dimensions() int
}

// OpenAIEmbedder handles text to vector conversion using OpenAI's API
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	timeout    time.Duration
}

// NewOpenAIEmbedder creates a new embedder from the OpenAI and embedding configuration.
func NewOpenAIEmbedder(cfg *config.Config, opts ...option.RequestOption) *OpenAIEmbedder {
	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	requestOpts = append(requestOpts, opts...)

	timeout := cfg.Timeouts.Embedding
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(requestOpts...),
		model:      cfg.OpenAI.EmbeddingModel,
		dimensions: cfg.Embedding.Dimensions,
		timeout:    timeout,
	}
}

// Dimensions returns the configured vector width.
func (embedder *OpenAIEmbedder) Dimensions() int {
	return embedder.dimensions
}

// Embed requests one embedding, bounded by the embedding timeout.
func (embedder *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, embedder.timeout)
	defer cancel()

	resp, err := embedder.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.F[openai.EmbeddingNewParamsInputUnion](openai.EmbeddingNewParamsInputArrayOfStrings([]string{text})),
		Model:      openai.F(openai.EmbeddingModel(embedder.model)),
		Dimensions: openai.F(int64(embedder.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding error: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("openai embedding error: empty response")
	}

	vector := resp.Data[0].Embedding
	if len(vector) != embedder.dimensions {
		return nil, fmt.Errorf("openai embedding error: got %d dimensions, want %d", len(vector), embedder.dimensions)
	}

	return vector, nil
}
