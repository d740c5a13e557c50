// Package app wires the configured store, capabilities and tools together for the commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/embedding"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/llm"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/retrieval"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/schema"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/text2cypher"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/tools"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/tools/contracts"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/vector"
)

// App holds the long-lived clients. Mirror is nil unless Qdrant is configured.
type App struct {
	Config   *config.Config
	Store    *graph.Neo4jStore
	Embedder *embedding.OpenAIEmbedder
	Mirror   *vector.QdrantMirror
	Logger   *log.Logger
}

// Open connects to the graph store and, when configured, the Qdrant mirror.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	store, err := graph.NewNeo4jStore(ctx, graph.Options{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
		Timeout:  cfg.Timeouts.Store,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	app := &App{
		Config:   cfg,
		Store:    store,
		Embedder: embedding.NewOpenAIEmbedder(cfg),
		Logger:   logger,
	}

	if err := CheckDimensions(ctx, store, app.Embedder); err != nil {
		_ = store.Close(ctx)
		return nil, err
	}

	if cfg.QdrantEnabled() {
		if app.Mirror, err = vector.NewQdrantMirror(cfg, logger); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
	}

	return app, nil
}

// CheckDimensions fails when the excerpt vector index exists with a width other than the one the
// embedder produces. Every similarity query would fail against it.
func CheckDimensions(ctx context.Context, runner graph.Runner, embedder embedding.Embedder) error {
	dimensions, exists, err := graph.VectorIndexDimensions(ctx, runner, schema.ExcerptVectorIndex)
	if err != nil {
		return fmt.Errorf("reading vector index: %w", err)
	}

	if exists && dimensions != embedder.Dimensions() {
		return fmt.Errorf(
			"%s has %d dimensions but the embedder produces %d; set EMBEDDING_DIMENSIONS to match or recreate the index",
			schema.ExcerptVectorIndex, dimensions, embedder.Dimensions(),
		)
	}

	return nil
}

// Service builds the retrieval service with the configured translation provider and similarity
// backend.
func (app *App) Service() (*retrieval.Service, error) {
	completer, err := llm.New(app.Config)
	if err != nil {
		return nil, err
	}

	translator := text2cypher.NewTranslator(completer, schema.Contracts().Describe(), app.Logger)

	opts := []retrieval.Option{
		retrieval.WithTopK(app.Config.Retrieval.TopK),
		retrieval.WithLogger(app.Logger),
	}

	if app.Config.Retrieval.VectorBackend == config.BackendQdrant {
		if app.Mirror == nil {
			return nil, errors.New("vector backend qdrant needs QDRANT_HOST")
		}
		opts = append(opts, retrieval.WithExcerptSearch(retrieval.NewMirrorIndex(app.Store, app.Mirror)))
	}

	return retrieval.NewService(app.Store, app.Embedder, translator, opts...), nil
}

// Tools returns the contract tools over a freshly built service.
func (app *App) Tools() ([]tools.Tool, error) {
	service, err := app.Service()
	if err != nil {
		return nil, err
	}
	return contracts.All(service, app.Logger)
}

// Close releases every client.
func (app *App) Close(ctx context.Context) error {
	var errs []error

	if app.Mirror != nil {
		errs = append(errs, app.Mirror.Close())
	}
	errs = append(errs, app.Store.Close(ctx))

	return errors.Join(errs...)
}
