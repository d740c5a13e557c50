// Command ingest ensures the graph indices and constraints, loads extracted contract records into
// the graph and fills in excerpt embeddings.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/app"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/backfill"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/contract"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/schema"
)

func main() {
	dir := pflag.StringP("dir", "d", "", "directory of extracted *.json records (default INGEST_DIR)")
	skipBackfill := pflag.Bool("skip-backfill", false, "do not compute missing excerpt embeddings")
	envFile := pflag.String("env", ".env", "optional .env file")
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "ingest",
		ReportTimestamp: true,
	}).With("run", uuid.NewString())

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Fatal("loading configuration", "err", err)
	}

	if *dir != "" {
		cfg.Ingest.Dir = *dir
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	ctx := context.Background()

	application, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("starting", "err", err)
	}
	defer application.Close(ctx)

	if err := run(ctx, application, *skipBackfill); err != nil {
		logger.Error("ingest failed", "err", err)
		application.Close(ctx)
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.App, skipBackfill bool) error {
	cfg := application.Config
	logger := application.Logger

	agreements, loadFailures, err := contract.LoadDir(cfg.Ingest.Dir)
	if err != nil {
		return err
	}

	for _, failure := range loadFailures {
		logger.Warn("skipping record file", "path", failure.Path, "err", failure.Err)
	}

	logger.Info("loaded records", "dir", cfg.Ingest.Dir, "records", len(agreements), "skipped", len(loadFailures))

	indices, err := graph.NewIndexManager(application.Store, schema.VectorOptions{
		Dimensions: cfg.Embedding.Dimensions,
		Similarity: cfg.Embedding.Similarity,
	}, logger).EnsureIndices(ctx)
	if err != nil {
		return err
	}
	logger.Info("indices ready", "created", indices.Created, "existing", indices.Existing)

	batch := graph.NewBuilder(application.Store, cfg.Ingest.Workers, logger).BuildAll(ctx, agreements)
	logger.Info("built graph",
		"built", batch.Built,
		"failed", len(batch.Failed),
		"nodes_created", batch.Counters.NodesCreated,
		"relationships_created", batch.Counters.RelationshipsCreated,
	)

	if application.Mirror != nil {
		if err := application.Mirror.EnsureCollection(ctx); err != nil {
			return err
		}
	}

	if !skipBackfill {
		opts := []backfill.Option{
			backfill.WithWorkers(cfg.Backfill.Workers),
			backfill.WithLogger(logger),
		}
		if application.Mirror != nil {
			opts = append(opts, backfill.WithMirror(application.Mirror))
		}

		report, err := backfill.NewWorker(application.Store, application.Embedder, opts...).Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("backfill finished",
			"pending", report.Pending,
			"embedded", report.Embedded,
			"skipped", report.Skipped,
			"failed", len(report.Failed),
			"mirrored", report.Mirrored,
			"mirror_failed", len(report.MirrorFailed),
		)
	}

	stats, err := graph.GraphStats(ctx, application.Store)
	if err != nil {
		return err
	}

	logger.Info("graph statistics",
		"agreements", stats.Agreements,
		"organizations", stats.Organizations,
		"countries", stats.Countries,
		"clauses", stats.Clauses,
		"clause_types", stats.ClauseTypes,
		"excerpts", stats.Excerpts,
		"embedded_excerpts", stats.EmbeddedExcerpts,
	)

	return nil
}
