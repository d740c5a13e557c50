// Package backfill fills in missing excerpt embeddings.
package backfill

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/embedding"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/vector"
	"golang.org/x/sync/errgroup"
)

const pendingCypher = `
MATCH (e:Excerpt)
WHERE e.text IS NOT NULL AND e.embedding IS NULL
RETURN elementId(e) AS element_id, e.text AS text
`

// storeCypher re-checks the null predicate at write time, so a vector written by a concurrent
// run is never replaced.
const storeCypher = `
MATCH (e:Excerpt)
WHERE elementId(e) = $element_id AND e.embedding IS NULL
SET e.embedding = $embedding
RETURN count(e) AS updated
`

const embeddedCypher = `
MATCH (e:Excerpt)
WHERE e.embedding IS NOT NULL
RETURN elementId(e) AS element_id
`

const vectorsCypher = `
MATCH (e:Excerpt)
WHERE elementId(e) IN $element_ids AND e.embedding IS NOT NULL
RETURN elementId(e) AS element_id, e.text AS text, e.embedding AS embedding
`

const (
	progressEvery = 10
	syncBatch     = 256
)

// ItemFailure is one excerpt that stays pending.
type ItemFailure struct {
	ElementID string
	Err       error
}

// Report is the outcome of one backfill run. The mirror counts stay zero without a mirror.
type Report struct {
	Pending      int
	Embedded     int
	Skipped      int
	Failed       []ItemFailure
	Mirrored     int
	MirrorFailed []ItemFailure
}

// Worker embeds every pending excerpt.
type Worker struct {
	runner   graph.Runner
	embedder embedding.Embedder
	mirror   vector.Mirror
	workers  int
	logger   *log.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithMirror keeps mirror in step with the graph: after embedding, every embedded excerpt the
// mirror lacks is upserted.
func WithMirror(mirror vector.Mirror) Option {
	return func(worker *Worker) {
		worker.mirror = mirror
	}
}

// WithWorkers bounds how many excerpts are embedded at once.
func WithWorkers(n int) Option {
	return func(worker *Worker) {
		if n > 0 {
			worker.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(worker *Worker) {
		if logger != nil {
			worker.logger = logger
		}
	}
}

// NewWorker creates a backfill worker.
func NewWorker(runner graph.Runner, embedder embedding.Embedder, opts ...Option) *Worker {
	worker := &Worker{
		runner:   runner,
		embedder: embedder,
		workers:  1,
		logger:   log.Default(),
	}

	for _, opt := range opts {
		opt(worker)
	}

	return worker
}

type pendingExcerpt struct {
	elementID string
	text      string
}

// Run embeds every excerpt that has text and no vector. A failing item is logged, counted and
// left pending for the next run; only failing to list the pending excerpts aborts the run.
func (worker *Worker) Run(ctx context.Context) (*Report, error) {
	result, err := worker.runner.Read(ctx, pendingCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("listing pending excerpts: %w", err)
	}

	pending := make([]pendingExcerpt, 0, len(result.Records))
	for _, record := range result.Records {
		pending = append(pending, pendingExcerpt{
			elementID: record.String("element_id"),
			text:      record.String("text"),
		})
	}

	report := &Report{Pending: len(pending)}
	if len(pending) == 0 {
		worker.logger.Info("all excerpts already have embeddings")
		return report, worker.syncMirror(ctx, report)
	}

	worker.logger.Info("generating embeddings", "excerpts", len(pending), "workers", worker.workers)

	var (
		mu    sync.Mutex
		group errgroup.Group
	)

	group.SetLimit(worker.workers)

	for _, excerpt := range pending {
		group.Go(func() error {
			stored, err := worker.embed(ctx, excerpt)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				worker.logger.Warn("failed to embed excerpt", "element_id", excerpt.elementID, "err", err)
				report.Failed = append(report.Failed, ItemFailure{ElementID: excerpt.elementID, Err: err})
			case !stored:
				report.Skipped++
			default:
				report.Embedded++
				if report.Embedded%progressEvery == 0 || report.Embedded == len(pending) {
					worker.logger.Info("backfill progress", "embedded", report.Embedded, "pending", len(pending))
				}
			}

			return nil
		})
	}

	_ = group.Wait()

	worker.logger.Info(
		"backfill finished",
		"embedded", report.Embedded,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
	)

	return report, worker.syncMirror(ctx, report)
}

// syncMirror upserts every embedded excerpt the mirror does not hold yet. That covers vectors
// whose mirror write failed in an earlier run and excerpts embedded before the mirror existed.
// A failing upsert is reported and retried on the next run.
func (worker *Worker) syncMirror(ctx context.Context, report *Report) error {
	if worker.mirror == nil {
		return nil
	}

	result, err := worker.runner.Read(ctx, embeddedCypher, nil)
	if err != nil {
		return fmt.Errorf("listing embedded excerpts: %w", err)
	}

	elementIDs := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		elementIDs = append(elementIDs, record.String("element_id"))
	}

	for start := 0; start < len(elementIDs); start += syncBatch {
		batch := elementIDs[start:min(start+syncBatch, len(elementIDs))]

		missing, err := worker.mirror.Missing(ctx, batch)
		if err != nil {
			return fmt.Errorf("checking mirror: %w", err)
		}

		if len(missing) == 0 {
			continue
		}

		vectors, err := worker.runner.Read(ctx, vectorsCypher, map[string]any{"element_ids": missing})
		if err != nil {
			return fmt.Errorf("reading excerpt vectors: %w", err)
		}

		for _, record := range vectors.Records {
			elementID := record.String("element_id")

			if err := worker.mirror.Upsert(ctx, elementID, record.String("text"), record.Floats("embedding")); err != nil {
				worker.logger.Warn("failed to mirror excerpt vector", "element_id", elementID, "err", err)
				report.MirrorFailed = append(report.MirrorFailed, ItemFailure{ElementID: elementID, Err: err})
				continue
			}
			report.Mirrored++
		}
	}

	if report.Mirrored > 0 || len(report.MirrorFailed) > 0 {
		worker.logger.Info("mirror synced", "mirrored", report.Mirrored, "failed", len(report.MirrorFailed))
	}

	return nil
}

// embed computes and stores one vector. It reports false when another run got there first.
func (worker *Worker) embed(ctx context.Context, excerpt pendingExcerpt) (bool, error) {
	vec, err := worker.embedder.Embed(ctx, excerpt.text)
	if err != nil {
		return false, err
	}

	result, err := worker.runner.Write(ctx, storeCypher, map[string]any{
		"element_id": excerpt.elementID,
		"embedding":  vec,
	})
	if err != nil {
		return false, err
	}

	if len(result.Records) == 0 || result.Records[0].Int("updated") == 0 {
		return false, nil
	}

	return true, nil
}
