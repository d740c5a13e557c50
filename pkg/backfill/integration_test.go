package backfill

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/contract"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph/graphtest"
)

func TestBackfillAgainstNeo4j(t *testing.T) {
	store := graphtest.Store(t)
	ctx := context.Background()
	logger := log.New(io.Discard)

	Convey("Given a built graph with pending excerpts", t, func() {
		graphtest.Reset(t, store)

		report := graph.NewBuilder(store, 2, logger).BuildAll(ctx, []*contract.Agreement{
			graphtest.MSA(1),
			graphtest.Distribution(2),
		})
		So(report.Failed, ShouldBeEmpty)

		embedder := &MockEmbedder{}
		embedder.On("Embed", mock.Anything, mock.Anything).Return([]float64{0.1, 0.2, 0.3}, nil)
		worker := NewWorker(store, embedder, WithWorkers(2), WithLogger(logger))

		Convey("Running twice should embed each excerpt exactly once", func() {
			first, err := worker.Run(ctx)
			So(err, ShouldBeNil)
			So(first.Embedded, ShouldEqual, 2)

			stats, err := graph.GraphStats(ctx, store)
			So(err, ShouldBeNil)
			So(stats.Pending(), ShouldEqual, 0)

			second, err := worker.Run(ctx)
			So(err, ShouldBeNil)
			So(second.Embedded, ShouldEqual, 0)
			embedder.AssertNumberOfCalls(t, "Embed", 2)
		})
	})
}
