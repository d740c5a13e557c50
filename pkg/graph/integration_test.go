package graph_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/contract"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph/graphtest"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/schema"
)

func relationshipCount(ctx context.Context, runner graph.Runner) int64 {
	result, err := runner.Read(ctx, "MATCH ()-[r]->() RETURN count(r) AS total", nil)
	So(err, ShouldBeNil)
	return result.Records[0].Int("total")
}

func TestBuilderAgainstNeo4j(t *testing.T) {
	store := graphtest.Store(t)
	ctx := context.Background()

	Convey("Given a live graph store", t, func() {
		graphtest.Reset(t, store)
		builder := graph.NewBuilder(store, 2, quietLogger())

		Convey("Building the same record twice should change nothing the second time", func() {
			_, err := builder.Build(ctx, graphtest.MSA(1))
			So(err, ShouldBeNil)

			first, err := graph.GraphStats(ctx, store)
			So(err, ShouldBeNil)
			firstRels := relationshipCount(ctx, store)

			again := graphtest.MSA(1)
			again.AgreementName = "renamed"
			counters, err := builder.Build(ctx, again)
			So(err, ShouldBeNil)
			So(counters.NodesCreated, ShouldEqual, 0)
			So(counters.RelationshipsCreated, ShouldEqual, 0)

			second, err := graph.GraphStats(ctx, store)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
			So(relationshipCount(ctx, store), ShouldEqual, firstRels)

			result, err := store.Read(ctx, "MATCH (a:Agreement {contract_id: 1}) RETURN a.name AS name", nil)
			So(err, ShouldBeNil)
			So(result.Records[0].String("name"), ShouldEqual, "MSA-001")
		})

		Convey("Absent clauses should produce no clause nodes", func() {
			_, err := builder.Build(ctx, graphtest.Distribution(2))
			So(err, ShouldBeNil)

			result, err := store.Read(ctx, `
				MATCH (:Agreement {contract_id: 2})-[:HAS_CLAUSE]->(cl:ContractClause)
				RETURN collect(cl.type) AS types`, nil)
			So(err, ShouldBeNil)
			So(result.Records[0].Strings("types"), ShouldResemble, []string{"Insurance"})
		})

		Convey("A shared excerpt should be one node reachable from both contracts", func() {
			report := builder.BuildAll(ctx, []*contract.Agreement{graphtest.MSA(1), graphtest.Distribution(2)})
			So(report.Failed, ShouldBeEmpty)

			result, err := store.Read(ctx, `
				MATCH (e:Excerpt {text: $text})
				OPTIONAL MATCH (cl:ContractClause)-[:HAS_EXCERPT]->(e)
				RETURN count(DISTINCT e) AS excerpts, count(DISTINCT cl) AS clauses`,
				map[string]any{"text": "Vendor shall maintain insurance."})
			So(err, ShouldBeNil)
			So(result.Records[0].Int("excerpts"), ShouldEqual, 1)
			So(result.Records[0].Int("clauses"), ShouldEqual, 2)

			stats, err := graph.GraphStats(ctx, store)
			So(err, ShouldBeNil)
			So(stats.Organizations, ShouldEqual, 2)
			So(stats.ClauseTypes, ShouldEqual, 1)
			So(stats.Clauses, ShouldEqual, 2)
		})

		Convey("An empty governing law country should not become a node", func() {
			_, err := builder.Build(ctx, graphtest.Distribution(2))
			So(err, ShouldBeNil)

			result, err := store.Read(ctx, "MATCH (c:Country {name: ''}) RETURN count(c) AS total", nil)
			So(err, ShouldBeNil)
			So(result.Records[0].Int("total"), ShouldEqual, 0)
		})

		Convey("Ensuring indices twice should create them once", func() {
			manager := graph.NewIndexManager(store, schema.VectorOptions{Dimensions: 8, Similarity: "cosine"}, quietLogger())

			first, err := manager.EnsureIndices(ctx)
			So(err, ShouldBeNil)
			total := len(schema.Indices(schema.VectorOptions{}))
			So(len(first.Created)+len(first.Existing), ShouldEqual, total)

			second, err := manager.EnsureIndices(ctx)
			So(err, ShouldBeNil)
			So(second.Created, ShouldBeEmpty)
			So(second.Existing, ShouldHaveLength, total)
		})

		Convey("Parallel builds of records sharing nodes should not duplicate them", func() {
			_, err := graph.NewIndexManager(store, schema.VectorOptions{Dimensions: 8, Similarity: "cosine"}, quietLogger()).
				EnsureIndices(ctx)
			So(err, ShouldBeNil)

			agreements := make([]*contract.Agreement, 0, 16)
			for id := int64(1); id <= 16; id++ {
				if id%2 == 0 {
					agreements = append(agreements, graphtest.Distribution(id))
					continue
				}
				agreements = append(agreements, graphtest.MSA(id))
			}

			report := graph.NewBuilder(store, 8, quietLogger()).BuildAll(ctx, agreements)
			So(report.Failed, ShouldBeEmpty)

			stats, err := graph.GraphStats(ctx, store)
			So(err, ShouldBeNil)
			So(stats.Agreements, ShouldEqual, 16)
			So(stats.Organizations, ShouldEqual, 2)
			So(stats.Countries, ShouldEqual, 2)
			So(stats.ClauseTypes, ShouldEqual, 1)
			So(stats.Excerpts, ShouldEqual, 2)
		})
	})
}
