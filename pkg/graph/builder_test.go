package graph_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/contract"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph/graphtest"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func agreementParam(params map[string]any) map[string]any {
	agreement, _ := params["agreement"].(map[string]any)
	return agreement
}

func forContract(id int64) any {
	return mock.MatchedBy(func(params map[string]any) bool {
		return agreementParam(params)["contract_id"] == id
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a builder over a mock runner", t, func() {
		runner := &graphtest.MockRunner{}
		builder := graph.NewBuilder(runner, 2, quietLogger())
		ctx := context.Background()

		Convey("An invalid record should fail without issuing a statement", func() {
			record := graphtest.MSA(1)
			record.Parties[0].Name = ""

			_, err := builder.Build(ctx, record)

			So(errors.Is(err, contract.ErrInvalidRecord), ShouldBeTrue)
			runner.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
		})

		Convey("A valid record should be written as one statement", func() {
			var captured map[string]any

			runner.On("Write", mock.Anything, graphtest.Containing("MERGE (agreement:Agreement"), mock.Anything).
				Run(func(args mock.Arguments) {
					captured = agreementParam(args.Get(2).(map[string]any))
				}).
				Return(&graph.Result{Counters: graph.Counters{NodesCreated: 6}}, nil).Once()

			record := graphtest.Distribution(2)
			record.Clauses[0].Excerpts = append(record.Clauses[0].Excerpts, "   ")

			counters, err := builder.Build(ctx, record)

			So(err, ShouldBeNil)
			So(counters.NodesCreated, ShouldEqual, 6)
			runner.AssertNumberOfCalls(t, "Write", 1)

			Convey("Only present clauses should be sent", func() {
				clauses := captured["clauses"].([]any)
				So(clauses, ShouldHaveLength, 1)
				So(clauses[0].(map[string]any)["clause_type"], ShouldEqual, "Insurance")
			})

			Convey("Blank excerpts should be dropped", func() {
				excerpts := captured["clauses"].([]any)[0].(map[string]any)["excerpts"].([]any)
				So(excerpts, ShouldResemble, []any{"Vendor shall maintain insurance.", "Coverage of at least $1M."})
			})

			Convey("Parties and the empty governing law should pass through", func() {
				So(captured["parties"], ShouldHaveLength, 2)
				So(captured["governing_country"], ShouldEqual, "")
			})
		})

		Convey("A store failure should be returned with the contract id", func() {
			runner.On("Write", mock.Anything, mock.Anything, mock.Anything).
				Return(nil, &graph.StoreError{Op: "write", Err: errors.New("connection refused")}).Once()

			_, err := builder.Build(ctx, graphtest.MSA(3))

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "building contract 3")
			So(errors.Is(err, graph.ErrStore), ShouldBeTrue)
		})
	})
}

func TestBuildAll(t *testing.T) {
	Convey("Given a batch where one record fails in the store and one is invalid", t, func() {
		runner := &graphtest.MockRunner{}
		builder := graph.NewBuilder(runner, 3, quietLogger())

		runner.On("Write", mock.Anything, mock.Anything, forContract(1)).
			Return(&graph.Result{Counters: graph.Counters{NodesCreated: 5, RelationshipsCreated: 5}}, nil)
		runner.On("Write", mock.Anything, mock.Anything, forContract(2)).
			Return(nil, errors.New("deadlock"))
		runner.On("Write", mock.Anything, mock.Anything, forContract(4)).
			Return(&graph.Result{Counters: graph.Counters{NodesCreated: 2, RelationshipsCreated: 1}}, nil)

		invalid := graphtest.MSA(3)
		invalid.Parties[0].Role = ""

		report := builder.BuildAll(context.Background(), []*contract.Agreement{
			graphtest.MSA(1),
			graphtest.Distribution(2),
			invalid,
			graphtest.Distribution(4),
		})

		Convey("The remaining records should still be built", func() {
			So(report.Built, ShouldEqual, 2)
			So(report.Counters.NodesCreated, ShouldEqual, 7)
			So(report.Counters.RelationshipsCreated, ShouldEqual, 6)
		})

		Convey("Each failure should be reported against its record", func() {
			So(report.Failed, ShouldHaveLength, 2)

			failed := map[int64]error{}
			for _, failure := range report.Failed {
				failed[failure.ContractID] = failure.Err
			}
			So(failed, ShouldContainKey, int64(2))
			So(errors.Is(failed[3], contract.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestBuildAllSharedNodes(t *testing.T) {
	Convey("Given many records that share a party and an excerpt", t, func() {
		runner := &graphtest.MockRunner{}
		builder := graph.NewBuilder(runner, 8, quietLogger())

		var (
			mu       sync.Mutex
			inFlight int
			maxSeen  int
		)

		runner.On("Write", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				mu.Lock()
				inFlight++
				if inFlight > maxSeen {
					maxSeen = inFlight
				}
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
			}).
			Return(graphtest.Empty(), nil)

		agreements := make([]*contract.Agreement, 0, 8)
		for id := int64(1); id <= 8; id++ {
			agreements = append(agreements, graphtest.MSA(id))
		}

		report := builder.BuildAll(context.Background(), agreements)

		Convey("Writes that merge the same nodes should never overlap", func() {
			So(report.Built, ShouldEqual, 8)
			So(maxSeen, ShouldEqual, 1)
			runner.AssertNumberOfCalls(t, "Write", 8)
		})
	})

	Convey("Given records with nothing in common", t, func() {
		runner := &graphtest.MockRunner{}
		builder := graph.NewBuilder(runner, 2, quietLogger())

		started := make(chan struct{}, 2)
		release := make(chan struct{})

		runner.On("Write", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				started <- struct{}{}
				<-release
			}).
			Return(graphtest.Empty(), nil)

		first := &contract.Agreement{ContractID: 1, Parties: []contract.Party{{Name: "Acme Corp", Role: "Vendor"}}}
		second := &contract.Agreement{ContractID: 2, Parties: []contract.Party{{Name: "Globex Ltd", Role: "Vendor"}}}

		done := make(chan *graph.BatchReport)
		go func() {
			done <- builder.BuildAll(context.Background(), []*contract.Agreement{first, second})
		}()

		concurrent := true
		for i := 0; i < 2; i++ {
			select {
			case <-started:
			case <-time.After(time.Second):
				concurrent = false
			}
		}
		close(release)
		report := <-done

		Convey("They should be written in parallel", func() {
			So(concurrent, ShouldBeTrue)
			So(report.Built, ShouldEqual, 2)
		})
	})
}

func TestIngestSingleRecord(t *testing.T) {
	Convey("Given one extracted record with no contract id and no agreement type", t, func() {
		dir := t.TempDir()
		body := `{"agreement": {
			"agreement_name": "MSA-001",
			"parties": [{"name": "Acme Corp", "role": "Vendor", "incorporation_country": "USA"}],
			"clauses": [{"clause_type": "Insurance", "exists": true, "excerpts": ["Vendor shall maintain insurance."]}]
		}}`
		So(os.WriteFile(filepath.Join(dir, "msa.json"), []byte(body), 0o644), ShouldBeNil)

		agreements, failures, err := contract.LoadDir(dir)
		So(err, ShouldBeNil)
		So(failures, ShouldBeEmpty)

		runner := &graphtest.MockRunner{}
		var captured map[string]any
		runner.On("Write", mock.Anything, graphtest.Containing("MERGE (agreement:Agreement"), mock.Anything).
			Run(func(args mock.Arguments) {
				captured = agreementParam(args.Get(2).(map[string]any))
			}).
			Return(&graph.Result{Counters: graph.Counters{NodesCreated: 6}}, nil)

		report := graph.NewBuilder(runner, 4, quietLogger()).BuildAll(context.Background(), agreements)

		Convey("It should be built as contract 1", func() {
			So(report.Failed, ShouldBeEmpty)
			So(report.Built, ShouldEqual, 1)
			So(captured["contract_id"], ShouldEqual, int64(1))
			So(captured["name"], ShouldEqual, "MSA-001")
			So(captured["agreement_type"], ShouldEqual, "")
		})

		Convey("Its party and clause should be sent with the record", func() {
			So(captured["parties"], ShouldResemble, []any{map[string]any{
				"name":                  "Acme Corp",
				"role":                  "Vendor",
				"incorporation_country": "USA",
				"incorporation_state":   "",
			}})
			So(captured["clauses"], ShouldResemble, []any{map[string]any{
				"clause_type": "Insurance",
				"excerpts":    []any{"Vendor shall maintain insurance."},
			}})
		})
	})
}
