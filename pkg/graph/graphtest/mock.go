// Package graphtest holds test doubles and a live Neo4j harness for code built on graph.Runner.
package graphtest

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
)

// MockRunner is a testify mock of graph.Runner.
type MockRunner struct {
	mock.Mock
}

// Read records the call and returns the scripted result.
func (m *MockRunner) Read(ctx context.Context, cypher string, params map[string]any) (*graph.Result, error) {
	args := m.Called(ctx, cypher, params)
	result, _ := args.Get(0).(*graph.Result)
	return result, args.Error(1)
}

// Write records the call and returns the scripted result.
func (m *MockRunner) Write(ctx context.Context, cypher string, params map[string]any) (*graph.Result, error) {
	args := m.Called(ctx, cypher, params)
	result, _ := args.Get(0).(*graph.Result)
	return result, args.Error(1)
}

// Containing matches a statement that contains fragment.
func Containing(fragment string) any {
	return mock.MatchedBy(func(cypher string) bool {
		return strings.Contains(cypher, fragment)
	})
}

// Rows wraps records into a result.
func Rows(records ...graph.Record) *graph.Result {
	return &graph.Result{Records: records}
}

// Empty is a result with no rows and no changes.
func Empty() *graph.Result {
	return &graph.Result{}
}
