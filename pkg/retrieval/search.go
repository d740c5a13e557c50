package retrieval

import (
	"context"

	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/schema"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/vector"
)

// NativeIndex searches the graph store's own excerpt vector index.
type NativeIndex struct {
	runner graph.Runner
}

// NewNativeIndex searches the excerpt vector index through runner.
func NewNativeIndex(runner graph.Runner) *NativeIndex {
	return &NativeIndex{runner: runner}
}

func (index *NativeIndex) SearchExcerpts(ctx context.Context, vec []float64, topK int) (*graph.Result, error) {
	return index.runner.Read(ctx, vectorIndexCypher, map[string]any{
		"index_name": schema.ExcerptVectorIndex,
		"top_k":      int64(topK),
		"embedding":  vec,
	})
}

// MirrorIndex searches the Qdrant mirror and resolves the hits back in the graph.
type MirrorIndex struct {
	runner graph.Runner
	mirror vector.Mirror
}

// NewMirrorIndex searches mirror and traverses the hits through runner.
func NewMirrorIndex(runner graph.Runner, mirror vector.Mirror) *MirrorIndex {
	return &MirrorIndex{runner: runner, mirror: mirror}
}

func (index *MirrorIndex) SearchExcerpts(ctx context.Context, vec []float64, topK int) (*graph.Result, error) {
	hits, err := index.mirror.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		return &graph.Result{}, nil
	}

	params := make([]any, 0, len(hits))
	for _, hit := range hits {
		params = append(params, map[string]any{
			"element_id": hit.ElementID,
			"score":      float64(hit.Score),
		})
	}

	return index.runner.Read(ctx, mirrorHitsCypher, map[string]any{"hits": params})
}
