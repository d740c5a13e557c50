// Package vector mirrors excerpt embeddings into Qdrant as a secondary similarity backend.
package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	sdk "github.com/qdrant/go-client/qdrant"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
)

// Hit is one nearest-neighbour match, identified by the graph element id of its excerpt.
type Hit struct {
	ElementID string
	Text      string
	Score     float32
}

// Mirror stores and searches excerpt vectors outside the graph.
type Mirror interface {
	Upsert(ctx context.Context, elementID, text string, vector []float64) error
	Search(ctx context.Context, vector []float64, limit int) ([]Hit, error)
	// Missing returns the element ids that have no point in the mirror.
	Missing(ctx context.Context, elementIDs []string) ([]string, error)
}

// QdrantMirror implements Mirror on a Qdrant collection.
type QdrantMirror struct {
	client     *sdk.Client
	collection string
	dimensions int
	distance   sdk.Distance
	timeout    time.Duration
	logger     *log.Logger
}

// NewQdrantMirror connects to Qdrant. It does not touch the collection; call EnsureCollection.
func NewQdrantMirror(cfg *config.Config, logger *log.Logger) (*QdrantMirror, error) {
	if logger == nil {
		logger = log.Default()
	}

	client, err := sdk.NewClient(&sdk.Config{
		Host:                   cfg.Qdrant.Host,
		Port:                   cfg.Qdrant.Port,
		APIKey:                 cfg.Qdrant.APIKey,
		UseTLS:                 cfg.Qdrant.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	timeout := cfg.Timeouts.Store
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &QdrantMirror{
		client:     client,
		collection: cfg.Qdrant.Collection,
		dimensions: cfg.Embedding.Dimensions,
		distance:   Distance(cfg.Embedding.Similarity),
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if it doesn't exist
func (mirror *QdrantMirror) EnsureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mirror.timeout)
	defer cancel()

	collections, err := mirror.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == mirror.collection {
			return nil
		}
	}

	err = mirror.client.CreateCollection(ctx, &sdk.CreateCollection{
		CollectionName: mirror.collection,
		VectorsConfig: sdk.NewVectorsConfig(&sdk.VectorParams{
			Size:     uint64(mirror.dimensions),
			Distance: mirror.distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	mirror.logger.Info("created qdrant collection",
		"collection", mirror.collection,
		"dimensions", mirror.dimensions,
		"distance", mirror.distance.String(),
	)
	return nil
}

// Upsert writes the vector for one excerpt. The point id is derived from the element id, so
// writing the same excerpt again replaces its point.
func (mirror *QdrantMirror) Upsert(ctx context.Context, elementID, text string, vector []float64) error {
	ctx, cancel := context.WithTimeout(ctx, mirror.timeout)
	defer cancel()

	wait := true

	_, err := mirror.client.Upsert(ctx, &sdk.UpsertPoints{
		CollectionName: mirror.collection,
		Wait:           &wait,
		Points: []*sdk.PointStruct{
			{
				Id:      sdk.NewID(PointID(elementID)),
				Vectors: sdk.NewVectors(toFloat32(vector)...),
				Payload: sdk.NewValueMap(map[string]any{
					"element_id": elementID,
					"text":       text,
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// Search returns the closest excerpts to vector.
func (mirror *QdrantMirror) Search(ctx context.Context, vector []float64, limit int) ([]Hit, error) {
	ctx, cancel := context.WithTimeout(ctx, mirror.timeout)
	defer cancel()

	top := uint64(limit)

	points, err := mirror.client.Query(ctx, &sdk.QueryPoints{
		CollectionName: mirror.collection,
		Query:          sdk.NewQuery(toFloat32(vector)...),
		Limit:          &top,
		WithPayload:    sdk.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]Hit, 0, len(points))
	for _, point := range points {
		elementID := point.Payload["element_id"].GetStringValue()
		if elementID == "" {
			continue
		}
		hits = append(hits, Hit{
			ElementID: elementID,
			Text:      point.Payload["text"].GetStringValue(),
			Score:     point.Score,
		})
	}

	return hits, nil
}

// Missing looks the element ids up by their point ids and returns the ones Qdrant does not hold.
func (mirror *QdrantMirror) Missing(ctx context.Context, elementIDs []string) ([]string, error) {
	if len(elementIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, mirror.timeout)
	defer cancel()

	ids := make([]*sdk.PointId, 0, len(elementIDs))
	for _, elementID := range elementIDs {
		ids = append(ids, sdk.NewID(PointID(elementID)))
	}

	points, err := mirror.client.Get(ctx, &sdk.GetPoints{
		CollectionName: mirror.collection,
		Ids:            ids,
		WithPayload:    sdk.NewWithPayload(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get points: %w", err)
	}

	found := make(map[string]struct{}, len(points))
	for _, point := range points {
		found[point.GetId().GetUuid()] = struct{}{}
	}

	return absent(elementIDs, found), nil
}

// Close releases the client connection.
func (mirror *QdrantMirror) Close() error {
	return mirror.client.Close()
}

// PointID maps a graph element id onto a stable Qdrant point id.
func PointID(elementID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(elementID)).String()
}

// Distance maps the configured similarity function onto the Qdrant distance. Neo4j and Qdrant
// must rank excerpts the same way, so anything but euclidean means cosine.
func Distance(similarity string) sdk.Distance {
	if similarity == "euclidean" {
		return sdk.Distance_Euclid
	}
	return sdk.Distance_Cosine
}

func absent(elementIDs []string, found map[string]struct{}) []string {
	var missing []string
	for _, elementID := range elementIDs {
		if _, ok := found[PointID(elementID)]; !ok {
			missing = append(missing, elementID)
		}
	}
	return missing
}

func toFloat32(vector []float64) []float32 {
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(v)
	}
	return out
}
