package graphtest

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/graph"
)

const (
	neo4jImage    = "neo4j:5"
	neo4jPassword = "contractgraph"
	boltPort      = nat.Port("7687/tcp")
)

/*
Store returns a graph store backed by a real Neo4j server, or skips the test.

NEO4J_TEST_URI points at an existing server (credentials from NEO4J_TEST_USERNAME and
NEO4J_TEST_PASSWORD). Otherwise CONTRACTGRAPH_DOCKER_TESTS=1 starts a throwaway neo4j:5
container which is removed when the test finishes. The returned store always starts empty.
*/
func Store(t *testing.T) *graph.Neo4jStore {
	t.Helper()

	ctx := context.Background()

	var opts graph.Options

	switch {
	case os.Getenv("NEO4J_TEST_URI") != "":
		opts = graph.Options{
			URI:      os.Getenv("NEO4J_TEST_URI"),
			Username: envOr("NEO4J_TEST_USERNAME", "neo4j"),
			Password: os.Getenv("NEO4J_TEST_PASSWORD"),
		}
	case os.Getenv("CONTRACTGRAPH_DOCKER_TESTS") == "1":
		uri, err := startContainer(ctx, t)
		if err != nil {
			t.Fatalf("starting neo4j container: %v", err)
		}
		opts = graph.Options{URI: uri, Username: "neo4j", Password: neo4jPassword}
	default:
		t.Skip("Skipping Neo4j integration test: set NEO4J_TEST_URI or CONTRACTGRAPH_DOCKER_TESTS=1")
	}

	opts.Timeout = 30 * time.Second
	opts.Logger = log.New(io.Discard)

	store, err := connect(ctx, opts, 90*time.Second)
	if err != nil {
		t.Fatalf("connecting to neo4j: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})

	Reset(t, store)

	return store
}

// Reset removes every node and relationship.
func Reset(t *testing.T, runner graph.Runner) {
	t.Helper()

	if _, err := runner.Write(context.Background(), "MATCH (n) DETACH DELETE n", nil); err != nil {
		t.Fatalf("resetting graph: %v", err)
	}
}

// connect retries until the server accepts connections, since a fresh container needs a while.
func connect(ctx context.Context, opts graph.Options, wait time.Duration) (*graph.Neo4jStore, error) {
	deadline := time.Now().Add(wait)

	for {
		store, err := graph.NewNeo4jStore(ctx, opts)
		if err == nil {
			return store, nil
		}

		if time.Now().After(deadline) {
			return nil, err
		}

		time.Sleep(2 * time.Second)
	}
}

func startContainer(ctx context.Context, t *testing.T) (string, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return "", err
	}

	reader, err := cli.ImagePull(ctx, neo4jImage, image.PullOptions{})
	if err != nil {
		return "", fmt.Errorf("pulling %s: %w", neo4jImage, err)
	}
	_, _ = io.Copy(io.Discard, reader)
	reader.Close()

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image:        neo4jImage,
		Env:          []string{"NEO4J_AUTH=neo4j/" + neo4jPassword},
		ExposedPorts: nat.PortSet{boltPort: struct{}{}},
	}, &container.HostConfig{
		PortBindings: nat.PortMap{
			boltPort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "0"}},
		},
	}, nil, nil, "")
	if err != nil {
		return "", err
	}

	t.Cleanup(func() {
		_ = cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
		cli.Close()
	})

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", err
	}

	inspect, err := cli.ContainerInspect(ctx, resp.ID)
	if err != nil {
		return "", err
	}

	bindings := inspect.NetworkSettings.Ports[boltPort]
	if len(bindings) == 0 {
		return "", fmt.Errorf("container %s exposes no bolt port", resp.ID)
	}

	return fmt.Sprintf("neo4j://127.0.0.1:%s", bindings[0].HostPort), nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
