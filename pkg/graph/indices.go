package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/schema"
)

const (
	showIndexCypher      = `SHOW INDEXES YIELD name WHERE name = $name RETURN name`
	vectorOptionsCypher  = `SHOW INDEXES YIELD name, options WHERE name = $name RETURN options`
	showConstraintCypher = `SHOW CONSTRAINTS YIELD name WHERE name = $name RETURN name`
)

// IndexReport lists which indices were created and which already existed.
type IndexReport struct {
	Created  []string
	Existing []string
}

// IndexManager idempotently ensures the contract graph indices and constraints exist. Run it
// before building, so concurrent merges of shared nodes are backed by the constraints.
type IndexManager struct {
	runner  Runner
	indices []schema.Index
	logger  *log.Logger
}

// NewIndexManager creates an index manager for the given vector index options.
func NewIndexManager(runner Runner, vector schema.VectorOptions, logger *log.Logger) *IndexManager {
	if logger == nil {
		logger = log.Default()
	}

	return &IndexManager{
		runner:  runner,
		indices: schema.Indices(vector),
		logger:  logger,
	}
}

// EnsureIndices checks each index by name and creates the ones that are missing. A failing
// index does not stop the others; all failures are returned together.
func (manager *IndexManager) EnsureIndices(ctx context.Context) (*IndexReport, error) {
	report := &IndexReport{}
	var errs []error

	for _, index := range manager.indices {
		exists, err := manager.exists(ctx, index)
		if err != nil {
			errs = append(errs, fmt.Errorf("checking index %s: %w", index.Name, err))
			continue
		}

		if exists {
			manager.logger.Info("index already exists", "index", index.Name)
			report.Existing = append(report.Existing, index.Name)
			continue
		}

		if _, err := manager.runner.Write(ctx, index.Cypher(), nil); err != nil {
			errs = append(errs, fmt.Errorf("creating index %s: %w", index.Name, err))
			continue
		}

		manager.logger.Info("created index", "index", index.Name, "kind", index.Kind)
		report.Created = append(report.Created, index.Name)
	}

	return report, errors.Join(errs...)
}

func (manager *IndexManager) exists(ctx context.Context, index schema.Index) (bool, error) {
	show := showIndexCypher
	if index.Kind == schema.IndexUnique {
		show = showConstraintCypher
	}

	result, err := manager.runner.Read(ctx, show, map[string]any{"name": index.Name})
	if err != nil {
		return false, err
	}
	return len(result.Records) > 0, nil
}

// VectorIndexDimensions reads the width the named vector index was created with. It reports
// false when the index does not exist yet.
func VectorIndexDimensions(ctx context.Context, runner Runner, name string) (int, bool, error) {
	result, err := runner.Read(ctx, vectorOptionsCypher, map[string]any{"name": name})
	if err != nil {
		return 0, false, err
	}

	if len(result.Records) == 0 {
		return 0, false, nil
	}

	indexConfig, _ := result.Records[0].Map("options")["indexConfig"].(map[string]any)
	return int(IntValue(indexConfig, "vector.dimensions")), true, nil
}
