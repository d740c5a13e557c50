// Package graph holds the property-graph side of the contract knowledge graph: the Neo4j
// store adapter, the index manager, the graph builder and graph statistics.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	sdk "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Runner is the store-access primitive every component shares. Implementations execute one
// parameterized statement per call and report the outcome of that statement.
type Runner interface {
	// Read runs a statement in a read-only transaction
	Read(ctx context.Context, cypher string, params map[string]any) (*Result, error)

	// Write runs a statement in a write transaction
	Write(ctx context.Context, cypher string, params map[string]any) (*Result, error)
}

// Counters summarize what a write statement changed.
type Counters struct {
	NodesCreated         int
	RelationshipsCreated int
	PropertiesSet        int
	IndexesAdded         int
}

// Result is the outcome of one statement.
type Result struct {
	Records  []Record
	Counters Counters
}

// Options configures a Neo4jStore.
type Options struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
	Logger   *log.Logger
}

// Neo4jStore implements Runner on top of the Neo4j driver.
type Neo4jStore struct {
	client  sdk.DriverWithContext
	dbName  string
	timeout time.Duration
	logger  *log.Logger
}

// NewNeo4jStore connects to Neo4j and verifies connectivity.
func NewNeo4jStore(ctx context.Context, opts Options) (*Neo4jStore, error) {
	if opts.Database == "" {
		opts.Database = "neo4j"
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	driver, err := sdk.NewDriverWithContext(
		opts.URI,
		sdk.BasicAuth(opts.Username, opts.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, &StoreError{Op: "connect", Retryable: true, Err: err}
	}

	return &Neo4jStore{
		client:  driver,
		dbName:  opts.Database,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}, nil
}

// Read runs a statement in a read transaction.
func (store *Neo4jStore) Read(ctx context.Context, cypher string, params map[string]any) (*Result, error) {
	return store.run(ctx, sdk.AccessModeRead, cypher, params)
}

// Write runs a statement in a write transaction.
func (store *Neo4jStore) Write(ctx context.Context, cypher string, params map[string]any) (*Result, error) {
	return store.run(ctx, sdk.AccessModeWrite, cypher, params)
}

func (store *Neo4jStore) run(ctx context.Context, mode sdk.AccessMode, cypher string, params map[string]any) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, store.timeout)
	defer cancel()

	session := store.client.NewSession(ctx, sdk.SessionConfig{
		DatabaseName: store.dbName,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	work := func(tx sdk.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}

		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, err
		}

		counters := summary.Counters()

		return &Result{
			Records: fromDriverRecords(records),
			Counters: Counters{
				NodesCreated:         counters.NodesCreated(),
				RelationshipsCreated: counters.RelationshipsCreated(),
				PropertiesSet:        counters.PropertiesSet(),
				IndexesAdded:         counters.IndexesAdded(),
			},
		}, nil
	}

	var (
		out any
		err error
	)

	if mode == sdk.AccessModeRead {
		out, err = session.ExecuteRead(ctx, work)
	} else {
		out, err = session.ExecuteWrite(ctx, work)
	}

	if err != nil {
		storeErr := newStoreError(modeName(mode), err)
		store.logger.Error("statement failed", "mode", modeName(mode), "retryable", storeErr.Retryable, "err", err)
		return nil, storeErr
	}

	return out.(*Result), nil
}

// Close releases all resources held by the driver
func (store *Neo4jStore) Close(ctx context.Context) error {
	return store.client.Close(ctx)
}

func modeName(mode sdk.AccessMode) string {
	if mode == sdk.AccessModeRead {
		return "read"
	}
	return "write"
}

// ErrStore marks failures talking to the graph store.
var ErrStore = errors.New("graph store failure")

// StoreError wraps a connectivity, timeout or statement failure with enough context to retry.
type StoreError struct {
	Op        string
	Retryable bool
	Err       error
}

func newStoreError(op string, err error) *StoreError {
	return &StoreError{
		Op:        op,
		Retryable: errors.Is(err, context.DeadlineExceeded) || sdk.IsRetryable(err),
		Err:       err,
	}
}

func (e *StoreError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("graph store %s failed (retryable): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("graph store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
