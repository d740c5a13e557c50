package graph

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/contract"
	"golang.org/x/sync/errgroup"
)

// buildCypher upserts one agreement and everything hanging off it in a single statement.
// Agreement core properties are only written ON CREATE, so a re-ingest never overwrites them.
// Contract clauses are merged on the pattern anchored at the agreement, which keeps them
// scoped per agreement; excerpts are merged globally by exact text before being linked.
const buildCypher = `
WITH $agreement AS a
MERGE (agreement:Agreement {contract_id: a.contract_id})
ON CREATE SET
  agreement.name = a.name,
  agreement.effective_date = a.effective_date,
  agreement.expiration_date = a.expiration_date,
  agreement.agreement_type = a.agreement_type,
  agreement.renewal_term = a.renewal_term,
  agreement.notice_period = a.notice_period,
  agreement.most_favored_country = a.most_favored_country

FOREACH (x IN CASE WHEN a.governing_country <> '' THEN [1] ELSE [] END |
  MERGE (gl:Country {name: a.governing_country})
  MERGE (agreement)-[gbl:GOVERNED_BY_LAW]->(gl)
  SET gbl.state = a.governing_state
)

FOREACH (party IN a.parties |
  MERGE (p:Organization {name: party.name})
  MERGE (p)-[ipt:IS_PARTY_TO]->(agreement)
  SET ipt.role = party.role
  FOREACH (x IN CASE WHEN party.incorporation_country <> '' THEN [1] ELSE [] END |
    MERGE (c:Country {name: party.incorporation_country})
    MERGE (p)-[inc:INCORPORATED_IN]->(c)
    SET inc.state = party.incorporation_state
  )
)

FOREACH (clause IN a.clauses |
  MERGE (agreement)-[:HAS_CLAUSE {type: clause.clause_type}]->(cl:ContractClause {type: clause.clause_type})
  MERGE (ct:ClauseType {name: clause.clause_type})
  MERGE (cl)-[:HAS_TYPE]->(ct)
  FOREACH (text IN clause.excerpts |
    MERGE (e:Excerpt {text: text})
    MERGE (cl)-[:HAS_EXCERPT]->(e)
  )
)
`

// Builder turns validated agreement records into graph nodes and relationships.
type Builder struct {
	runner  Runner
	workers int
	locks   *keyedMutex
	logger  *log.Logger
}

// NewBuilder creates a graph builder that runs at most workers records at a time.
func NewBuilder(runner Runner, workers int, logger *log.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}

	if logger == nil {
		logger = log.Default()
	}

	return &Builder{
		runner:  runner,
		workers: workers,
		locks:   newKeyedMutex(),
		logger:  logger,
	}
}

// Build upserts one agreement. The record is validated first; an invalid record issues no
// statement at all, and a valid one is written as one atomic statement.
//
// MERGE on a shared node is not safe against a concurrent MERGE of the same key, so the write
// holds a lock on every node key it touches. Uniqueness constraints back this up across processes
// for the keys that can carry one.
func (builder *Builder) Build(ctx context.Context, agreement *contract.Agreement) (Counters, error) {
	if err := contract.Validate(agreement); err != nil {
		return Counters{}, err
	}

	normalized := contract.Normalize(agreement)

	if normalized.AgreementType != "" && !contract.IsContractType(normalized.AgreementType) {
		builder.logger.Warn("unrecognized agreement type", "contract_id", normalized.ContractID, "type", normalized.AgreementType)
	}

	unlock := builder.locks.LockAll(nodeKeys(normalized))
	defer unlock()

	result, err := builder.runner.Write(ctx, buildCypher, map[string]any{
		"agreement": agreementParams(normalized),
	})
	if err != nil {
		return Counters{}, fmt.Errorf("building contract %d: %w", agreement.ContractID, err)
	}

	return result.Counters, nil
}

// nodeKeys lists every node the build statement merges for the agreement.
func nodeKeys(agreement *contract.Agreement) []string {
	keys := []string{"Agreement:" + strconv.FormatInt(agreement.ContractID, 10)}

	if agreement.GoverningLaw.Country != "" {
		keys = append(keys, "Country:"+agreement.GoverningLaw.Country)
	}

	for _, party := range agreement.Parties {
		keys = append(keys, "Organization:"+party.Name)
		if party.IncorporationCountry != "" {
			keys = append(keys, "Country:"+party.IncorporationCountry)
		}
	}

	for _, clause := range agreement.PresentClauses() {
		keys = append(keys, "ClauseType:"+clause.ClauseType)
		for _, excerpt := range clause.Excerpts {
			keys = append(keys, "Excerpt:"+excerpt)
		}
	}

	return keys
}

// RecordFailure is one record that could not be built.
type RecordFailure struct {
	ContractID int64
	Name       string
	Err        error
}

// BatchReport summarizes a batch build.
type BatchReport struct {
	Built    int
	Failed   []RecordFailure
	Counters Counters
}

// BuildAll builds every record with bounded parallelism. A failing record is reported and
// never stops the rest of the batch.
func (builder *Builder) BuildAll(ctx context.Context, agreements []*contract.Agreement) *BatchReport {
	var (
		mu     sync.Mutex
		report = &BatchReport{}
		group  errgroup.Group
	)

	group.SetLimit(builder.workers)

	for _, agreement := range agreements {
		group.Go(func() error {
			counters, err := builder.Build(ctx, agreement)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				builder.logger.Warn("failed to build contract", "contract_id", agreement.ContractID, "err", err)
				report.Failed = append(report.Failed, RecordFailure{
					ContractID: agreement.ContractID,
					Name:       agreement.AgreementName,
					Err:        err,
				})
				return nil
			}

			builder.logger.Info("built contract", "contract_id", agreement.ContractID, "name", agreement.AgreementName)
			report.Built++
			report.Counters.NodesCreated += counters.NodesCreated
			report.Counters.RelationshipsCreated += counters.RelationshipsCreated
			report.Counters.PropertiesSet += counters.PropertiesSet
			return nil
		})
	}

	_ = group.Wait()

	return report
}

func agreementParams(agreement *contract.Agreement) map[string]any {
	parties := make([]any, 0, len(agreement.Parties))
	for _, party := range agreement.Parties {
		parties = append(parties, map[string]any{
			"name":                  party.Name,
			"role":                  party.Role,
			"incorporation_country": party.IncorporationCountry,
			"incorporation_state":   party.IncorporationState,
		})
	}

	present := agreement.PresentClauses()
	clauses := make([]any, 0, len(present))
	for _, clause := range present {
		excerpts := make([]any, 0, len(clause.Excerpts))
		for _, excerpt := range clause.Excerpts {
			excerpts = append(excerpts, excerpt)
		}
		clauses = append(clauses, map[string]any{
			"clause_type": clause.ClauseType,
			"excerpts":    excerpts,
		})
	}

	return map[string]any{
		"contract_id":          agreement.ContractID,
		"name":                 agreement.AgreementName,
		"agreement_type":       agreement.AgreementType,
		"effective_date":       agreement.EffectiveDate,
		"expiration_date":      agreement.ExpirationDate,
		"renewal_term":         agreement.RenewalTerm,
		"notice_period":        agreement.NoticePeriodToTerminateRenewal,
		"most_favored_country": agreement.GoverningLaw.MostFavoredCountry,
		"governing_country":    agreement.GoverningLaw.Country,
		"governing_state":      agreement.GoverningLaw.State,
		"parties":              parties,
		"clauses":              clauses,
	}
}

// keyedMutex serializes work per key without a global lock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.Lock()

	return func() {
		lock.Unlock()

		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// LockAll takes every key in sorted order, so two callers with overlapping keys cannot deadlock,
// and returns one unlock for the whole set.
func (k *keyedMutex) LockAll(keys []string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		unlocks = append(unlocks, k.Lock(key))
	}

	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
