package contract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LoadFailure describes a file that could not be turned into a record.
type LoadFailure struct {
	Path string
	Err  error
}

// LoadDir reads every *.json extraction in dir, sorted by file name. Contract ids are assigned
// by position starting at 1, so a skipped file still consumes its id and ids stay stable.
func LoadDir(dir string) ([]*Agreement, []LoadFailure, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(paths)

	var (
		agreements []*Agreement
		failures   []LoadFailure
	)

	for i, path := range paths {
		agreement, err := LoadFile(path)
		if err != nil {
			failures = append(failures, LoadFailure{Path: path, Err: err})
			continue
		}
		agreement.ContractID = int64(i + 1)
		agreements = append(agreements, agreement)
	}

	return agreements, failures, nil
}

// LoadFile decodes a single extraction file. The contract id is left for the caller to assign.
func LoadFile(path string) (*Agreement, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var extraction Extraction
	if err := json.Unmarshal(buf, &extraction); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if extraction.Agreement == nil {
		return nil, fmt.Errorf("missing 'agreement' key")
	}

	return extraction.Agreement, nil
}
