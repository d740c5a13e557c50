package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// ErrInvalidRecord marks an agreement that does not satisfy the record schema.
var ErrInvalidRecord = errors.New("invalid agreement record")

// InvalidRecordError lists every schema violation found in one record.
type InvalidRecordError struct {
	ContractID int64
	Problems   []string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("contract %d: %s", e.ContractID, strings.Join(e.Problems, "; "))
}

func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("clausetype", func(fl validator.FieldLevel) bool {
		return IsClauseType(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a record against the schema before anything is written.
func Validate(agreement *Agreement) error {
	if agreement == nil {
		return &InvalidRecordError{Problems: []string{"agreement is missing"}}
	}

	err := validate.Struct(agreement)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("validating contract %d: %w", agreement.ContractID, err)
	}

	problems := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", fe.Namespace()))
		case "gt":
			problems = append(problems, fmt.Sprintf("%s must be greater than %s", fe.Namespace(), fe.Param()))
		case "clausetype":
			problems = append(problems, fmt.Sprintf("%s %q is not a known clause type", fe.Namespace(), fe.Value()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}

	return &InvalidRecordError{ContractID: agreement.ContractID, Problems: problems}
}

// Normalize returns a copy of the agreement without blank excerpts, so no empty-text Excerpt node
// is ever merged. The caller's record is left untouched.
func Normalize(agreement *Agreement) *Agreement {
	normalized := *agreement
	normalized.Parties = append([]Party(nil), agreement.Parties...)
	normalized.Clauses = make([]Clause, len(agreement.Clauses))

	for i, clause := range agreement.Clauses {
		excerpts := make([]string, 0, len(clause.Excerpts))
		for _, excerpt := range clause.Excerpts {
			if strings.TrimSpace(excerpt) != "" {
				excerpts = append(excerpts, excerpt)
			}
		}
		clause.Excerpts = excerpts
		normalized.Clauses[i] = clause
	}

	return &normalized
}
