package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input rejected before any external call.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks valid input that matched nothing in the graph.
	ErrNotFound = errors.New("not found")

	// ErrCapability marks a failed embedding or translation call.
	ErrCapability = errors.New("capability failed")
)

// ValidationError describes which input was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string
	Key  any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CapabilityError wraps a failure of the embedding or translation capability.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}
