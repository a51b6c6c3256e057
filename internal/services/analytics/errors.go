package analytics

import (
	"errors"
	"fmt"
)

// ErrAdvancedUnavailable is reported when the advanced backend is selected but no
// capability was supplied to construct it.
var ErrAdvancedUnavailable = errors.New("advanced analyzer not available")

// InitializationError reports that the selected backend could not be constructed.
type InitializationError struct {
	Backend Backend
	Err     error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("init %s analyzer: %v", e.Backend, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// ComputationError reports a failed analysis inside an advanced backend.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
