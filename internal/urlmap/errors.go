// internal/urlmap/errors.go
//
// Error taxonomy for the mapping layer.
//
// Context
// -------
// NotFound and Gone are legitimate terminal routing outcomes, not faults;
// only ErrNotFound appears here because Gone is an ordinary record state.
// ValidationError marks data bugs caught at write time.  Cache and store
// transport errors are never wrapped or retried by this package; they
// propagate to the caller as-is.

package urlmap

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no mapping exists for a (site, path) pair
// or a record ID.  The HTTP layer translates it to a 404.
var ErrNotFound = errors.New("urlmap: mapping not found")

// ValidationError reports a write that violates the redirect invariants.
// The record is never silently corrected; callers must fix the data.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("urlmap: invalid mapping: %s", e.Reason)
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
