package tactic

import (
	"errors"
	"fmt"
)

// ConflictError reports two registrations of the same source text under
// different names.
type ConflictError struct {
	Source    string
	Existing  string
	Requested string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("tactic source %q already registered as %q, cannot register it as %q",
		e.Source, e.Existing, e.Requested)
}

// IsConflict reports whether err is, or wraps, a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
