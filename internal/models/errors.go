package models

import (
	"errors"
	"fmt"
)

// ErrRuleNotFound is returned for operations on unknown rule ids. The
// operation is a no-op; nothing is partially applied.
var ErrRuleNotFound = errors.New("rule not found")

// ValidationError rejects bad rule input before any mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
