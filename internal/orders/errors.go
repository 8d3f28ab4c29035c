package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries a field -> message map so callers can surface
// errors per form field. Fully recoverable by the user.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// PersistenceError means the backing store failed; the enclosing operation
// was aborted as a whole and nothing was partially committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrTerminalState is returned when a transition targets an order already in
// delivered or cancelled.
var ErrTerminalState = errors.New("order is in a terminal state")
