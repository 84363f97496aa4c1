package transform

import (
	"fmt"
	"strings"
)

// MissingColumnError reports operation references to columns absent from
// the current dataset. Fatal to the whole Apply call.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

// opError wraps a per-operation field problem as a validation error.
func opError(format string, args ...any) error {
	return &OperationError{Reason: fmt.Sprintf(format, args...)}
}

// OperationError reports a malformed operation field reaching execution.
type OperationError struct {
	Reason string
}

func (e *OperationError) Error() string { return e.Reason }
