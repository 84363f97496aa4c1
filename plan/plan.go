package plan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ============================================================================
// PLAN — Typed Operation Language
// ============================================================================
// A Plan is an ordered sequence of operations drawn from a closed set of
// nine kinds. The planner produces Plans from natural language; the
// transform package executes them. Validation here is purely structural —
// whether referenced columns actually exist depends on the dataset and is
// checked at execution time.
// ============================================================================

// Operation kinds.
const (
	OpRenameColumn   = "rename_column"
	OpDropColumns    = "drop_columns"
	OpFillNull       = "fill_null"
	OpCastType       = "cast_type"
	OpTrimWhitespace = "trim_whitespace"
	OpChangeCase     = "change_case"
	OpDeriveNumeric  = "derive_numeric"
	OpFilterRows     = "filter_rows"
	OpSortRows       = "sort_rows"
)

// supportedOperations is the closed set of operation kinds.
var supportedOperations = map[string]bool{
	OpRenameColumn:   true,
	OpDropColumns:    true,
	OpFillNull:       true,
	OpCastType:       true,
	OpTrimWhitespace: true,
	OpChangeCase:     true,
	OpDeriveNumeric:  true,
	OpFilterRows:     true,
	OpSortRows:       true,
}

// Supported reports whether kind is one of the nine operation kinds.
func Supported(kind string) bool { return supportedOperations[kind] }

// Operation is a single plan step. It is a tagged variant keyed by Type;
// only the fields belonging to that kind are meaningful.
type Operation struct {
	Type string `json:"type"`

	// rename_column
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// drop_columns / trim_whitespace / change_case
	Columns []string `json:"columns,omitempty"`

	// fill_null / cast_type / filter_rows
	Column string `json:"column,omitempty"`
	Value  any    `json:"value,omitempty"`
	DType  string `json:"dtype,omitempty"`

	// change_case
	Case string `json:"case,omitempty"`

	// derive_numeric
	LeftColumn  string `json:"left_column,omitempty"`
	RightColumn string `json:"right_column,omitempty"`
	NewColumn   string `json:"new_column,omitempty"`
	Operator    string `json:"operator,omitempty"`
	Round       *int   `json:"round,omitempty"`

	// filter_rows
	Comparator string `json:"comparator,omitempty"`

	// sort_rows
	By        []string `json:"by,omitempty"`
	Ascending *bool    `json:"ascending,omitempty"`
}

// Plan is an ordered sequence of operations.
type Plan struct {
	Operations []Operation `json:"operations"`
}

// ValidationError reports a malformed plan shape or an unsupported
// operation kind.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate checks the plan structurally and returns its operations.
// It does not reject empty operation lists — an empty Plan is a valid
// value; the interpreter refuses to execute it.
func (p Plan) Validate() ([]Operation, error) {
	if p.Operations == nil {
		return nil, &ValidationError{Reason: "plan must contain an 'operations' list"}
	}
	for _, op := range p.Operations {
		if !Supported(op.Type) {
			return nil, &ValidationError{Reason: fmt.Sprintf("unsupported operation type: %q", op.Type)}
		}
	}
	return p.Operations, nil
}

// ParseJSON decodes a raw plan payload and validates its shape.
func ParseJSON(data []byte) (*Plan, error) {
	var shape struct {
		Operations *json.RawMessage `json:"operations"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, &ValidationError{Reason: "plan must be a JSON object: " + err.Error()}
	}
	if shape.Operations == nil {
		return nil, &ValidationError{Reason: "plan must contain an 'operations' list"}
	}

	var rawOps []json.RawMessage
	if err := json.Unmarshal(*shape.Operations, &rawOps); err != nil {
		return nil, &ValidationError{Reason: "'operations' must be a list"}
	}

	p := &Plan{Operations: make([]Operation, 0, len(rawOps))}
	for _, raw := range rawOps {
		var op Operation
		if err := json.Unmarshal(raw, &op); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				return nil, &ValidationError{Reason: fmt.Sprintf(
					"operation field %q has the wrong type: %s", typeErr.Field, typeErr.Value)}
			}
			return nil, &ValidationError{Reason: "each operation must be an object"}
		}
		p.Operations = append(p.Operations, op)
	}

	if _, err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
