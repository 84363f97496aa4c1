package plan

import (
	"fmt"
)

// ============================================================================
// EXPLAIN — Deterministic human-readable plan preview
// ============================================================================
// Walks a plan and describes each step without executing anything. Used to
// show the user what will happen before they spend a quota credit.
// ============================================================================

// Step describes one operation in user-facing terms.
type Step struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
}

// Explanation is a full plan preview.
type Explanation struct {
	Summary         string   `json:"summary"`
	Steps           []Step   `json:"steps"`
	ImpactedColumns []string `json:"impacted_columns"`
}

// Explain describes every step of a plan and collects the distinct
// columns it touches, in first-touch order.
func Explain(p Plan) Explanation {
	if len(p.Operations) == 0 {
		return Explanation{
			Summary:         "No changes planned: the plan contains no steps.",
			Steps:           []Step{},
			ImpactedColumns: []string{},
		}
	}

	steps := make([]Step, 0, len(p.Operations))
	impacted := []string{}
	seen := map[string]bool{}

	for _, op := range p.Operations {
		step := describeStep(op)
		steps = append(steps, step)
		for _, col := range step.Columns {
			if col != "" && !seen[col] {
				seen[col] = true
				impacted = append(impacted, col)
			}
		}
	}

	return Explanation{
		Summary: fmt.Sprintf("The plan will apply %d steps and touch %d columns.",
			len(steps), len(impacted)),
		Steps:           steps,
		ImpactedColumns: impacted,
	}
}

func describeStep(op Operation) Step {
	switch op.Type {
	case OpRenameColumn:
		return Step{
			Title:       "Rename column",
			Description: fmt.Sprintf("Column '%s' will be renamed to '%s'.", op.From, op.To),
			Columns:     dropEmpty([]string{op.From, op.To}),
		}
	case OpDropColumns:
		return Step{
			Title:       "Drop columns",
			Description: fmt.Sprintf("%d columns will be removed from the dataset.", len(op.Columns)),
			Columns:     dropEmpty(op.Columns),
		}
	case OpFillNull:
		return Step{
			Title:       "Fill null values",
			Description: fmt.Sprintf("Null values in '%s' will be replaced with a fallback value.", op.Column),
			Columns:     dropEmpty([]string{op.Column}),
		}
	case OpCastType:
		return Step{
			Title:       "Cast column type",
			Description: fmt.Sprintf("Column '%s' will be converted to '%s'.", op.Column, op.DType),
			Columns:     dropEmpty([]string{op.Column}),
		}
	case OpTrimWhitespace:
		return Step{
			Title:       "Trim whitespace",
			Description: "Leading and trailing whitespace will be removed in the listed columns.",
			Columns:     dropEmpty(op.Columns),
		}
	case OpChangeCase:
		return Step{
			Title:       "Change text case",
			Description: fmt.Sprintf("Text will be converted to '%s' case in the listed columns.", op.Case),
			Columns:     dropEmpty(op.Columns),
		}
	case OpDeriveNumeric:
		return Step{
			Title: "Derive numeric column",
			Description: fmt.Sprintf("Column '%s' will be created applying '%s' to '%s' and '%s'.",
				op.NewColumn, op.Operator, op.LeftColumn, op.RightColumn),
			Columns: dropEmpty([]string{op.LeftColumn, op.RightColumn, op.NewColumn}),
		}
	case OpFilterRows:
		return Step{
			Title:       "Filter rows",
			Description: fmt.Sprintf("Rows will be filtered on '%s' with comparator '%s'.", op.Column, op.Comparator),
			Columns:     dropEmpty([]string{op.Column}),
		}
	case OpSortRows:
		direction := "ascending"
		if op.Ascending != nil && !*op.Ascending {
			direction = "descending"
		}
		return Step{
			Title:       "Sort rows",
			Description: fmt.Sprintf("Rows will be sorted in %s order.", direction),
			Columns:     dropEmpty(op.By),
		}
	}
	return Step{
		Title:       "Operation",
		Description: "Transformation defined by the plan.",
		Columns:     []string{},
	}
}

func dropEmpty(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
