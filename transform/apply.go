package transform

import (
	"fmt"
	"sort"

	"github.com/tabula-org/tabula/dataset"
	"github.com/tabula-org/tabula/plan"
)

// ============================================================================
// INTERPRETER — Executes a validated Plan against a Dataset
// ============================================================================
// Operations run strictly in list order; each operation's output is the
// exclusive input to the next. Execution is all-or-nothing: any failure
// discards everything and the caller's dataset is untouched (Apply works
// on a clone). No reordering, no fusion, no partial results.
//
// This package is pure and stateless — safe to call from any number of
// goroutines concurrently.
// ============================================================================

// Apply executes a plan against a dataset and returns the transformed
// copy. The input dataset is never mutated.
func Apply(ds *dataset.Dataset, p plan.Plan) (*dataset.Dataset, error) {
	ops, err := p.Validate()
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, &plan.ValidationError{Reason: "plan contains no operations"}
	}

	work := ds.Clone()
	for _, op := range ops {
		work, err = applyOperation(work, op)
		if err != nil {
			return nil, err
		}
	}
	return work, nil
}

func applyOperation(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	switch op.Type {
	case plan.OpRenameColumn:
		return applyRename(ds, op)
	case plan.OpDropColumns:
		return applyDrop(ds, op)
	case plan.OpFillNull:
		return applyFillNull(ds, op)
	case plan.OpCastType:
		return applyCast(ds, op)
	case plan.OpTrimWhitespace:
		return applyTrim(ds, op)
	case plan.OpChangeCase:
		return applyChangeCase(ds, op)
	case plan.OpDeriveNumeric:
		return applyDerive(ds, op)
	case plan.OpFilterRows:
		return applyFilter(ds, op)
	case plan.OpSortRows:
		return applySort(ds, op)
	}
	// The validator already rejects unknown kinds; this is defense in depth.
	return nil, &plan.ValidationError{Reason: fmt.Sprintf("unsupported operation type: %q", op.Type)}
}

// requireColumns fails when any named column is absent.
func requireColumns(ds *dataset.Dataset, names []string) error {
	var missing []string
	for _, name := range names {
		if !ds.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}

// ── rename_column ─────────────────────────────────────────────────────────

func applyRename(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if op.From == "" || op.To == "" {
		return nil, opError("rename_column requires 'from' and 'to'")
	}
	if err := requireColumns(ds, []string{op.From}); err != nil {
		return nil, err
	}
	if op.From == op.To {
		return ds, nil
	}
	if ds.HasColumn(op.To) {
		return nil, opError("rename_column target %q already exists", op.To)
	}
	ds.Columns[ds.Index(op.From)].Name = op.To
	return ds, nil
}

// ── drop_columns ──────────────────────────────────────────────────────────

func applyDrop(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if len(op.Columns) == 0 {
		return nil, opError("drop_columns requires non-empty 'columns'")
	}
	if err := requireColumns(ds, op.Columns); err != nil {
		return nil, err
	}
	drop := make(map[string]bool, len(op.Columns))
	for _, name := range op.Columns {
		drop[name] = true
	}
	kept := ds.Columns[:0]
	for _, c := range ds.Columns {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	ds.Columns = kept
	return ds, nil
}

// ── fill_null ─────────────────────────────────────────────────────────────

func applyFillNull(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if op.Column == "" {
		return nil, opError("fill_null requires 'column'")
	}
	if err := requireColumns(ds, []string{op.Column}); err != nil {
		return nil, err
	}
	col := ds.Column(op.Column)
	for i, cell := range col.Cells {
		if cell == nil {
			col.Cells[i] = normalizeScalar(op.Value)
		}
	}
	return ds, nil
}

// ── cast_type ─────────────────────────────────────────────────────────────

func applyCast(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if op.Column == "" || op.DType == "" {
		return nil, opError("cast_type requires 'column' and 'dtype'")
	}
	if err := requireColumns(ds, []string{op.Column}); err != nil {
		return nil, err
	}
	caster, err := casterFor(op.DType)
	if err != nil {
		return nil, err
	}
	col := ds.Column(op.Column)
	for i, cell := range col.Cells {
		col.Cells[i] = caster(cell)
	}
	return ds, nil
}

// ── trim_whitespace / change_case ─────────────────────────────────────────
// Only string cells are transformed; everything else (null included)
// passes through unchanged.

func applyTrim(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if len(op.Columns) == 0 {
		return nil, opError("trim_whitespace requires non-empty 'columns'")
	}
	return mapStrings(ds, op.Columns, trimString)
}

func applyChangeCase(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if len(op.Columns) == 0 {
		return nil, opError("change_case requires non-empty 'columns'")
	}
	fn, ok := caseFunc(op.Case)
	if !ok {
		return nil, opError("change_case.case must be upper, lower, or title")
	}
	return mapStrings(ds, op.Columns, fn)
}

func mapStrings(ds *dataset.Dataset, columns []string, fn func(string) string) (*dataset.Dataset, error) {
	if err := requireColumns(ds, columns); err != nil {
		return nil, err
	}
	for _, name := range columns {
		col := ds.Column(name)
		for i, cell := range col.Cells {
			if s, ok := cell.(string); ok {
				col.Cells[i] = fn(s)
			}
		}
	}
	return ds, nil
}

// ── derive_numeric ────────────────────────────────────────────────────────

func applyDerive(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if op.LeftColumn == "" || op.RightColumn == "" || op.NewColumn == "" {
		return nil, opError("derive_numeric requires 'left_column', 'right_column', and 'new_column'")
	}
	combine, ok := arithmeticFunc(op.Operator)
	if !ok {
		return nil, opError("derive_numeric.operator must be add, sub, mul, or div")
	}
	if err := requireColumns(ds, []string{op.LeftColumn, op.RightColumn}); err != nil {
		return nil, err
	}

	left := ds.Column(op.LeftColumn)
	right := ds.Column(op.RightColumn)
	out := make([]any, len(left.Cells))
	for i := range left.Cells {
		lv, lok := toFloat(left.Cells[i])
		rv, rok := toFloat(right.Cells[i])
		if !lok || !rok {
			continue // stays nil
		}
		// zero denominators are nulled before dividing
		if op.Operator == "div" && rv == 0 {
			continue
		}
		v := combine(lv, rv)
		if op.Round != nil {
			v = roundTo(v, *op.Round)
		}
		out[i] = v
	}

	setColumn(ds, op.NewColumn, out)
	return ds, nil
}

// setColumn replaces an existing column's cells or appends a new column.
func setColumn(ds *dataset.Dataset, name string, cells []any) {
	if col := ds.Column(name); col != nil {
		col.Cells = cells
		return
	}
	ds.Columns = append(ds.Columns, dataset.Column{Name: name, Cells: cells})
}

// ── filter_rows ───────────────────────────────────────────────────────────

func applyFilter(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if op.Column == "" {
		return nil, opError("filter_rows requires 'column'")
	}
	if !validComparator(op.Comparator) {
		return nil, opError("filter_rows requires comparator in eq, neq, gt, gte, lt, lte")
	}
	if err := requireColumns(ds, []string{op.Column}); err != nil {
		return nil, err
	}

	col := ds.Column(op.Column)
	value := normalizeScalar(op.Value)
	keep := make([]int, 0, len(col.Cells))

	switch op.Comparator {
	case "eq", "neq":
		// raw value comparison — nulls never equal anything
		for i, cell := range col.Cells {
			equal := cellEquals(cell, value)
			if (op.Comparator == "eq" && equal) || (op.Comparator == "neq" && !equal) {
				keep = append(keep, i)
			}
		}
	default:
		// ordering comparators coerce to numeric; non-numeric cells are
		// excluded rather than compared
		threshold, ok := toFloat(value)
		if !ok {
			return nil, opError("filter_rows value must be numeric for comparator %q", op.Comparator)
		}
		for i, cell := range col.Cells {
			v, ok := toFloat(cell)
			if !ok {
				continue
			}
			if orderingHolds(op.Comparator, v, threshold) {
				keep = append(keep, i)
			}
		}
	}

	return selectRows(ds, keep), nil
}

// selectRows rebuilds every column from the kept row indices, which also
// renumbers rows contiguously.
func selectRows(ds *dataset.Dataset, indices []int) *dataset.Dataset {
	for ci := range ds.Columns {
		cells := make([]any, len(indices))
		for out, in := range indices {
			cells[out] = ds.Columns[ci].Cells[in]
		}
		ds.Columns[ci].Cells = cells
	}
	return ds
}

// ── sort_rows ─────────────────────────────────────────────────────────────

func applySort(ds *dataset.Dataset, op plan.Operation) (*dataset.Dataset, error) {
	if len(op.By) == 0 {
		return nil, opError("sort_rows requires non-empty 'by' list")
	}
	if err := requireColumns(ds, op.By); err != nil {
		return nil, err
	}
	ascending := true
	if op.Ascending != nil {
		ascending = *op.Ascending
	}

	keys := make([]*dataset.Column, len(op.By))
	for i, name := range op.By {
		keys[i] = ds.Column(name)
	}

	indices := make([]int, ds.RowCount())
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		for _, key := range keys {
			c := compareCells(key.Cells[indices[a]], key.Cells[indices[b]], ascending)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	return selectRows(ds, indices), nil
}
