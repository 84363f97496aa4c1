package transform

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// CELL VALUE HELPERS — coercion, comparison, formatting
// ============================================================================
// Cells are nil, string, int64, float64, bool, or time.Time. Coercion to
// numeric follows one rule everywhere: failures become null, never errors.
// ============================================================================

// toFloat coerces a cell to numeric. Strings are parsed, bools become
// 0/1, anything else fails. NaN and infinities count as failures: they
// model missing data, not numbers.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, isFinite(val)
	case int:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || !isFinite(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// numericCell reports a cell that is already numeric, without parsing.
func numericCell(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case int:
		return float64(val), true
	}
	return 0, false
}

// cellString renders any cell as text.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	}
	return ""
}

// cellEquals compares raw values. Nulls never equal anything, numeric
// kinds compare across int64/float64.
func cellEquals(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if af, aok := numericCell(a); aok {
		if bf, bok := numericCell(b); bok {
			return af == bf
		}
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	return false
}

// compareCells orders two cells for sorting. Nulls sort last regardless
// of direction; numeric cells compare numerically, everything else by
// string form. Returns <0, 0, or >0.
func compareCells(a, b any, ascending bool) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}

	var c int
	af, aok := numericCell(a)
	bf, bok := numericCell(b)
	switch {
	case aok && bok:
		switch {
		case af < bf:
			c = -1
		case af > bf:
			c = 1
		}
	default:
		as, bs := cellString(a), cellString(b)
		switch {
		case as < bs:
			c = -1
		case as > bs:
			c = 1
		}
	}

	if !ascending {
		c = -c
	}
	return c
}

// normalizeScalar maps decoded JSON scalars (and friendly Go ints) onto
// the cell value domain.
func normalizeScalar(v any) any {
	switch val := v.(type) {
	case nil, string, bool, float64, int64, time.Time:
		return val
	case int:
		return int64(val)
	case float32:
		return float64(val)
	}
	return cellString(v)
}

// ── string transforms ─────────────────────────────────────────────────────

func trimString(s string) string { return strings.TrimSpace(s) }

func caseFunc(name string) (func(string) string, bool) {
	switch name {
	case "upper":
		return strings.ToUpper, true
	case "lower":
		return strings.ToLower, true
	case "title":
		return titleCase, true
	}
	return nil, false
}

// titleCase uppercases the first letter of every alphanumeric run and
// lowercases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		isLetter := unicode.IsLetter(r)
		switch {
		case isLetter && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case isLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}

// ── arithmetic / comparison ───────────────────────────────────────────────

func arithmeticFunc(operator string) (func(a, b float64) float64, bool) {
	switch operator {
	case "add":
		return func(a, b float64) float64 { return a + b }, true
	case "sub":
		return func(a, b float64) float64 { return a - b }, true
	case "mul":
		return func(a, b float64) float64 { return a * b }, true
	case "div":
		return func(a, b float64) float64 { return a / b }, true
	}
	return nil, false
}

func validComparator(c string) bool {
	switch c {
	case "eq", "neq", "gt", "gte", "lt", "lte":
		return true
	}
	return false
}

func orderingHolds(comparator string, v, threshold float64) bool {
	switch comparator {
	case "gt":
		return v > threshold
	case "gte":
		return v >= threshold
	case "lt":
		return v < threshold
	case "lte":
		return v <= threshold
	}
	return false
}

func roundTo(v float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(v*pow) / pow
}
