package transform

import (
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// CAST — cast_type conversion table
// ============================================================================
// Coercion failures become null, never errors. The only hard failure is an
// unknown target dtype.
// ============================================================================

var (
	truthyTokens = map[string]bool{"true": true, "1": true, "yes": true, "y": true, "t": true}
	falsyTokens  = map[string]bool{"false": true, "0": true, "no": true, "n": true, "f": true}
)

// datetimeLayouts are tried in order when casting strings to datetime.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

func casterFor(dtype string) (func(any) any, error) {
	switch dtype {
	case "string":
		return castString, nil
	case "int64":
		return castInt64, nil
	case "float64":
		return castFloat64, nil
	case "datetime":
		return castDatetime, nil
	case "bool":
		return castBool, nil
	}
	return nil, opError("dtype must be one of: string, int64, float64, datetime, bool")
}

func castString(v any) any {
	if v == nil {
		return nil
	}
	return cellString(v)
}

func castInt64(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int64:
		return val
	case int:
		return int64(val)
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case float64:
		if !isFinite(val) {
			return nil
		}
		return int64(val)
	case string:
		text := strings.TrimSpace(val)
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
		// NaN/Inf parse as floats but have no integer value
		if f, err := strconv.ParseFloat(text, 64); err == nil && isFinite(f) {
			return int64(f)
		}
		return nil
	}
	return nil
}

func castFloat64(v any) any {
	if v == nil {
		return nil
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return nil
}

func castDatetime(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val
	case string:
		text := strings.TrimSpace(val)
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t
			}
		}
		return nil
	}
	return nil
}

func castBool(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case int64:
		return val != 0
	case int:
		return val != 0
	case float64:
		return val != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(val))
		if truthyTokens[text] {
			return true
		}
		if falsyTokens[text] {
			return false
		}
		return nil
	}
	return nil
}
