package dataset

import (
	"time"
)

// ============================================================================
// PROFILE — Column statistics + preview handed to the planner
// ============================================================================
// The planner never sees raw data in bulk. It sees this: column names,
// inferred types, null counts, up to three sample values per column, and a
// small row preview. Everything here must be JSON-safe.
// ============================================================================

const maxSampleValues = 3

// ColumnProfile describes one column for prompt building and previews.
type ColumnProfile struct {
	Name         string `json:"name"`
	DType        string `json:"dtype"`
	NullCount    int    `json:"null_count"`
	NonNullCount int    `json:"non_null_count"`
	SampleValues []any  `json:"sample_values"`
}

// Analysis is the full dataset profile: shape, per-column stats and a
// preview of the first rows.
type Analysis struct {
	RowCount    int              `json:"row_count"`
	ColumnCount int              `json:"column_count"`
	Columns     []ColumnProfile  `json:"columns"`
	Preview     []map[string]any `json:"preview"`
}

// Analyze profiles a Dataset. previewRows caps the preview length.
func Analyze(d *Dataset, previewRows int) Analysis {
	columns := make([]ColumnProfile, 0, len(d.Columns))
	for _, c := range d.Columns {
		profile := ColumnProfile{
			Name:         c.Name,
			DType:        inferDType(c.Cells),
			SampleValues: []any{},
		}
		for _, cell := range c.Cells {
			if cell == nil {
				profile.NullCount++
				continue
			}
			profile.NonNullCount++
			if len(profile.SampleValues) < maxSampleValues {
				profile.SampleValues = append(profile.SampleValues, JSONSafe(cell))
			}
		}
		columns = append(columns, profile)
	}

	return Analysis{
		RowCount:    d.RowCount(),
		ColumnCount: d.ColumnCount(),
		Columns:     columns,
		Preview:     buildPreview(d, previewRows),
	}
}

// buildPreview returns the first n rows with JSON-safe values.
func buildPreview(d *Dataset, n int) []map[string]any {
	if n > d.RowCount() {
		n = d.RowCount()
	}
	preview := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		row := d.Row(i)
		for k, v := range row {
			row[k] = JSONSafe(v)
		}
		preview = append(preview, row)
	}
	return preview
}

// JSONSafe converts a cell value into something json.Marshal handles
// predictably. Timestamps become ISO-8601 strings, nulls stay nil.
func JSONSafe(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}

// inferDType classifies a column by its non-null cells. Mixed columns
// report "object", empty columns "empty".
func inferDType(cells []any) string {
	dtype := ""
	for _, cell := range cells {
		if cell == nil {
			continue
		}
		var t string
		switch cell.(type) {
		case string:
			t = "string"
		case int64:
			t = "int64"
		case float64:
			t = "float64"
		case bool:
			t = "bool"
		case time.Time:
			t = "datetime"
		default:
			t = "object"
		}
		if dtype == "" {
			dtype = t
			continue
		}
		if dtype != t {
			// int64 + float64 mix is still numeric
			if (dtype == "int64" && t == "float64") || (dtype == "float64" && t == "int64") {
				dtype = "float64"
				continue
			}
			return "object"
		}
	}
	if dtype == "" {
		return "empty"
	}
	return dtype
}
