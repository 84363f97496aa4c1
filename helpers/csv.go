package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tabula-org/tabula/dataset"
)

// ============================================================================
// CSV HELPER — Parses CSV bytes into a Dataset and writes one back out
// ============================================================================
// The consumer reads the CSV from wherever it lives (file, object store,
// upload). This helper converts the raw bytes into typed columns with
// per-column inference: a column whose non-empty cells all parse as
// integers becomes int64, all-numeric becomes float64, otherwise string.
// Empty cells are nulls.
// ============================================================================

// ParseCSV parses CSV bytes into a Dataset. The first row is the header.
func ParseCSV(data []byte) (*dataset.Dataset, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	raw := make([][]string, len(headers))
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		for i := range headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			raw[i] = append(raw[i], val)
		}
	}

	columns := make([]dataset.Column, len(headers))
	for i, name := range headers {
		columns[i] = dataset.Column{
			Name:  strings.TrimSpace(name),
			Cells: inferColumn(raw[i]),
		}
	}

	ds, err := dataset.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("invalid CSV structure: %w", err)
	}
	return ds, nil
}

// inferColumn types one raw column: int64 when every non-empty cell is an
// integer, float64 when every non-empty cell is numeric, else string.
func inferColumn(values []string) []any {
	allInt := true
	allFloat := true
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			allInt = false
		}
		// "NaN"/"Inf" parse as floats but are not data values
		if f, err := strconv.ParseFloat(v, 64); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			allFloat = false
			break
		}
	}

	cells := make([]any, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue // stays nil
		}
		switch {
		case allInt:
			n, _ := strconv.ParseInt(v, 10, 64)
			cells[i] = n
		case allFloat:
			f, _ := strconv.ParseFloat(v, 64)
			cells[i] = f
		default:
			cells[i] = v
		}
	}
	return cells
}

// WriteCSV renders a Dataset as CSV: header row, then one row per record.
// Nulls become empty cells.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := 0; i < ds.RowCount(); i++ {
		row := make([]string, len(ds.Columns))
		for j, c := range ds.Columns {
			row[j] = formatCell(c.Cells[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	}
	return fmt.Sprintf("%v", v)
}
