package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	d, err := New(
		Column{Name: "name", Cells: []any{"anna", "bruno", nil}},
		Column{Name: "score", Cells: []any{int64(10), nil, float64(7.5)}},
	)
	require.NoError(t, err)
	return d
}

func TestNewRejectsDuplicateColumnNames(t *testing.T) {
	_, err := New(
		Column{Name: "a", Cells: []any{int64(1)}},
		Column{Name: "a", Cells: []any{int64(2)}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := New(
		Column{Name: "a", Cells: []any{int64(1), int64(2)}},
		Column{Name: "b", Cells: []any{int64(1)}},
	)
	require.Error(t, err)
}

func TestAccessors(t *testing.T) {
	d := sampleDataset(t)

	assert.Equal(t, 3, d.RowCount())
	assert.Equal(t, 2, d.ColumnCount())
	assert.Equal(t, []string{"name", "score"}, d.ColumnNames())
	assert.True(t, d.HasColumn("score"))
	assert.False(t, d.HasColumn("missing"))
	assert.Nil(t, d.Column("missing"))

	row := d.Row(1)
	assert.Equal(t, "bruno", row["name"])
	assert.Nil(t, row["score"])
}

func TestCloneIsIndependent(t *testing.T) {
	d := sampleDataset(t)
	clone := d.Clone()

	clone.Columns[0].Name = "renamed"
	clone.Columns[1].Cells[0] = int64(999)

	assert.Equal(t, "name", d.Columns[0].Name)
	assert.Equal(t, int64(10), d.Columns[1].Cells[0])
}

func TestAnalyzeProfilesColumns(t *testing.T) {
	d := sampleDataset(t)
	a := Analyze(d, 2)

	assert.Equal(t, 3, a.RowCount)
	assert.Equal(t, 2, a.ColumnCount)
	require.Len(t, a.Columns, 2)

	name := a.Columns[0]
	assert.Equal(t, "string", name.DType)
	assert.Equal(t, 1, name.NullCount)
	assert.Equal(t, 2, name.NonNullCount)
	assert.Equal(t, []any{"anna", "bruno"}, name.SampleValues)

	score := a.Columns[1]
	assert.Equal(t, "float64", score.DType)
	assert.Equal(t, 1, score.NullCount)

	require.Len(t, a.Preview, 2)
	assert.Equal(t, "anna", a.Preview[0]["name"])
}

func TestAnalyzeCapsSampleValues(t *testing.T) {
	d, err := New(Column{Name: "n", Cells: []any{
		int64(1), int64(2), int64(3), int64(4), int64(5),
	}})
	require.NoError(t, err)

	a := Analyze(d, 10)
	assert.Len(t, a.Columns[0].SampleValues, 3)
	// preview never exceeds the row count
	assert.Len(t, a.Preview, 5)
}

func TestInferDType(t *testing.T) {
	cases := []struct {
		name  string
		cells []any
		want  string
	}{
		{"all nulls", []any{nil, nil}, "empty"},
		{"no cells", nil, "empty"},
		{"strings", []any{"a", nil, "b"}, "string"},
		{"ints", []any{int64(1), int64(2)}, "int64"},
		{"numeric mix", []any{int64(1), float64(2.5)}, "float64"},
		{"bools", []any{true, false}, "bool"},
		{"datetimes", []any{time.Now()}, "datetime"},
		{"mixed", []any{"a", int64(1)}, "object"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inferDType(tc.cells))
		})
	}
}

func TestJSONSafeFormatsTimestamps(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15T10:30:00Z", JSONSafe(ts))
	assert.Nil(t, JSONSafe(nil))
	assert.Equal(t, int64(7), JSONSafe(int64(7)))
}
