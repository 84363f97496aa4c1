package helpers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVInfersColumnTypes(t *testing.T) {
	raw := []byte("name,qty,price\nanna,3,9.99\nbruno,5,12\ncarla,,3.5\n")

	ds, err := ParseCSV(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "qty", "price"}, ds.ColumnNames())
	require.Equal(t, 3, ds.RowCount())

	assert.Equal(t, []any{"anna", "bruno", "carla"}, ds.Column("name").Cells)
	// empty cell stays null, rest are integers
	assert.Equal(t, []any{int64(3), int64(5), nil}, ds.Column("qty").Cells)
	// "12" alone would be int, but the column holds decimals too
	assert.Equal(t, []any{9.99, float64(12), 3.5}, ds.Column("price").Cells)
}

func TestParseCSVMixedColumnFallsBackToString(t *testing.T) {
	ds, err := ParseCSV([]byte("code\n12\nabc\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{"12", "abc"}, ds.Column("code").Cells)
}

func TestParseCSVNonFiniteTextStaysText(t *testing.T) {
	ds, err := ParseCSV([]byte("v\nNaN\n1.5\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{"NaN", "1.5"}, ds.Column("v").Cells)
}

func TestParseCSVSkipsMalformedRows(t *testing.T) {
	raw := []byte("a,b\n1,2\n3,4,5\n6,7\n")

	ds, err := ParseCSV(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.RowCount())
	assert.Equal(t, []any{int64(1), int64(6)}, ds.Column("a").Cells)
}

func TestParseCSVRejectsEmptyInput(t *testing.T) {
	_, err := ParseCSV(nil)
	require.Error(t, err)
}

func TestParseCSVTrimsHeaderWhitespace(t *testing.T) {
	ds, err := ParseCSV([]byte(" name , age \nanna,30\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, ds.ColumnNames())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	ds, err := ParseCSV([]byte("name,score\nanna,10\nbruno,\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.Equal(t, "name,score\nanna,10\nbruno,\n", buf.String())

	reparsed, err := ParseCSV(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ds.Column("score").Cells, reparsed.Column("score").Cells)
}
