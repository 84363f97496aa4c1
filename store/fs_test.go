package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-org/tabula/dataset"
)

func TestFileProviderSaveLoadRoundTrip(t *testing.T) {
	provider, err := NewFileProvider(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ds, err := dataset.New(
		dataset.Column{Name: "name", Cells: []any{"anna", "bruno"}},
		dataset.Column{Name: "score", Cells: []any{int64(10), nil}},
	)
	require.NoError(t, err)

	id, err := provider.Save(ctx, ds, "csv")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	loaded, err := provider.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ds.ColumnNames(), loaded.ColumnNames())
	assert.Equal(t, ds.Column("score").Cells, loaded.Column("score").Cells)
}

func TestFileProviderHandlesAreUnique(t *testing.T) {
	provider, err := NewFileProvider(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ds, err := dataset.New(dataset.Column{Name: "a", Cells: []any{int64(1)}})
	require.NoError(t, err)

	first, err := provider.Save(ctx, ds, "")
	require.NoError(t, err)
	second, err := provider.Save(ctx, ds, "")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestFileProviderRejectsBadInput(t *testing.T) {
	provider, err := NewFileProvider(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = provider.Load(ctx, "../escape")
	require.Error(t, err)

	_, err = provider.Load(ctx, "missing-handle")
	require.Error(t, err)

	ds, err := dataset.New(dataset.Column{Name: "a", Cells: []any{int64(1)}})
	require.NoError(t, err)
	_, err = provider.Save(ctx, ds, "xlsx")
	require.Error(t, err)

	_, err = NewFileProvider("")
	require.Error(t, err)
}
