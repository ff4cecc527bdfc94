package table

import (
	"context"
	"testing"
	"time"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/asaidimu/go-tabular/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema([]schema.Column{
		{Name: "name", Type: schema.ColumnTypeString},
		{Name: "age", Type: schema.ColumnTypeNumber},
		{Name: "date", Type: schema.ColumnTypeDate},
		{Name: "boolean", Type: schema.ColumnTypeBoolean},
	})
	require.NoError(t, err)
	return s
}

func testRawRows() [][]any {
	return [][]any{
		{"alice", 25, "2020-01-01", true},
		{"bob", 30, "2020-02-01", false},
		{"carol", 35, "2020-03-01", true},
		{"dave", 40, "2020-04-01", false},
	}
}

func testTable(t *testing.T) *RowTable {
	t.Helper()
	tbl, err := NewRowTable(testSchema(t), testRawRows())
	require.NoError(t, err)
	return tbl
}

func TestNewRowTable(t *testing.T) {
	t.Run("normalizes rows", func(t *testing.T) {
		tbl := testTable(t)
		assert.Equal(t, 4, tbl.RowCount())

		rows := tbl.Rows()
		assert.Equal(t, 25.0, rows[0][1])
		assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), rows[0][2])
	})

	t.Run("requires a schema", func(t *testing.T) {
		_, err := NewRowTable(nil, testRawRows())
		assert.Error(t, err)
	})

	t.Run("rejects rows that do not fit", func(t *testing.T) {
		_, err := NewRowTable(testSchema(t), [][]any{
			{"alice", 25, "2020-01-01", true},
			{"bob", "thirty", "2020-02-01", false},
		})
		require.Error(t, err)
		assert.ErrorContains(t, err, "row 1")
	})
}

func TestFilteredRows(t *testing.T) {
	ctx := context.Background()
	tbl := testTable(t)

	t.Run("nil filter selects every row", func(t *testing.T) {
		rows, err := tbl.FilteredRows(ctx, Query{})
		require.NoError(t, err)
		assert.Len(t, rows, 4)
		assert.Equal(t, "alice", rows[0][0])
	})

	t.Run("filter narrows rows in storage order", func(t *testing.T) {
		rows, err := tbl.FilteredRows(ctx, Query{Filter: filter.InRange("age", 30, 40)})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "bob", rows[0][0])
		assert.Equal(t, "carol", rows[1][0])
		assert.Equal(t, "dave", rows[2][0])
	})

	t.Run("columns narrow the projection", func(t *testing.T) {
		rows, err := tbl.FilteredRows(ctx, Query{
			Filter:  filter.InList("boolean", true),
			Columns: []string{"age", "name"},
		})
		require.NoError(t, err)
		assert.Equal(t, [][]any{{25.0, "alice"}, {35.0, "carol"}}, rows)
	})

	t.Run("serialize returns wire values", func(t *testing.T) {
		rows, err := tbl.FilteredRows(ctx, Query{
			Filter:    filter.InList("name", "alice"),
			Columns:   []string{"date", "age"},
			Serialize: true,
		})
		require.NoError(t, err)
		assert.Equal(t, [][]any{{"2020-01-01", 25.0}}, rows)
	})

	t.Run("no match yields an empty slice", func(t *testing.T) {
		rows, err := tbl.FilteredRows(ctx, Query{Filter: filter.InList("name", "trent")})
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("unknown projection column", func(t *testing.T) {
		_, err := tbl.FilteredRows(ctx, Query{Columns: []string{"height"}})
		assert.ErrorIs(t, err, ErrUnknownColumn)
	})

	t.Run("invalid filter propagates", func(t *testing.T) {
		_, err := tbl.FilteredRows(ctx, Query{Filter: filter.InList("height", 180)})
		assert.ErrorIs(t, err, filter.ErrInvalidFilter)
	})
}

func TestFilteredRowsFromFilter(t *testing.T) {
	ctx := context.Background()
	tbl := testTable(t)

	t.Run("bound filter runs without rebinding", func(t *testing.T) {
		bound, err := filter.New(filter.InList("boolean", false), tbl.Schema())
		require.NoError(t, err)

		rows, err := tbl.FilteredRowsFromFilter(ctx, bound, []string{"name"}, false)
		require.NoError(t, err)
		assert.Equal(t, [][]any{{"bob"}, {"dave"}}, rows)
	})

	t.Run("nil filter selects every row", func(t *testing.T) {
		rows, err := tbl.FilteredRowsFromFilter(ctx, nil, nil, false)
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})
}

func mustNumberSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema([]schema.Column{{Name: "age", Type: schema.ColumnTypeNumber}})
	require.NoError(t, err)
	return s
}

func TestRangeQueryEndToEnd(t *testing.T) {
	s := mustNumberSchema(t)
	tbl, err := NewRowTable(s, [][]any{{1}, {4}, {5}, {9}})
	require.NoError(t, err)

	rows, err := tbl.FilteredRows(context.Background(), Query{Filter: filter.InRange("age", 4, 5)})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{4.0}, {5.0}}, rows)
}

func TestColumn(t *testing.T) {
	ctx := context.Background()
	tbl := testTable(t)

	values, err := tbl.Column(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, []any{"alice", "bob", "carol", "dave"}, values)

	_, err = tbl.Column(ctx, "height")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestAllValues(t *testing.T) {
	ctx := context.Background()
	s := mustNumberSchema(t)
	tbl, err := NewRowTable(s, [][]any{{5}, {1}, {5}, {3}, {1}})
	require.NoError(t, err)

	values, err := tbl.AllValues(ctx, "age")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 3.0, 5.0}, values)

	_, err = tbl.AllValues(ctx, "height")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRangeSpec(t *testing.T) {
	ctx := context.Background()

	t.Run("reports extremes", func(t *testing.T) {
		tbl := testTable(t)
		spec, err := tbl.RangeSpec(ctx, "age")
		require.NoError(t, err)
		assert.Equal(t, RangeSpec{MinVal: 25.0, MaxVal: 40.0}, spec)
	})

	t.Run("temporal columns", func(t *testing.T) {
		tbl := testTable(t)
		spec, err := tbl.RangeSpec(ctx, "date")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), spec.MinVal)
		assert.Equal(t, time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), spec.MaxVal)
	})

	t.Run("empty table", func(t *testing.T) {
		tbl, err := NewRowTable(mustNumberSchema(t), nil)
		require.NoError(t, err)

		spec, err := tbl.RangeSpec(ctx, "age")
		require.NoError(t, err)
		assert.Equal(t, RangeSpec{}, spec)
	})

	t.Run("unknown column", func(t *testing.T) {
		tbl := testTable(t)
		_, err := tbl.RangeSpec(ctx, "height")
		assert.ErrorIs(t, err, ErrUnknownColumn)
	})
}
