package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/asaidimu/go-tabular/core/schema"
	"github.com/asaidimu/go-tabular/core/table"
	"github.com/asaidimu/go-tabular/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema([]schema.Column{
		{Name: "name", Type: schema.ColumnTypeString},
		{Name: "age", Type: schema.ColumnTypeNumber},
		{Name: "date", Type: schema.ColumnTypeDate},
	})
	require.NoError(t, err)
	return s
}

func testRows() [][]any {
	return [][]any{
		{"alice", 25, "2020-01-01"},
		{"bob", 30, "2020-02-01"},
		{"carol", 35, "2020-03-01"},
		{"dave", 40, "2020-04-01"},
	}
}

// startServer serves a local table over HTTP and returns it together with a
// connected remote client for the same data.
func startServer(t *testing.T) (*table.RowTable, *Table) {
	t.Helper()

	local, err := table.NewRowTable(testSchema(t), testRows())
	require.NoError(t, err)

	reg, err := table.NewRegistry(nil)
	require.NoError(t, err)
	require.NoError(t, reg.Register("people", local))

	srv := server.New(server.DefaultConfig(), reg, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Close() })

	remote := New("people", ts.URL, WithHTTPClient(ts.Client()))
	require.NoError(t, remote.Connect(context.Background()))
	return local, remote
}

func TestConnect(t *testing.T) {
	_, remote := startServer(t)
	assert.Equal(t, testSchema(t).Columns(), remote.Schema().Columns())

	t.Run("unknown table", func(t *testing.T) {
		other := New("nobody", remote.baseURL, WithHTTPClient(remote.client))
		err := other.Connect(context.Background())
		assert.ErrorIs(t, err, table.ErrUnknownTable)
	})
}

// TestEquivalence checks the delegate's defining property: for the same data
// and the same query, remote answers equal local ones.
func TestEquivalence(t *testing.T) {
	local, remote := startServer(t)
	ctx := context.Background()

	queries := map[string]table.Query{
		"no filter":    {},
		"columns only": {Columns: []string{"name"}},
		"range filter": {Filter: filter.InRange("age", 30, 40)},
		"composite filter with projection": {
			Filter: filter.Any(
				filter.InList("name", "alice"),
				filter.InRange("age", 40, nil),
			),
			Columns: []string{"date", "name"},
		},
		"serialized": {Filter: filter.InRange("age", 30, 40), Serialize: true},
	}

	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			want, err := local.FilteredRows(ctx, q)
			require.NoError(t, err)
			got, err := remote.FilteredRows(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFilteredRowsFromFilter(t *testing.T) {
	local, remote := startServer(t)
	ctx := context.Background()

	f, err := filter.New(filter.InRange("age", 30, 40), local.Schema())
	require.NoError(t, err)

	want, err := local.FilteredRowsFromFilter(ctx, f, []string{"name"}, false)
	require.NoError(t, err)
	got, err := remote.FilteredRowsFromFilter(ctx, f, []string{"name"}, false)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("nil filter selects everything", func(t *testing.T) {
		got, err := remote.FilteredRowsFromFilter(ctx, nil, nil, false)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})
}

func TestColumnOperations(t *testing.T) {
	local, remote := startServer(t)
	ctx := context.Background()

	t.Run("column", func(t *testing.T) {
		want, err := local.Column(ctx, "date")
		require.NoError(t, err)
		got, err := remote.Column(ctx, "date")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("all values", func(t *testing.T) {
		want, err := local.AllValues(ctx, "age")
		require.NoError(t, err)
		got, err := remote.AllValues(ctx, "age")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("range spec", func(t *testing.T) {
		want, err := local.RangeSpec(ctx, "date")
		require.NoError(t, err)
		got, err := remote.RangeSpec(ctx, "date")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := remote.Column(ctx, "height")
		assert.ErrorIs(t, err, table.ErrUnknownColumn)
	})
}

func TestTransportErrors(t *testing.T) {
	_, remote := startServer(t)
	ctx := context.Background()

	t.Run("filter that does not bind", func(t *testing.T) {
		_, err := remote.FilteredRows(ctx, table.Query{Filter: filter.InList("height", 180)})
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("unreachable server", func(t *testing.T) {
		dead := New("people", "http://127.0.0.1:1", WithSchema(remote.Schema()),
			WithHTTPClient(&http.Client{}))
		_, err := dead.FilteredRows(ctx, table.Query{})
		assert.ErrorIs(t, err, ErrTransport)
	})
}
