package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/asaidimu/go-tabular/core/schema"
	"github.com/asaidimu/go-tabular/core/table"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE people (
			name    TEXT,
			age     INTEGER,
			joined  DATE,
			active  BOOLEAN
		)`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO people (name, age, joined, active) VALUES
			('alice', 25, '2020-01-01', 1),
			('bob',   30, '2020-02-01', 0),
			('carol', 35, '2020-03-01', 1)`)
	require.NoError(t, err)
	return db
}

func TestInferSchema(t *testing.T) {
	db := openTestDB(t)

	sch, err := InferSchema(context.Background(), db, "people")
	require.NoError(t, err)
	assert.Equal(t, []schema.Column{
		{Name: "name", Type: schema.ColumnTypeString},
		{Name: "age", Type: schema.ColumnTypeNumber},
		{Name: "joined", Type: schema.ColumnTypeDate},
		{Name: "active", Type: schema.ColumnTypeBoolean},
	}, sch.Columns())

	t.Run("missing table", func(t *testing.T) {
		_, err := InferSchema(context.Background(), db, "nobody")
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	db := openTestDB(t)

	sch, err := schema.NewSchema([]schema.Column{
		{Name: "name", Type: schema.ColumnTypeString},
		{Name: "age", Type: schema.ColumnTypeNumber},
	})
	require.NoError(t, err)

	tbl, err := Load(context.Background(), db, "SELECT name, age FROM people", sch, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.RowCount())
	assert.Equal(t, [][]any{
		{"alice", 25.0},
		{"bob", 30.0},
		{"carol", 35.0},
	}, tbl.Rows())

	t.Run("result missing a schema column", func(t *testing.T) {
		_, err := Load(context.Background(), db, "SELECT name FROM people", sch, nil)
		assert.ErrorContains(t, err, "age")
	})
}

func TestLoadTable(t *testing.T) {
	db := openTestDB(t)

	tbl, err := LoadTable(context.Background(), db, "people", nil)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.RowCount())

	rows, err := tbl.FilteredRows(context.Background(), table.Query{
		Filter:  filter.InRange("age", 30, nil),
		Columns: []string{"name", "joined", "active"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"bob", time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"carol", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), true},
	}, rows)
}
