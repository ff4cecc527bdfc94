package table

import (
	"context"
	"testing"
	"time"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(nil)
	require.NoError(t, err)
	return reg
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := testRegistry(t)
	tbl := testTable(t)

	require.NoError(t, reg.Register("people", tbl))

	got, err := reg.Get("people")
	require.NoError(t, err)
	assert.Same(t, tbl, got)

	t.Run("duplicate name", func(t *testing.T) {
		assert.Error(t, reg.Register("people", tbl))
	})

	t.Run("empty name", func(t *testing.T) {
		assert.Error(t, reg.Register("", tbl))
	})

	t.Run("nil table", func(t *testing.T) {
		assert.Error(t, reg.Register("ghost", nil))
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := reg.Get("nobody")
		assert.ErrorIs(t, err, ErrUnknownTable)
	})
}

func TestRegistryNamesAndSchemas(t *testing.T) {
	reg := testRegistry(t)
	tbl := testTable(t)

	require.NoError(t, reg.Register("beta", tbl))
	require.NoError(t, reg.Register("alpha", tbl))

	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())

	schemas := reg.Schemas()
	require.Len(t, schemas, 2)
	assert.Same(t, tbl.Schema(), schemas["alpha"])
	assert.Same(t, tbl.Schema(), schemas["beta"])
}

func TestRegistryRemove(t *testing.T) {
	reg := testRegistry(t)
	require.NoError(t, reg.Register("people", testTable(t)))

	assert.True(t, reg.Remove("people"))
	assert.False(t, reg.Remove("people"))

	_, err := reg.Get("people")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestRegistryFilteredRows(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	require.NoError(t, reg.Register("people", testTable(t)))

	t.Run("runs the query", func(t *testing.T) {
		rows, err := reg.FilteredRows(ctx, "people", Query{
			Filter:  filter.InRange("age", 30, 40),
			Columns: []string{"name"},
		})
		require.NoError(t, err)
		assert.Equal(t, [][]any{{"bob"}, {"carol"}, {"dave"}}, rows)
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := reg.FilteredRows(ctx, "nobody", Query{})
		assert.ErrorIs(t, err, ErrUnknownTable)
	})
}

func waitForEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestRegistryEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("register and remove", func(t *testing.T) {
		reg := testRegistry(t)
		registered := make(chan Event, 1)
		removed := make(chan Event, 1)
		reg.Subscribe(TableRegister, func(ctx context.Context, event Event) error {
			registered <- event
			return nil
		})
		reg.Subscribe(TableRemove, func(ctx context.Context, event Event) error {
			removed <- event
			return nil
		})

		require.NoError(t, reg.Register("people", testTable(t)))
		event := waitForEvent(t, registered)
		assert.Equal(t, TableRegister, event.Type)
		require.NotNil(t, event.Table)
		assert.Equal(t, "people", *event.Table)

		reg.Remove("people")
		event = waitForEvent(t, removed)
		assert.Equal(t, TableRemove, event.Type)
	})

	t.Run("query success carries the row count", func(t *testing.T) {
		reg := testRegistry(t)
		require.NoError(t, reg.Register("people", testTable(t)))

		succeeded := make(chan Event, 1)
		reg.Subscribe(TableQuerySuccess, func(ctx context.Context, event Event) error {
			succeeded <- event
			return nil
		})

		_, err := reg.FilteredRows(ctx, "people", Query{Filter: filter.InList("boolean", true)})
		require.NoError(t, err)

		event := waitForEvent(t, succeeded)
		assert.Equal(t, "query", event.Operation)
		require.NotNil(t, event.Rows)
		assert.Equal(t, 2, *event.Rows)
		require.NotNil(t, event.Query)
		assert.NotNil(t, event.Duration)
	})

	t.Run("query failure carries the error", func(t *testing.T) {
		reg := testRegistry(t)
		failed := make(chan Event, 1)
		reg.Subscribe(TableQueryFailed, func(ctx context.Context, event Event) error {
			failed <- event
			return nil
		})

		_, err := reg.FilteredRows(ctx, "nobody", Query{})
		require.Error(t, err)

		event := waitForEvent(t, failed)
		require.NotNil(t, event.Error)
		assert.Contains(t, *event.Error, "nobody")
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		reg := testRegistry(t)
		received := make(chan Event, 4)
		id := reg.Subscribe(TableRegister, func(ctx context.Context, event Event) error {
			received <- event
			return nil
		})

		require.NoError(t, reg.Register("first", testTable(t)))
		waitForEvent(t, received)

		reg.Unsubscribe(id)
		require.NoError(t, reg.Register("second", testTable(t)))

		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, received)
	})
}
