// Package table holds typed tabular data and answers filtered queries over
// it.
//
// A Table couples an ordered schema with row data and serves the query
// operations shared by every backend: filtered row retrieval, column
// extraction, distinct values, and range bounds. RowTable is the in-memory
// implementation; database loaders and remote clients provide the same
// surface over other sources.
package table

import (
	"context"
	"errors"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/asaidimu/go-tabular/core/schema"
)

// Sentinel errors shared by table implementations and the Registry.
var (
	// ErrUnknownTable reports a lookup for a name no table is registered
	// under.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownColumn reports a reference to a column the schema does not
	// declare.
	ErrUnknownColumn = errors.New("unknown column")
)

// Query describes one filtered-rows request.
type Query struct {
	Filter    *filter.Spec `json:"filter,omitempty"`  // Row selection; nil selects every row.
	Columns   []string     `json:"columns,omitempty"` // Projection, in the order given; empty means every column.
	Serialize bool         `json:"-"`                 // Return wire values instead of native ones.
}

// Request is the wire form of a query addressed to a named table.
type Request struct {
	Table   string       `json:"table"`
	Filter  *filter.Spec `json:"filter,omitempty"`
	Columns []string     `json:"columns,omitempty"`
}

// RangeSpec reports the smallest and largest value of a column.
type RangeSpec struct {
	MinVal any `json:"min_val"`
	MaxVal any `json:"max_val"`
}

// Table is the query surface shared by every table implementation.
type Table interface {
	// Schema returns the table's column layout.
	Schema() *schema.Schema
	// FilteredRows returns the rows selected by the query, in storage
	// order.
	FilteredRows(ctx context.Context, q Query) ([][]any, error)
	// FilteredRowsFromFilter runs an already bound filter, skipping the
	// bind step FilteredRows performs. A nil filter selects every row.
	FilteredRowsFromFilter(ctx context.Context, f *filter.Filter, columns []string, serialize bool) ([][]any, error)
	// Column returns every value of the named column, in storage order.
	Column(ctx context.Context, column string) ([]any, error)
	// AllValues returns the distinct values of the named column, sorted
	// ascending.
	AllValues(ctx context.Context, column string) ([]any, error)
	// RangeSpec returns the extreme values of the named column.
	RangeSpec(ctx context.Context, column string) (RangeSpec, error)
}
