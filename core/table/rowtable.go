package table

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/asaidimu/go-tabular/core/schema"
)

// RowTable is an in-memory Table over a fixed slice of rows.
type RowTable struct {
	schema *schema.Schema
	rows   [][]any
}

var _ Table = (*RowTable)(nil)

// NewRowTable builds a table from the given rows. Every row is normalized
// against the schema up front, so queries only ever see native values; a row
// that does not fit the schema fails construction.
func NewRowTable(s *schema.Schema, rows [][]any) (*RowTable, error) {
	if s == nil {
		return nil, errors.New("row table requires a schema")
	}

	normalized := make([][]any, len(rows))
	for i, row := range rows {
		nr, err := s.NormalizeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		normalized[i] = nr
	}
	return &RowTable{schema: s, rows: normalized}, nil
}

// Schema returns the table's column layout.
func (t *RowTable) Schema() *schema.Schema { return t.schema }

// RowCount reports the number of stored rows.
func (t *RowTable) RowCount() int { return len(t.rows) }

// Rows returns the stored rows in storage order.
func (t *RowTable) Rows() [][]any { return slices.Clone(t.rows) }

// FilteredRows binds the query's filter against the schema and returns the
// matching rows in storage order.
func (t *RowTable) FilteredRows(ctx context.Context, q Query) ([][]any, error) {
	var f *filter.Filter
	if q.Filter != nil {
		var err error
		f, err = filter.New(q.Filter, t.schema)
		if err != nil {
			return nil, err
		}
	}
	return t.FilteredRowsFromFilter(ctx, f, q.Columns, q.Serialize)
}

// FilteredRowsFromFilter runs an already bound filter over the stored rows.
func (t *RowTable) FilteredRowsFromFilter(ctx context.Context, f *filter.Filter, columns []string, serialize bool) ([][]any, error) {
	selected := t.rows
	if f != nil {
		index := f.Index(t.rows)
		picked := make([][]any, 0, index.GetCardinality())
		it := index.Iterator()
		for it.HasNext() {
			picked = append(picked, t.rows[it.Next()])
		}
		selected = picked
	}
	return t.project(selected, columns, serialize)
}

// Column returns every value of the named column, in storage order.
func (t *RowTable) Column(ctx context.Context, column string) ([]any, error) {
	position, _, err := t.lookup(column)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[position]
	}
	return values, nil
}

// AllValues returns the distinct values of the named column, sorted in the
// column type's order.
func (t *RowTable) AllValues(ctx context.Context, column string) ([]any, error) {
	position, typ, err := t.lookup(column)
	if err != nil {
		return nil, err
	}

	values := make([]any, 0, len(t.rows))
	for _, row := range t.rows {
		values = append(values, row[position])
	}
	slices.SortFunc(values, func(a, b any) int { return schema.Compare(a, b, typ) })
	return slices.CompactFunc(values, func(a, b any) bool { return schema.Compare(a, b, typ) == 0 }), nil
}

// RangeSpec returns the extreme values of the named column. An empty table
// yields an empty RangeSpec.
func (t *RowTable) RangeSpec(ctx context.Context, column string) (RangeSpec, error) {
	position, typ, err := t.lookup(column)
	if err != nil {
		return RangeSpec{}, err
	}

	var spec RangeSpec
	for i, row := range t.rows {
		value := row[position]
		if i == 0 {
			spec.MinVal, spec.MaxVal = value, value
			continue
		}
		if schema.Compare(value, spec.MinVal, typ) < 0 {
			spec.MinVal = value
		}
		if schema.Compare(value, spec.MaxVal, typ) > 0 {
			spec.MaxVal = value
		}
	}
	return spec, nil
}

func (t *RowTable) lookup(column string) (int, schema.ColumnType, error) {
	position, ok := t.schema.Index(column)
	if !ok {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	typ, _ := t.schema.Type(column)
	return position, typ, nil
}

// project narrows rows to the requested columns, in the requested order, and
// optionally serializes each cell to its wire form.
func (t *RowTable) project(rows [][]any, columns []string, serialize bool) ([][]any, error) {
	cols := t.schema.Columns()
	positions := make([]int, 0, len(cols))
	if len(columns) == 0 {
		for i := range cols {
			positions = append(positions, i)
		}
	} else {
		for _, name := range columns {
			position, _, err := t.lookup(name)
			if err != nil {
				return nil, err
			}
			positions = append(positions, position)
		}
	}

	out := make([][]any, len(rows))
	for i, row := range rows {
		projected := make([]any, len(positions))
		for j, position := range positions {
			value := row[position]
			if serialize {
				serialized, err := schema.Serialize(value, cols[position].Type)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", cols[position].Name, err)
				}
				value = serialized
			}
			projected[j] = value
		}
		out[i] = projected
	}
	return out, nil
}
