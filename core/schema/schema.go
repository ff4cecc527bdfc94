package schema

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Column is one named, typed column in a schema.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Schema is an ordered sequence of uniquely named columns. Column order
// defines the positional index used to locate a value within a row. A Schema
// is immutable once constructed and safe for concurrent use; tables and
// filters share it by reference.
type Schema struct {
	columns []Column
	index   map[string]int
}

// NewSchema builds a schema from an ordered column list. It fails when the
// list is empty, a column name is blank or repeated, or a declared type is
// not one of the supported column types.
func NewSchema(columns []Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema requires at least one column")
	}
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if !col.Type.Valid() {
			return nil, fmt.Errorf("column %q: unknown column type %q", col.Name, col.Type)
		}
		if _, exists := index[col.Name]; exists {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		index[col.Name] = i
	}
	return &Schema{columns: slices.Clone(columns), index: index}, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the ordered column list.
func (s *Schema) Columns() []Column {
	return slices.Clone(s.columns)
}

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, col := range s.columns {
		names[i] = col.Name
	}
	return names
}

// Index returns the positional index of the named column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Type returns the declared type of the named column.
func (s *Schema) Type(name string) (ColumnType, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.columns[i].Type, true
}

// MarshalJSON encodes the schema as the ordered wire list of
// {"name": ..., "type": ...} objects.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.columns)
}

// UnmarshalJSON decodes the wire list form, applying the same validation as
// NewSchema.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var columns []Column
	if err := json.Unmarshal(data, &columns); err != nil {
		return err
	}
	parsed, err := NewSchema(columns)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}
