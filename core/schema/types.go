// Package schema defines the column type system and the ordered column
// schemas shared by tables and filters. A schema fixes the name, declared
// type and positional index of every column; values are normalized into one
// canonical native form per type so that comparison and serialization are
// deterministic everywhere a value travels.
package schema

import "fmt"

// ColumnType identifies the type of the values stored in a column. The type
// determines equality and ordering semantics and whether pattern matching is
// permitted (STRING only).
type ColumnType string

// Supported column types.
const (
	ColumnTypeString    ColumnType = "STRING"
	ColumnTypeNumber    ColumnType = "NUMBER"
	ColumnTypeBoolean   ColumnType = "BOOLEAN"
	ColumnTypeDate      ColumnType = "DATE"
	ColumnTypeTimeOfDay ColumnType = "TIME_OF_DAY"
	ColumnTypeDatetime  ColumnType = "DATETIME"
)

// columnTypes is the set of all supported column types.
var columnTypes = map[ColumnType]struct{}{
	ColumnTypeString:    {},
	ColumnTypeNumber:    {},
	ColumnTypeBoolean:   {},
	ColumnTypeDate:      {},
	ColumnTypeTimeOfDay: {},
	ColumnTypeDatetime:  {},
}

// Valid reports whether t is one of the supported column types.
func (t ColumnType) Valid() bool {
	_, ok := columnTypes[t]
	return ok
}

// Temporal reports whether values of the type are represented as time.Time
// and serialized through a string layout.
func (t ColumnType) Temporal() bool {
	switch t {
	case ColumnTypeDate, ColumnTypeTimeOfDay, ColumnTypeDatetime:
		return true
	}
	return false
}

// ParseColumnType converts a wire-format type name into a ColumnType.
func ParseColumnType(name string) (ColumnType, error) {
	t := ColumnType(name)
	if !t.Valid() {
		return "", fmt.Errorf("unknown column type %q", name)
	}
	return t, nil
}
