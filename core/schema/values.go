package schema

import (
	"fmt"
	"strings"
	"time"
)

// Canonical wire layouts for temporal values.
const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04:05"
	DatetimeLayout  = "2006-01-02T15:04:05"
)

// datetimeLayouts are accepted on input, tried in order. The canonical layout
// comes first; the space-separated form is what SQLite emits for text
// datetime columns.
var datetimeLayouts = []string{
	DatetimeLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Normalize coerces a raw value into the canonical native form for column
// type t: string for STRING, float64 for NUMBER, bool for BOOLEAN and a UTC
// time.Time at second precision for the temporal types. It accepts native Go
// values, the widened forms produced by JSON decoding and database scans, and
// the serialized literal forms, so Normalize is also the parse direction of
// the Serialize round trip.
func Normalize(value any, t ColumnType) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("nil value for %s column", t)
	}
	switch t {
	case ColumnTypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case ColumnTypeNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int8:
			return float64(v), nil
		case int16:
			return float64(v), nil
		case int32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case uint:
			return float64(v), nil
		case uint8:
			return float64(v), nil
		case uint16:
			return float64(v), nil
		case uint32:
			return float64(v), nil
		case uint64:
			return float64(v), nil
		}
	case ColumnTypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case int:
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		case int64:
			// SQLite stores booleans as 0/1 integers.
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		case float64:
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		}
	case ColumnTypeDate:
		switch v := value.(type) {
		case time.Time:
			return dateValue(v), nil
		case string:
			parsed, err := time.Parse(DateLayout, v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s literal %q", t, v)
			}
			return dateValue(parsed), nil
		}
	case ColumnTypeTimeOfDay:
		switch v := value.(type) {
		case time.Time:
			return timeOfDayValue(v), nil
		case string:
			parsed, err := time.Parse(TimeOfDayLayout, v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s literal %q", t, v)
			}
			return timeOfDayValue(parsed), nil
		}
	case ColumnTypeDatetime:
		switch v := value.(type) {
		case time.Time:
			return datetimeValue(v), nil
		case string:
			for _, layout := range datetimeLayouts {
				if parsed, err := time.Parse(layout, v); err == nil {
					return datetimeValue(parsed), nil
				}
			}
			return nil, fmt.Errorf("invalid %s literal %q", t, v)
		}
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
	return nil, fmt.Errorf("value of type %T is not valid for a %s column", value, t)
}

// Compare orders two values of column type t, returning -1, 0 or 1. Both
// values must already be in the native form produced by Normalize. Booleans
// order false before true.
func Compare(a, b any, t ColumnType) int {
	switch t {
	case ColumnTypeString:
		return strings.Compare(a.(string), b.(string))
	case ColumnTypeNumber:
		av, bv := a.(float64), b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case ColumnTypeBoolean:
		av, bv := a.(bool), b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case ColumnTypeDate, ColumnTypeTimeOfDay, ColumnTypeDatetime:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return 0
}

// Serialize converts a value of column type t into its transport-safe literal
// form: the value itself for STRING, NUMBER and BOOLEAN, the canonical string
// layout for the temporal types. The value is normalized first, so raw input
// forms are accepted. Normalize inverts the conversion.
func Serialize(value any, t ColumnType) (any, error) {
	v, err := Normalize(value, t)
	if err != nil {
		return nil, err
	}
	switch t {
	case ColumnTypeDate:
		return v.(time.Time).Format(DateLayout), nil
	case ColumnTypeTimeOfDay:
		return v.(time.Time).Format(TimeOfDayLayout), nil
	case ColumnTypeDatetime:
		return v.(time.Time).Format(DatetimeLayout), nil
	}
	return v, nil
}

// SerializeColumn converts a sequence of same-typed values into their
// transport-safe literal forms.
func SerializeColumn(values []any, t ColumnType) ([]any, error) {
	out := make([]any, len(values))
	for i, value := range values {
		v, err := Serialize(value, t)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// NormalizeRow validates and coerces one positional row against the schema.
func (s *Schema) NormalizeRow(row []any) ([]any, error) {
	if len(row) != len(s.columns) {
		return nil, fmt.Errorf("row has %d values, schema has %d columns", len(row), len(s.columns))
	}
	out := make([]any, len(row))
	for i, col := range s.columns {
		v, err := Normalize(row[i], col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// SerializeRow converts every value of a schema-conformant row into its
// transport-safe literal form.
func (s *Schema) SerializeRow(row []any) ([]any, error) {
	if len(row) != len(s.columns) {
		return nil, fmt.Errorf("row has %d values, schema has %d columns", len(row), len(s.columns))
	}
	out := make([]any, len(row))
	for i, col := range s.columns {
		v, err := Serialize(row[i], col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

func dateValue(v time.Time) time.Time {
	y, m, d := v.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timeOfDayValue(v time.Time) time.Time {
	h, m, s := v.UTC().Clock()
	return time.Date(0, time.January, 1, h, m, s, 0, time.UTC)
}

func datetimeValue(v time.Time) time.Time {
	u := v.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), 0, time.UTC)
}
