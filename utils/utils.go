// Package utils provides schema-driven conversions between positional rows
// and the keyed forms callers usually hold their data in.
package utils

import (
	"encoding/json"
	"fmt"

	"github.com/asaidimu/go-tabular/core/schema"
)

// RowFromMap arranges a keyed record into a positional row following the
// schema's column order. Every schema column must be present in the map; keys
// outside the schema are ignored.
func RowFromMap(s *schema.Schema, record map[string]any) ([]any, error) {
	row := make([]any, s.Len())
	for i, col := range s.Columns() {
		value, ok := record[col.Name]
		if !ok {
			return nil, fmt.Errorf("record has no value for column %q", col.Name)
		}
		row[i] = value
	}
	return row, nil
}

// RowsFromMaps converts a slice of keyed records into positional rows.
func RowsFromMaps(s *schema.Schema, records []map[string]any) ([][]any, error) {
	rows := make([][]any, len(records))
	for i, record := range records {
		row, err := RowFromMap(s, record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// MapFromRow spreads a positional row into a map keyed by column name.
func MapFromRow(s *schema.Schema, row []any) (map[string]any, error) {
	if len(row) != s.Len() {
		return nil, fmt.Errorf("row has %d values, schema has %d columns", len(row), s.Len())
	}
	record := make(map[string]any, s.Len())
	for i, col := range s.Columns() {
		record[col.Name] = row[i]
	}
	return record, nil
}

// MapsFromRows converts positional rows into maps keyed by column name.
func MapsFromRows(s *schema.Schema, rows [][]any) ([]map[string]any, error) {
	records := make([]map[string]any, len(rows))
	for i, row := range rows {
		record, err := MapFromRow(s, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records[i] = record
	}
	return records, nil
}

// RowFromStruct arranges a struct's fields into a positional row following
// the schema's column order. The struct is flattened through its JSON
// representation, so `json` tags decide which schema column each field feeds.
func RowFromStruct[T any](s *schema.Schema, record T) ([]any, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal struct to JSON: %w", err)
	}

	var keyed map[string]any
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to map: %w", err)
	}
	return RowFromMap(s, keyed)
}

// RowsFromStructs converts a slice of structs into positional rows.
func RowsFromStructs[T any](s *schema.Schema, records []T) ([][]any, error) {
	rows := make([][]any, len(records))
	for i, record := range records {
		row, err := RowFromStruct(s, record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}
