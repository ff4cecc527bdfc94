// Package sqlite loads row tables out of SQLite databases. It is the storage
// collaborator of the filter engine: a query's result set is scanned, coerced
// to schema-native values and handed to an in-memory RowTable, after which
// filtering never touches the database again.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/asaidimu/go-tabular/core/schema"
	"github.com/asaidimu/go-tabular/core/table"
	"go.uber.org/zap"
)

// Load runs the query against db and builds a RowTable conforming to sch. The
// query's result columns must cover every schema column by name; extra result
// columns are ignored. A nil logger disables logging.
func Load(ctx context.Context, db *sql.DB, query string, sch *schema.Schema, logger *zap.Logger) (*table.RowTable, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	data, err := readRows(sch, rows)
	if err != nil {
		return nil, err
	}

	logger.Debug("loaded rows from sqlite",
		zap.Int("rows", len(data)),
		zap.Int("columns", sch.Len()),
	)
	return table.NewRowTable(sch, data)
}

// LoadTable builds a RowTable holding the full contents of the named database
// table, with the schema inferred from its declared column types.
func LoadTable(ctx context.Context, db *sql.DB, tableName string, logger *zap.Logger) (*table.RowTable, error) {
	sch, err := InferSchema(ctx, db, tableName)
	if err != nil {
		return nil, err
	}

	names := sch.Names()
	for i, name := range names {
		names[i] = fmt.Sprintf("%q", name)
	}
	query := fmt.Sprintf("SELECT %s FROM %q", strings.Join(names, ", "), tableName)
	return Load(ctx, db, query, sch, logger)
}

// readRows scans all rows, arranging values into schema column order and
// unwidening driver types so that row normalization sees canonical input.
func readRows(sch *schema.Schema, rows *sql.Rows) ([][]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	// Map each schema column to its position in the result set.
	positions := make([]int, sch.Len())
	for i, col := range sch.Columns() {
		found := -1
		for j, name := range columns {
			if name == col.Name {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("query result has no column %q", col.Name)
		}
		positions[i] = found
	}

	var results [][]any
	cols := sch.Columns()
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]any, sch.Len())
		for i, col := range cols {
			row[i] = coerce(values[positions[i]], col.Type)
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

// coerce unwidens a scanned value into a form row normalization accepts.
// Values it does not recognize pass through untouched; normalization rejects
// them with a better error message than the driver layer could give.
func coerce(value any, t schema.ColumnType) any {
	if value == nil {
		return nil
	}
	switch t {
	case schema.ColumnTypeString, schema.ColumnTypeDate,
		schema.ColumnTypeTimeOfDay, schema.ColumnTypeDatetime:
		// Temporal columns stored as TEXT scan as bytes; normalization
		// parses the string form.
		if b, ok := value.([]byte); ok {
			return string(b)
		}
	case schema.ColumnTypeNumber:
		if b, ok := value.([]byte); ok {
			return string(b)
		}
	case schema.ColumnTypeBoolean:
		// SQLite stores booleans as 0/1 integers; normalization handles
		// int64 directly.
	}
	return value
}

// InferSchema derives a schema from the declared column types of the named
// database table, in declaration order.
func InferSchema(ctx context.Context, db *sql.DB, tableName string) (*schema.Schema, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to read table info for %q: %w", tableName, err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			cid        int
			name, decl string
			notNull    int
			dflt       any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &decl, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		typ, err := columnTypeFor(decl)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		columns = append(columns, schema.Column{Name: name, Type: typ})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning table info: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no such table %q", tableName)
	}
	return schema.NewSchema(columns)
}

// columnTypeFor maps a SQLite declared type onto a column type, following
// SQLite's own affinity rules where the name is not one of the direct
// matches.
func columnTypeFor(decl string) (schema.ColumnType, error) {
	upper := strings.ToUpper(strings.TrimSpace(decl))
	switch upper {
	case "DATE":
		return schema.ColumnTypeDate, nil
	case "TIME":
		return schema.ColumnTypeTimeOfDay, nil
	case "DATETIME", "TIMESTAMP":
		return schema.ColumnTypeDatetime, nil
	}
	switch {
	case strings.Contains(upper, "BOOL"):
		return schema.ColumnTypeBoolean, nil
	case strings.Contains(upper, "INT"),
		strings.Contains(upper, "REAL"),
		strings.Contains(upper, "FLOA"),
		strings.Contains(upper, "DOUB"),
		strings.Contains(upper, "NUMERIC"),
		strings.Contains(upper, "DECIMAL"):
		return schema.ColumnTypeNumber, nil
	case strings.Contains(upper, "CHAR"),
		strings.Contains(upper, "CLOB"),
		strings.Contains(upper, "TEXT"):
		return schema.ColumnTypeString, nil
	}
	return "", fmt.Errorf("declared type %q has no column type mapping", decl)
}
