// Package remote provides a client for tables served over HTTP.
//
// A remote Table implements the same query surface as a local one, so code
// written against the table interface works unchanged whether the rows live
// in process or behind a server. Results arrive in wire form and are parsed
// back into native values, keeping remote answers equal to local ones.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/asaidimu/go-tabular/core/schema"
	"github.com/asaidimu/go-tabular/core/table"
	"go.uber.org/zap"
)

// ErrTransport reports a failure to reach the remote server or a response it
// refused to serve.
var ErrTransport = errors.New("remote table transport failure")

// Table is a client for one table served by a remote server.
type Table struct {
	name    string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	schema  *schema.Schema
}

var _ table.Table = (*Table)(nil)

// Option adjusts how a remote table is constructed.
type Option func(*Table)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Table) { t.client = client }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// WithSchema supplies the table's schema up front, skipping the discovery
// round trip Connect performs.
func WithSchema(s *schema.Schema) Option {
	return func(t *Table) { t.schema = s }
}

// New creates a client for the named table at the given base URL. Unless the
// schema was supplied with WithSchema, Connect must be called before
// querying.
func New(name, baseURL string, opts ...Option) *Table {
	t := &Table{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the name of the remote table.
func (t *Table) Name() string { return t.name }

// Connect asks the server for its table listing and adopts the schema
// published for this table. It fails if the server does not serve the table.
func (t *Table) Connect(ctx context.Context) error {
	var tables map[string]*schema.Schema
	if err := t.getJSON(ctx, "/get_tables", nil, &tables); err != nil {
		return err
	}

	s, ok := tables[t.name]
	if !ok {
		return fmt.Errorf("%w: %q is not served at %s", table.ErrUnknownTable, t.name, t.baseURL)
	}
	t.schema = s
	t.logger.Debug("connected to remote table",
		zap.String("table", t.name),
		zap.String("url", t.baseURL),
	)
	return nil
}

// Schema returns the table's column layout, or nil before Connect.
func (t *Table) Schema() *schema.Schema { return t.schema }

// FilteredRows sends the query to the server and returns the matching rows.
// Unless q.Serialize is set, wire values are parsed back into native ones.
func (t *Table) FilteredRows(ctx context.Context, q table.Query) ([][]any, error) {
	req := table.Request{Table: t.name, Filter: q.Filter, Columns: q.Columns}

	var rows [][]any
	if err := t.postJSON(ctx, "/get_filtered_rows", req, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = [][]any{}
	}
	if q.Serialize {
		return rows, nil
	}
	return t.parseRows(rows, q.Columns)
}

// FilteredRowsFromFilter sends the bound filter's specification to the
// server. A nil filter selects every row.
func (t *Table) FilteredRowsFromFilter(ctx context.Context, f *filter.Filter, columns []string, serialize bool) ([][]any, error) {
	q := table.Query{Columns: columns, Serialize: serialize}
	if f != nil {
		q.Filter = f.Spec()
	}
	return t.FilteredRows(ctx, q)
}

// Column fetches every value of the named column, in storage order.
func (t *Table) Column(ctx context.Context, column string) ([]any, error) {
	return t.fetchColumnValues(ctx, "/get_column", column)
}

// AllValues fetches the distinct values of the named column, sorted.
func (t *Table) AllValues(ctx context.Context, column string) ([]any, error) {
	return t.fetchColumnValues(ctx, "/get_all_values", column)
}

// RangeSpec fetches the extreme values of the named column.
func (t *Table) RangeSpec(ctx context.Context, column string) (table.RangeSpec, error) {
	typ, err := t.columnType(column)
	if err != nil {
		return table.RangeSpec{}, err
	}

	var wire table.RangeSpec
	if err := t.getJSON(ctx, "/get_range_spec", t.columnParams(column), &wire); err != nil {
		return table.RangeSpec{}, err
	}

	spec := table.RangeSpec{}
	if wire.MinVal != nil {
		if spec.MinVal, err = schema.Normalize(wire.MinVal, typ); err != nil {
			return table.RangeSpec{}, fmt.Errorf("min_val: %w", err)
		}
	}
	if wire.MaxVal != nil {
		if spec.MaxVal, err = schema.Normalize(wire.MaxVal, typ); err != nil {
			return table.RangeSpec{}, fmt.Errorf("max_val: %w", err)
		}
	}
	return spec, nil
}

func (t *Table) fetchColumnValues(ctx context.Context, path, column string) ([]any, error) {
	typ, err := t.columnType(column)
	if err != nil {
		return nil, err
	}

	var wire []any
	if err := t.getJSON(ctx, path, t.columnParams(column), &wire); err != nil {
		return nil, err
	}

	values := make([]any, len(wire))
	for i, value := range wire {
		parsed, err := schema.Normalize(value, typ)
		if err != nil {
			return nil, fmt.Errorf("value %d of column %q: %w", i, column, err)
		}
		values[i] = parsed
	}
	return values, nil
}

func (t *Table) columnParams(column string) url.Values {
	return url.Values{"table": {t.name}, "column": {column}}
}

func (t *Table) columnType(column string) (schema.ColumnType, error) {
	if t.schema == nil {
		return "", fmt.Errorf("table %q has no schema: call Connect first", t.name)
	}
	typ, ok := t.schema.Type(column)
	if !ok {
		return "", fmt.Errorf("%w: %q", table.ErrUnknownColumn, column)
	}
	return typ, nil
}

// parseRows converts wire rows back into native values using the schema,
// honoring a column projection when one was requested.
func (t *Table) parseRows(rows [][]any, columns []string) ([][]any, error) {
	types, err := t.projectedTypes(columns)
	if err != nil {
		return nil, err
	}

	parsed := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(types) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(types))
		}
		values := make([]any, len(row))
		for j, value := range row {
			pv, err := schema.Normalize(value, types[j])
			if err != nil {
				return nil, fmt.Errorf("row %d, value %d: %w", i, j, err)
			}
			values[j] = pv
		}
		parsed[i] = values
	}
	return parsed, nil
}

func (t *Table) projectedTypes(columns []string) ([]schema.ColumnType, error) {
	if t.schema == nil {
		return nil, fmt.Errorf("table %q has no schema: call Connect first", t.name)
	}
	if len(columns) == 0 {
		cols := t.schema.Columns()
		types := make([]schema.ColumnType, len(cols))
		for i, col := range cols {
			types[i] = col.Type
		}
		return types, nil
	}

	types := make([]schema.ColumnType, len(columns))
	for i, name := range columns {
		typ, err := t.columnType(name)
		if err != nil {
			return nil, err
		}
		types[i] = typ
	}
	return types, nil
}

func (t *Table) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := t.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return t.do(req, out)
}

func (t *Table) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req, out)
}

func (t *Table) do(req *http.Request, out any) error {
	t.logger.Debug("remote table request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var remoteErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &remoteErr) == nil && remoteErr.Error != "" {
			return fmt.Errorf("%w: %s: %s", ErrTransport, resp.Status, remoteErr.Error)
		}
		return fmt.Errorf("%w: %s", ErrTransport, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrTransport, err)
	}
	return nil
}
