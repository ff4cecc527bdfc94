package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/asaidimu/go-tabular/core/schema"
	"github.com/asaidimu/go-tabular/core/table"
	"go.uber.org/zap"
)

// routeInfo describes one endpoint in the listing served at /.
type routeInfo struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, []routeInfo{
		{Path: "/get_tables", Method: http.MethodGet, Description: "Schema of every served table, keyed by name"},
		{Path: "/get_table_schema?table=NAME", Method: http.MethodGet, Description: "Schema of one table"},
		{Path: "/get_filtered_rows", Method: http.MethodPost, Description: "Rows matching a filter specification"},
		{Path: "/get_range_spec?table=NAME&column=NAME", Method: http.MethodGet, Description: "Extreme values of a column"},
		{Path: "/get_all_values?table=NAME&column=NAME", Method: http.MethodGet, Description: "Distinct values of a column, sorted"},
		{Path: "/get_column?table=NAME&column=NAME", Method: http.MethodGet, Description: "Every value of a column, in storage order"},
		{Path: "/metrics", Method: http.MethodGet, Description: "Prometheus metrics"},
	})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.registry.Schemas())
}

func (s *Server) handleTableSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tbl, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, tbl.Schema())
}

func (s *Server) handleFilteredRows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req table.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.Table == "" {
		s.writeError(w, http.StatusBadRequest, "missing required field %q", "table")
		return
	}

	rows, err := s.registry.FilteredRows(r.Context(), req.Table, table.Query{
		Filter:    req.Filter,
		Columns:   req.Columns,
		Serialize: true,
	})
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeJSON(w, rows)
}

func (s *Server) handleRangeSpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tbl, column, ok := s.lookupColumn(w, r)
	if !ok {
		return
	}

	spec, err := tbl.RangeSpec(r.Context(), column)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	typ, _ := tbl.Schema().Type(column)
	wire := table.RangeSpec{}
	if spec.MinVal != nil {
		if wire.MinVal, err = schema.Serialize(spec.MinVal, typ); err != nil {
			s.writeQueryError(w, err)
			return
		}
	}
	if spec.MaxVal != nil {
		if wire.MaxVal, err = schema.Serialize(spec.MaxVal, typ); err != nil {
			s.writeQueryError(w, err)
			return
		}
	}
	s.writeJSON(w, wire)
}

func (s *Server) handleAllValues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tbl, column, ok := s.lookupColumn(w, r)
	if !ok {
		return
	}

	values, err := tbl.AllValues(r.Context(), column)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeColumnValues(w, tbl, column, values)
}

func (s *Server) handleColumn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tbl, column, ok := s.lookupColumn(w, r)
	if !ok {
		return
	}

	values, err := tbl.Column(r.Context(), column)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeColumnValues(w, tbl, column, values)
}

func (s *Server) writeColumnValues(w http.ResponseWriter, tbl table.Table, column string, values []any) {
	typ, _ := tbl.Schema().Type(column)
	wire, err := schema.SerializeColumn(values, typ)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeJSON(w, wire)
}

func (s *Server) lookupTable(w http.ResponseWriter, r *http.Request) (table.Table, bool) {
	name := r.URL.Query().Get("table")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "missing required parameter %q", "table")
		return nil, false
	}
	tbl, err := s.registry.Get(name)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "%v", err)
		return nil, false
	}
	return tbl, true
}

func (s *Server) lookupColumn(w http.ResponseWriter, r *http.Request) (table.Table, string, bool) {
	tbl, ok := s.lookupTable(w, r)
	if !ok {
		return nil, "", false
	}
	column := r.URL.Query().Get("column")
	if column == "" {
		s.writeError(w, http.StatusBadRequest, "missing required parameter %q", "column")
		return nil, "", false
	}
	return tbl, column, true
}

// writeQueryError maps an error from the table layer to a status code.
// Binding, validation, and lookup failures are the caller's fault; anything
// else is ours.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, table.ErrUnknownTable),
		errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, filter.ErrMalformedSpec),
		errors.Is(err, filter.ErrInvalidFilter):
		s.writeError(w, http.StatusBadRequest, "%v", err)
	default:
		s.writeError(w, http.StatusInternalServerError, "%v", err)
	}
}

// writeJSON encodes data as JSON and writes it to the response. Encoding
// errors are logged instead of silently ignored.
func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	s.logger.Warn("request rejected", zap.Int("status", status), zap.String("error", message))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		s.logger.Error("failed to encode error response", zap.Error(err))
	}
}
