// Package server exposes a table registry over HTTP.
//
// The routes mirror the query surface of a table:
//
//	GET  /                  route listing
//	GET  /get_tables        schema of every served table, keyed by name
//	GET  /get_table_schema  schema of one table
//	POST /get_filtered_rows rows matching a filter specification
//	GET  /get_range_spec    extreme values of a column
//	GET  /get_all_values    distinct values of a column
//	GET  /get_column        every value of a column
//	GET  /metrics           Prometheus metrics
//
// Responses are JSON with row and column values in wire form, so any client
// that can parse the schema can reconstruct native values.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/asaidimu/go-tabular/core/table"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxBodySize = 10 << 20 // 10 MiB

// Server serves every table in a registry over HTTP.
type Server struct {
	config   Config
	registry *table.Registry
	logger   *zap.Logger
	handler  http.Handler
	srv      *http.Server
	subs     []string
}

// New builds a server around the given registry. A nil logger disables
// logging.
func New(cfg Config, registry *table.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:   cfg,
		registry: registry,
		logger:   logger,
	}
	s.handler = s.routes()
	s.srv = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.handler,
		ReadTimeout:  cfg.readTimeout(),
		WriteTimeout: cfg.writeTimeout(),
	}

	// Keep the served-tables gauge in step with the registry.
	tablesServed.Set(float64(len(registry.Names())))
	update := func(ctx context.Context, event table.Event) error {
		tablesServed.Set(float64(len(registry.Names())))
		return nil
	}
	s.subs = []string{
		registry.Subscribe(table.TableRegister, update),
		registry.Subscribe(table.TableRemove, update),
	}
	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe binds the configured address and serves until Close is
// called. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("serving tables",
		zap.String("addr", s.config.Addr()),
		zap.Strings("tables", s.registry.Names()),
	)
	return s.srv.ListenAndServe()
}

// Close drains in-flight requests and shuts the server down.
func (s *Server) Close() error {
	for _, id := range s.subs {
		s.registry.Unsubscribe(id)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	// Helper to wrap handlers with middleware
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		h = s.withMetrics(h)
		h = s.withLogging(h)
		return h
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", wrap(s.handleRoutes))
	mux.HandleFunc("/get_tables", wrap(s.handleTables))
	mux.HandleFunc("/get_table_schema", wrap(s.handleTableSchema))
	mux.HandleFunc("/get_filtered_rows", wrap(s.handleFilteredRows))
	mux.HandleFunc("/get_range_spec", wrap(s.handleRangeSpec))
	mux.HandleFunc("/get_all_values", wrap(s.handleAllValues))
	mux.HandleFunc("/get_column", wrap(s.handleColumn))
	mux.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: s.config.CORS.AllowedHeaders,
		MaxAge:         s.config.CORS.MaxAge,
	})
	return c.Handler(mux)
}

func (s *Server) withLogging(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-Id", requestID)

		h(w, r)

		s.logger.Debug("request served",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) withMetrics(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestsReceived.Inc()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		h(rec, r)

		requestDuration.Observe(time.Since(start).Seconds())
		switch {
		case rec.status >= 500:
			requestsFailed.Inc()
		case rec.status >= 400:
			requestsRejected.Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
