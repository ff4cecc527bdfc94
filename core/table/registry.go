package table

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-tabular/core/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry holds named tables and publishes lifecycle and query events to
// subscribers. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]Table

	bus           *events.TypedEventBus[Event]
	subscriptions map[string]func() // To store unsubscribe functions
	subMu         sync.RWMutex      // Mutex to protect subscriptions map

	logger *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) (*Registry, error) {
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tables:        make(map[string]Table),
		bus:           bus,
		subscriptions: make(map[string]func()),
		logger:        logger,
	}, nil
}

// Register adds a table under the given name. Registering a name twice is an
// error; Remove the old table first.
func (r *Registry) Register(name string, t Table) error {
	if name == "" {
		return fmt.Errorf("table name must not be empty")
	}
	if t == nil {
		return fmt.Errorf("table %q is nil", name)
	}

	r.mu.Lock()
	if _, exists := r.tables[name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("table %q is already registered", name)
	}
	r.tables[name] = t
	r.mu.Unlock()

	r.logger.Debug("registered table", zap.String("table", name))
	r.emit(newEvent(TableRegister, "register", name, nil, nil, nil, time.Time{}))
	return nil
}

// Remove drops the named table. It reports whether the table was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	_, exists := r.tables[name]
	delete(r.tables, name)
	r.mu.Unlock()

	if exists {
		r.logger.Debug("removed table", zap.String("table", name))
		r.emit(newEvent(TableRemove, "remove", name, nil, nil, nil, time.Time{}))
	}
	return exists
}

// Get returns the named table.
func (r *Registry) Get(name string) (Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// Names returns the registered table names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Schemas returns the schema of every registered table, keyed by table name.
func (r *Registry) Schemas() map[string]*schema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make(map[string]*schema.Schema, len(r.tables))
	for name, t := range r.tables {
		schemas[name] = t.Schema()
	}
	return schemas
}

// FilteredRows resolves the named table and runs the query against it,
// emitting query lifecycle events around the call.
func (r *Registry) FilteredRows(ctx context.Context, name string, q Query) ([][]any, error) {
	return r.withEvents("query", name, &q, func() ([][]any, error) {
		t, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		return t.FilteredRows(ctx, q)
	})
}

// withEvents wraps an operation with start, success, and failure events.
func (r *Registry) withEvents(operation string, tableName string, query *Query, fn func() ([][]any, error)) ([][]any, error) {
	startTime := time.Now()

	r.emit(newEvent(TableQueryStart, operation, tableName, query, nil, nil, startTime))

	rows, err := fn()

	if err != nil {
		errStr := err.Error()
		r.emit(newEvent(TableQueryFailed, operation, tableName, query, nil, &errStr, startTime))
		r.logger.Warn("query failed", zap.String("table", tableName), zap.Error(err))
		return nil, err
	}

	count := len(rows)
	r.emit(newEvent(TableQuerySuccess, operation, tableName, query, &count, nil, startTime))
	return rows, nil
}

func (r *Registry) emit(event Event) {
	if r.bus != nil {
		r.bus.Emit(string(event.Type), event)
	}
}

// Subscribe registers a callback for the given event type. It returns a
// unique id that can be used to unsubscribe later.
func (r *Registry) Subscribe(eventType EventType, callback EventCallback) string {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	unsubscribe := r.bus.Subscribe(string(eventType), callback)
	id := uuid.New().String()
	r.subscriptions[id] = unsubscribe
	return id
}

// Unsubscribe removes a subscription by its id.
func (r *Registry) Unsubscribe(id string) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if unsubscribe, ok := r.subscriptions[id]; ok {
		unsubscribe()
		delete(r.subscriptions, id)
	}
}
