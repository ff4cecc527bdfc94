package table

import (
	"context"
	"time"
)

// EventType labels an event emitted by a Registry.
type EventType string

const (
	TableRegister     EventType = "table:register"
	TableRemove       EventType = "table:remove"
	TableQueryStart   EventType = "table:query:start"
	TableQuerySuccess EventType = "table:query:success"
	TableQueryFailed  EventType = "table:query:failed"
)

// EventCallback receives registry events. Delivery is asynchronous; a
// returned error is logged by the bus but does not affect the operation that
// produced the event.
type EventCallback func(ctx context.Context, event Event) error

// Event describes a registry operation for subscribers.
type Event struct {
	Type      EventType `json:"type"`               // The type of event (e.g., 'table:query:start').
	Timestamp int64     `json:"timestamp"`          // Timestamp when the event occurred (Unix milliseconds).
	Operation string    `json:"operation"`          // The operation being performed (e.g., 'query', 'register').
	Table     *string   `json:"table,omitempty"`    // Name of the table affected.
	Query     *Query    `json:"query,omitempty"`    // Query used in the operation (if applicable).
	Rows      *int      `json:"rows,omitempty"`     // Number of rows the operation returned.
	Error     *string   `json:"error,omitempty"`    // Error message if the operation failed.
	Duration  *int64    `json:"duration,omitempty"` // Duration of the operation in milliseconds.
}

func newEvent(
	eventType EventType,
	operation string,
	tableName string,
	query *Query,
	rows *int,
	err *string,
	startTime time.Time,
) Event {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	tableNamePtr := &tableName

	return Event{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Operation: operation,
		Table:     tableNamePtr,
		Query:     query,
		Rows:      rows,
		Error:     err,
		Duration:  duration,
	}
}
