package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/asaidimu/go-tabular/core/filter"
	"github.com/asaidimu/go-tabular/core/schema"
	"github.com/asaidimu/go-tabular/core/table"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// A compact end-to-end tour: build a table, bind filters against its schema,
// evaluate them, and watch the registry's query events. The examples/
// directory holds longer walkthroughs, including the SQLite loader and the
// HTTP server with a remote client.
func main() {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"

	logger, err := config.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 1. Declare the column layout. The schema fixes every column's name,
	// position and type; filters and rows are validated against it.
	sch, err := schema.NewSchema([]schema.Column{
		{Name: "name", Type: schema.ColumnTypeString},
		{Name: "age", Type: schema.ColumnTypeNumber},
		{Name: "joined", Type: schema.ColumnTypeDate},
	})
	if err != nil {
		logger.Fatal("Failed to build schema", zap.Error(err))
	}

	// 2. Build the table. Rows are normalized up front, so queries only
	// ever see native values.
	tbl, err := table.NewRowTable(sch, [][]any{
		{"alice", 25, "2020-01-01"},
		{"bob", 30, "2020-02-01"},
		{"carol", 35, "2020-03-01"},
		{"dave", 40, "2020-04-01"},
	})
	if err != nil {
		logger.Fatal("Failed to build table", zap.Error(err))
	}

	// 3. Register it and subscribe to query events.
	registry, err := table.NewRegistry(logger)
	if err != nil {
		logger.Fatal("Failed to create registry", zap.Error(err))
	}
	if err := registry.Register("people", tbl); err != nil {
		logger.Fatal("Failed to register table", zap.Error(err))
	}
	subID := registry.Subscribe(table.TableQuerySuccess, func(ctx context.Context, event table.Event) error {
		logger.Info("query completed",
			zap.String("table", *event.Table),
			zap.Intp("rows", event.Rows),
		)
		return nil
	})
	defer registry.Unsubscribe(subID)

	// 4. Build a filter specification. Specs are plain data and travel as
	// JSON; the same tree could arrive in a request body.
	spec := filter.All(
		filter.InRange("age", 30, 40),
		filter.None(filter.RegexMatch("name", "^d")),
	)
	wire, _ := json.Marshal(spec)
	fmt.Printf("filter spec: %s\n", wire)

	ctx := context.Background()
	rows, err := registry.FilteredRows(ctx, "people", table.Query{
		Filter:  spec,
		Columns: []string{"name", "joined"},
	})
	if err != nil {
		logger.Fatal("Query failed", zap.Error(err))
	}
	for _, row := range rows {
		fmt.Println(row)
	}

	// 5. The bound filter also answers which literals it references for a
	// column, the query a UI widget uses to pre-populate its choices.
	bound, err := filter.New(spec, sch)
	if err != nil {
		logger.Fatal("Failed to bind filter", zap.Error(err))
	}
	fmt.Printf("literals for age: %v\n", bound.ColumnValues("age"))
}
