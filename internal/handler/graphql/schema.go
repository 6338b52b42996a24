package graphql

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	gql "github.com/graph-gophers/graphql-go"
	gqlotel "github.com/graph-gophers/graphql-go/trace/otel"
)

//go:embed schema.graphql
var schemaSDL string

const (
	maxQueryDepth  = 12
	maxParallelism = 16
)

// NewSchema parses the embedded schema against r.
func NewSchema(r *Resolver, logger *slog.Logger) (*gql.Schema, error) {
	schema, err := gql.ParseSchema(schemaSDL, r,
		gql.UseStringDescriptions(),
		gql.MaxDepth(maxQueryDepth),
		gql.MaxParallelism(maxParallelism),
		gql.Tracer(gqlotel.DefaultTracer()),
		gql.Logger(panicLogger{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}

// panicLogger reports resolver panics through slog.
type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value any) {
	l.logger.ErrorContext(ctx, "graphql resolver panic", slog.Any("panic", value))
}
