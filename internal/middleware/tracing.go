package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceName renames the server span started by otelhttp after the matched
// route template, which is only known once Huma resolved the operation.
func TraceName() func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		span := trace.SpanFromContext(ctx.Context())
		if op := ctx.Operation(); op != nil && span.IsRecording() {
			span.SetName(ctx.Method() + " " + op.Path)
			span.SetAttributes(
				attribute.String("http.route", op.Path),
				attribute.String("operation.id", op.OperationID),
			)
		}

		next(ctx)
	}
}
