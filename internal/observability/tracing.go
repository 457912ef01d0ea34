package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this module's spans in an OpenTelemetry backend.
const tracerName = "sanctions-screening"

// Tracer returns the package-wide tracer. No fetch/parse/match/orchestrate
// code in this module opens spans through it or through StartSpan.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan is a small convenience wrapper so ingestion and matching code
// doesn't need to import otel directly.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name)
}
