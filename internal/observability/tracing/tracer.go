// Package tracing exposes the application's OpenTelemetry tracer.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the dev-digest application.
var tracer = otel.Tracer("dev-digest")

// Init installs the SDK tracer provider. Without a configured exporter the
// spans stay in-process; wiring an exporter only requires an extra option
// here. The returned function flushes and shuts the provider down.
func Init() func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "dev-digest"),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// GetTracer returns the global tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "digest.run")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
