// Package tracing wires OpenTelemetry spans around the webhook/metrics mux
// and one span per call turn, grounded in AltairaLabs-PromptKit's
// TracerProvider setup and otelhttp wrapping.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"net/http"
)

const instrumentationName = "github.com/lokutor-ai/lokutor-orchestrator"

// NewTracerProvider creates a TracerProvider that prints spans to stdout.
// Swapping the exporter for an OTLP one is the only change needed to ship
// spans to a real collector.
func NewTracerProvider(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("tracing: new exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: new resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// Tracer returns the package's named tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// WrapHandler instruments an HTTP handler with one span per request.
func WrapHandler(handler http.Handler, operation string) http.Handler {
	return otelhttp.NewHandler(handler, operation)
}

// StartTurn opens a span covering one controller turn (listening through
// speaking), with the call id attached for correlation.
func StartTurn(ctx context.Context, callID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "controller.turn", trace.WithAttributes(attribute.String("call_id", callID)))
}
