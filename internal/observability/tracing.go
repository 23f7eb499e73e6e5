// Package observability configures OpenTelemetry tracing.
package observability

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Shutdown flushes and releases telemetry resources.
type Shutdown func(ctx context.Context) error

// Options selects where spans go. An empty Endpoint disables export and
// leaves the global no-op tracer in place.
type Options struct {
	Endpoint    string
	ServiceName string
	Insecure    bool
}

// Setup installs a global tracer provider exporting over OTLP/HTTP.
func Setup(ctx context.Context, opts Options, log zerolog.Logger) (Shutdown, error) {
	if opts.Endpoint == "" {
		log.Debug().Msg("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	name := opts.ServiceName
	if name == "" {
		name = "llmrevise"
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(name)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info().Str("endpoint", opts.Endpoint).Msg("tracing enabled")

	return tp.Shutdown, nil
}
