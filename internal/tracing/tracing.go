package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// DefaultEndpoint is the OTLP/HTTP collector address used when none is configured.
const DefaultEndpoint = "localhost:4318"

// Config controls span export.
type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

var traceProvider *sdktrace.TracerProvider

// Init installs a global tracer provider exporting to an OTLP/HTTP collector.
// When tracing is disabled the global no-op provider stays in place and
// Tracer still returns a usable tracer.
func Init(ctx context.Context, cfg Config, logger *slog.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	name := cfg.ServiceName
	if name == "" {
		name = "rewind"
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return err
	}

	res := resource.NewSchemaless(attribute.String("service.name", name))

	traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(traceProvider)

	logger.Info("tracing initialized", "endpoint", endpoint, "service", name)
	return nil
}

// Tracer returns the named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Shutdown flushes and stops the provider installed by Init.
func Shutdown(ctx context.Context, logger *slog.Logger) {
	if traceProvider == nil {
		return
	}
	if err := traceProvider.Shutdown(ctx); err != nil {
		logger.Warn("tracer shutdown failed", "error", err)
		return
	}
	traceProvider = nil
	logger.Debug("tracer shutdown complete")
}
