// Package tracing wires OpenTelemetry trace export over OTLP gRPC.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/kairos/internal/logging"
)

// TracingProvider wraps the OpenTelemetry TracerProvider as a lifecycle
// component.
type TracingProvider struct {
	tracerProvider *sdktrace.TracerProvider
	logger         *logging.Logger
	enabled        bool
}

// Config holds tracing configuration.
type Config struct {
	Enabled  bool
	Endpoint string // OTLP gRPC endpoint, e.g. "otel-collector:4317"
}

// NewTracingProvider creates the tracing provider. With Enabled=false it is
// inert and GetTracer returns no-op tracers.
func NewTracingProvider(cfg Config) (*TracingProvider, error) {
	logger := logging.GetLogger("tracing")

	if !cfg.Enabled {
		logger.Info("Tracing disabled")
		return &TracingProvider{logger: logger, enabled: false}, nil
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("tracing enabled but endpoint not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("kairos"),
			semconv.ServiceVersion("0.1.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)

	logger.Info("Tracing initialized with endpoint: %s", cfg.Endpoint)
	return &TracingProvider{
		tracerProvider: tracerProvider,
		logger:         logger,
		enabled:        true,
	}, nil
}

// Start implements lifecycle.Component.
func (tp *TracingProvider) Start(ctx context.Context) error {
	tp.logger.Info("Tracing provider started")
	return nil
}

// Stop flushes remaining spans and shuts the provider down.
func (tp *TracingProvider) Stop(ctx context.Context) error {
	if !tp.enabled {
		return nil
	}
	if err := tp.tracerProvider.Shutdown(ctx); err != nil {
		tp.logger.Error("Error shutting down tracer provider: %v", err)
		return err
	}
	tp.logger.Info("Tracing provider stopped")
	return nil
}

// Name implements lifecycle.Component.
func (tp *TracingProvider) Name() string {
	return "Tracing Provider"
}

// GetTracer returns a tracer for instrumenting code.
func (tp *TracingProvider) GetTracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}

// IsEnabled reports whether export is active.
func (tp *TracingProvider) IsEnabled() bool {
	return tp.enabled
}
