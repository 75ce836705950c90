// Package telemetry configures OpenTelemetry tracing.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Config selects where spans are exported.
type Config struct {
	// Endpoint is the OTLP/gRPC collector address (host:port). Tracing is
	// disabled when empty.
	Endpoint    string
	ServiceName string
	Insecure    bool
}

// Provider owns the global tracer provider installed by Setup.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup installs a batching OTLP tracer provider and the W3C propagators as
// the otel globals. With no endpoint it returns a disabled Provider and
// leaves the no-op globals in place.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.Endpoint == "" {
		logger.Info("tracing disabled")

		return &Provider{}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing enabled", zap.String("endpoint", cfg.Endpoint))

	return &Provider{tp: tp}, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.tp != nil
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown() error {
	if p.tp == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return p.tp.Shutdown(ctx)
}
