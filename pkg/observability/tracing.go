// Package observability wires the OpenTelemetry tracing pipeline for the CLI
// and for embedders that want spans around reads. The reader itself only asks
// the global tracer for spans; without Init those spans are no-ops.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// TracingConfig controls the trace provider installed by Init.
type TracingConfig struct {
	// ServiceName names the traced service.
	ServiceName string
	// ServiceVersion is recorded on the trace resource.
	ServiceVersion string
	// SamplingRate picks the trace fraction: <=0 never samples, >=1 always.
	SamplingRate float64
	// BatchTimeout bounds how long spans wait before export.
	BatchTimeout time.Duration
}

// DefaultTracingConfig returns the configuration for local development:
// every span sampled and pretty-printed to stdout.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "tabular",
		ServiceVersion: "0.1.0",
		SamplingRate:   1.0,
		BatchTimeout:   5 * time.Second,
	}
}

// Init installs a global trace provider exporting to stdout and returns a
// shutdown function that flushes pending spans.
func Init(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
