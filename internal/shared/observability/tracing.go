package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "radar"

// Tracer is the package-wide tracer. Until InitTracing installs a provider it
// resolves to the global no-op provider.
var Tracer trace.Tracer = otel.Tracer(instrumentationName)

// TracingConfig selects where spans are exported.
type TracingConfig struct {
	Endpoint    string
	ServiceName string
	Insecure    bool
}

// InitTracing installs an OTLP/gRPC batching tracer provider as the global
// provider and returns its shutdown function.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSpanProcessor(serviceNameProcessor{name: cfg.ServiceName}),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer(instrumentationName)
	return provider.Shutdown, nil
}

// serviceNameProcessor stamps every span with the configured service name.
type serviceNameProcessor struct {
	name string
}

func (p serviceNameProcessor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	if p.name != "" {
		s.SetAttributes(attribute.String("service.name", p.name))
	}
}

func (serviceNameProcessor) OnEnd(sdktrace.ReadOnlySpan)          {}
func (serviceNameProcessor) Shutdown(context.Context) error   { return nil }
func (serviceNameProcessor) ForceFlush(context.Context) error { return nil }
