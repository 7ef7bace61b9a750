// Package telemetry sets up the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/karua/hostcore/pkg/config"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/logx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// NewProvider installs the global tracer provider and propagator. With
// tracing disabled it installs nothing and returns a no-op shutdown.
func NewProvider(ctx context.Context, cfg config.TracingConfig, version string) (Shutdown, error) {
	if !cfg.Enabled {
		return noop, nil
	}

	exp, err := newExporter(ctx, cfg, os.Stdout)
	if err != nil {
		return noop, errx.Wrap(err, "failed to create trace exporter", errx.TypeInternal).
			WithDetail("exporter", cfg.Exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(newResource(cfg.ServiceName, version)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logx.WithFields(logx.Fields{
		"exporter": cfg.Exporter,
		"service":  cfg.ServiceName,
	}).Info("tracing enabled")
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg config.TracingConfig, w io.Writer) (sdktrace.SpanExporter, error) {
	if cfg.Exporter == "otlp" {
		endpoint, insecure := splitEndpoint(cfg.OTLPEndpoint)
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithoutTimestamps(),
	)
}

// splitEndpoint strips the scheme from an OTLP endpoint. Only an explicit
// http:// scheme disables TLS.
func splitEndpoint(raw string) (endpoint string, insecure bool) {
	if rest, ok := strings.CutPrefix(raw, "http://"); ok {
		return rest, true
	}
	return strings.TrimPrefix(raw, "https://"), false
}

func newResource(service, version string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(service),
		semconv.ServiceVersion(version),
	)
}
