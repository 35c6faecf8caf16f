package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config 描述 OTLP 导出端点。gRPC 优先；两者都为空时不启用导出。
type Config struct {
	HTTPEndpoint string
	GRPCEndpoint string
	Headers      map[string]string
}

func (c Config) Enabled() bool {
	return c.HTTPEndpoint != "" || c.GRPCEndpoint != ""
}

// Telemetry 持有已安装的全局 provider；零值表示未启用（Shutdown 为空操作）。
type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup 在配置了端点时安装全局 TracerProvider / MeterProvider。
// 未配置时保持 otel 默认的 no-op provider。
func Setup(ctx context.Context, serviceName string, c Config) (Telemetry, error) {
	if !c.Enabled() {
		return Telemetry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return Telemetry{}, err
	}

	tp, err := newTraceProvider(ctx, r, c)
	if err != nil {
		return Telemetry{}, err
	}
	otel.SetTracerProvider(tp)

	mp, err := newMetricProvider(ctx, r, c)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return Telemetry{}, err
	}
	otel.SetMeterProvider(mp)

	return Telemetry{TracerProvider: tp, MeterProvider: mp}, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, c Config) (*trace.TracerProvider, error) {
	exporter, err := traceExporter(ctx, c)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func traceExporter(ctx context.Context, c Config) (trace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if c.GRPCEndpoint != "" {
		slog.Debug("trace 导出已启用", "type", "grpc", "endpoint", c.GRPCEndpoint, "headers", len(c.Headers) > 0)
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(c.GRPCEndpoint),
			otlptracegrpc.WithHeaders(c.Headers),
		)
	}
	slog.Debug("trace 导出已启用", "type", "http", "endpoint", c.HTTPEndpoint, "headers", len(c.Headers) > 0)
	return otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(c.HTTPEndpoint),
		otlptracehttp.WithHeaders(c.Headers),
	)
}

func newMetricProvider(ctx context.Context, r *resource.Resource, c Config) (*metric.MeterProvider, error) {
	exporter, err := metricExporter(ctx, c)
	if err != nil {
		return nil, err
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(5*time.Second))),
		metric.WithResource(r),
	), nil
}

func metricExporter(ctx context.Context, c Config) (metric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if c.GRPCEndpoint != "" {
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(c.GRPCEndpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
		)
	}
	return otlpmetrichttp.New(
		ctx,
		otlpmetrichttp.WithEndpointURL(c.HTTPEndpoint),
		otlpmetrichttp.WithHeaders(c.Headers),
	)
}
