// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel configures the global OpenTelemetry providers for the service.
//
// Environment variables:
//   - OTEL_SERVICE_NAME, OTEL_SERVICE_VERSION: resource attributes
//   - OTEL_TRACES_SAMPLER_RATIO: fraction of traces to sample, defaults to 1
//   - OTEL_METRIC_EXPORT_INTERVAL: metric push interval, defaults to 10s
//   - OTEL_EXPORTER_OTLP_ENDPOINT and per-signal variants: see package otlp
//   - LOG_LEVEL: minimum level of emitted logs, defaults to INFO
package otel

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/z5labs/items/config"
	"github.com/z5labs/items/otel/otlp"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
	"go.opentelemetry.io/otel/trace"
)

// Resource reads a resource describing the service.
func Resource(name, version config.Reader[string]) config.Reader[*resource.Resource] {
	return config.ReaderFunc[*resource.Resource](func(ctx context.Context) (config.Value[*resource.Resource], error) {
		serviceName, err := config.ReadOr(ctx, "items", name)
		if err != nil {
			return config.Value[*resource.Resource]{}, err
		}
		serviceVersion, err := config.ReadOr(ctx, "", version)
		if err != nil {
			return config.Value[*resource.Resource]{}, err
		}

		r, err := resource.New(
			ctx,
			resource.WithTelemetrySDK(),
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(serviceVersion),
			),
		)
		if err != nil {
			return config.Value[*resource.Resource]{}, err
		}
		return config.ValueOf(r), nil
	})
}

// TracerProvider reads an SDK tracer provider batching spans to exporter.
// It is unset when exporter is unset.
func TracerProvider(
	rsc config.Reader[*resource.Resource],
	ratio config.Reader[float64],
	exporter config.Reader[sdktrace.SpanExporter],
) config.Reader[trace.TracerProvider] {
	return config.Map(exporter, func(ctx context.Context, exp sdktrace.SpanExporter) (trace.TracerProvider, error) {
		r, err := config.Read(ctx, rsc)
		if err != nil {
			return nil, err
		}
		sampleRatio, err := config.ReadOr(ctx, 1.0, ratio)
		if err != nil {
			return nil, err
		}

		return sdktrace.NewTracerProvider(
			sdktrace.WithResource(r),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
			sdktrace.WithBatcher(exp),
		), nil
	})
}

// MeterProvider reads an SDK meter provider periodically pushing to exporter.
// It is unset when exporter is unset.
func MeterProvider(
	rsc config.Reader[*resource.Resource],
	interval config.Reader[time.Duration],
	exporter config.Reader[sdkmetric.Exporter],
) config.Reader[metric.MeterProvider] {
	return config.Map(exporter, func(ctx context.Context, exp sdkmetric.Exporter) (metric.MeterProvider, error) {
		r, err := config.Read(ctx, rsc)
		if err != nil {
			return nil, err
		}
		every, err := config.ReadOr(ctx, 10*time.Second, interval)
		if err != nil {
			return nil, err
		}

		return sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(r),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(every))),
		), nil
	})
}

// LoggerProvider reads an SDK logger provider batching records to exporter
// and dropping any record below minLevel.
func LoggerProvider(
	rsc config.Reader[*resource.Resource],
	minLevel config.Reader[slog.Level],
	exporter config.Reader[sdklog.Exporter],
) config.Reader[log.LoggerProvider] {
	return config.Map(exporter, func(ctx context.Context, exp sdklog.Exporter) (log.LoggerProvider, error) {
		r, err := config.Read(ctx, rsc)
		if err != nil {
			return nil, err
		}
		level, err := config.ReadOr(ctx, slog.LevelInfo, minLevel)
		if err != nil {
			return nil, err
		}

		return sdklog.NewLoggerProvider(
			sdklog.WithResource(r),
			sdklog.WithProcessor(minSeverity(level, sdklog.NewBatchProcessor(exp))),
		), nil
	})
}

// LogLevelFromEnv reads LOG_LEVEL as a [slog.Level], e.g. "debug" or "WARN".
func LogLevelFromEnv() config.Reader[slog.Level] {
	return config.Map(config.Env("LOG_LEVEL"), func(_ context.Context, s string) (slog.Level, error) {
		var level slog.Level
		err := level.UnmarshalText([]byte(s))
		return level, err
	})
}

// SDKFromEnv reads every provider from the environment.
//
// Traces and metrics are only recorded when an OTLP endpoint is configured.
// Logs are always recorded, going to stdout as JSON when there is no
// OTLP logs endpoint.
func SDKFromEnv() SDK {
	exps := otlp.NewExporters(otlp.ProtocolFromEnv())
	rsc := Resource(
		config.Env("OTEL_SERVICE_NAME"),
		config.Env("OTEL_SERVICE_VERSION"),
	)

	return SDK{
		TracerProvider: TracerProvider(
			rsc,
			config.Float64FromString(config.Env("OTEL_TRACES_SAMPLER_RATIO")),
			exps.Span(otlp.EndpointFromEnv(otlp.Traces)),
		),
		MeterProvider: MeterProvider(
			rsc,
			config.DurationFromString(config.Env("OTEL_METRIC_EXPORT_INTERVAL")),
			exps.Metric(otlp.EndpointFromEnv(otlp.Metrics)),
		),
		LoggerProvider: LoggerProvider(
			rsc,
			LogLevelFromEnv(),
			config.Or(
				exps.Log(otlp.EndpointFromEnv(otlp.Logs)),
				SlogExporter(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})),
			),
		),
		Closers: []io.Closer{exps},
	}
}
