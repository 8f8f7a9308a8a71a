// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/z5labs/items/app"
	"github.com/z5labs/items/config"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func TestBuild(t *testing.T) {
	t.Run("will register the providers globally", func(t *testing.T) {
		t.Run("and shut them down after running", func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

			reader := sdkmetric.NewManualReader()
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

			closed := false
			sdk := SDK{
				TracerProvider: config.ReaderOf[trace.TracerProvider](tp),
				MeterProvider:  config.ReaderOf[metric.MeterProvider](mp),
				Closers: []io.Closer{closerFunc(func() error {
					closed = true
					return nil
				})},
			}

			inner := app.Build(func(ctx context.Context) (app.Runtime, error) {
				return app.RuntimeFunc(func(ctx context.Context) error {
					_, span := otel.Tracer("test").Start(ctx, "run")
					span.End()

					counter, err := otel.Meter("test").Int64Counter("runs")
					if err != nil {
						return err
					}
					counter.Add(ctx, 1)

					var rm metricdata.ResourceMetrics
					return reader.Collect(ctx, &rm)
				}), nil
			})

			rt, err := Build(sdk, inner).Build(context.Background())
			require.Nil(t, err)

			err = rt.Run(context.Background())
			require.Nil(t, err)

			require.Len(t, recorder.Ended(), 1)
			require.Equal(t, "run", recorder.Ended()[0].Name())
			require.True(t, closed)

			var rm metricdata.ResourceMetrics
			err = reader.Collect(context.Background(), &rm)
			require.ErrorIs(t, err, sdkmetric.ErrReaderShutdown)
		})
	})

	t.Run("will shut the providers down", func(t *testing.T) {
		t.Run("if the inner builder fails", func(t *testing.T) {
			reader := sdkmetric.NewManualReader()
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

			buildErr := errors.New("build")
			inner := app.Build(func(ctx context.Context) (app.Runtime, error) {
				return nil, buildErr
			})

			_, err := Build(SDK{MeterProvider: config.ReaderOf[metric.MeterProvider](mp)}, inner).Build(context.Background())
			require.ErrorIs(t, err, buildErr)

			var rm metricdata.ResourceMetrics
			err = reader.Collect(context.Background(), &rm)
			require.ErrorIs(t, err, sdkmetric.ErrReaderShutdown)
		})
	})

	t.Run("will return the reader error", func(t *testing.T) {
		t.Run("if a provider can not be read", func(t *testing.T) {
			readErr := errors.New("bad exporter")
			sdk := SDK{
				TracerProvider: config.ReaderFunc[trace.TracerProvider](func(ctx context.Context) (config.Value[trace.TracerProvider], error) {
					return config.Value[trace.TracerProvider]{}, readErr
				}),
			}

			inner := app.Build(func(ctx context.Context) (app.Runtime, error) {
				return app.RuntimeFunc(func(ctx context.Context) error { return nil }), nil
			})

			_, err := Build(sdk, inner).Build(context.Background())
			require.ErrorIs(t, err, readErr)
		})
	})
}

func TestRuntime_Run(t *testing.T) {
	t.Run("will join the shutdown errors", func(t *testing.T) {
		t.Run("with the runtime error", func(t *testing.T) {
			runErr := errors.New("run")
			closeErr := errors.New("close")

			inner := app.Build(func(ctx context.Context) (app.Runtime, error) {
				return app.RuntimeFunc(func(ctx context.Context) error { return runErr }), nil
			})
			sdk := SDK{
				Closers: []io.Closer{closerFunc(func() error { return closeErr })},
			}

			rt, err := Build(sdk, inner).Build(context.Background())
			require.Nil(t, err)

			err = rt.Run(context.Background())
			require.ErrorIs(t, err, runErr)
			require.ErrorIs(t, err, closeErr)
		})
	})
}
