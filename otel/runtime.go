// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/z5labs/items/app"
	"github.com/z5labs/items/config"

	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// SDK holds readers for the global OpenTelemetry components.
// Any unset reader falls back to a noop implementation, except the
// propagator which defaults to W3C trace context and baggage.
type SDK struct {
	TextMapPropagator config.Reader[propagation.TextMapPropagator]
	TracerProvider    config.Reader[trace.TracerProvider]
	MeterProvider     config.Reader[metric.MeterProvider]
	LoggerProvider    config.Reader[log.LoggerProvider]

	// Closers are closed after every provider has shut down.
	Closers []io.Closer
}

// Runtime runs an inner [app.Runtime] and shuts the providers down afterwards.
type Runtime struct {
	inner     app.Runtime
	providers []shutdowner
	closers   []io.Closer
	timeout   time.Duration
}

// Build registers the providers read from sdk globally and then builds the
// inner Runtime. Runtime metrics are collected whenever the MeterProvider
// is an SDK provider.
func Build[T app.Runtime](sdk SDK, builder app.Builder[T]) app.Builder[Runtime] {
	return app.BuilderFunc[Runtime](func(ctx context.Context) (rt Runtime, err error) {
		defaultPropagator := propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)

		tmp, err := config.ReadOr(ctx, defaultPropagator, sdk.TextMapPropagator)
		if err != nil {
			return Runtime{}, err
		}
		tp, err := config.ReadOr[trace.TracerProvider](ctx, tracenoop.NewTracerProvider(), sdk.TracerProvider)
		if err != nil {
			return Runtime{}, err
		}
		mp, err := config.ReadOr[metric.MeterProvider](ctx, metricnoop.NewMeterProvider(), sdk.MeterProvider)
		if err != nil {
			return Runtime{}, err
		}
		lp, err := config.ReadOr[log.LoggerProvider](ctx, lognoop.NewLoggerProvider(), sdk.LoggerProvider)
		if err != nil {
			return Runtime{}, err
		}

		otel.SetTextMapPropagator(tmp)
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		global.SetLoggerProvider(lp)

		rt = Runtime{
			closers: sdk.Closers,
			timeout: 10 * time.Second,
		}
		for _, p := range []any{tp, mp, lp} {
			if s, ok := p.(shutdowner); ok {
				rt.providers = append(rt.providers, s)
			}
		}

		// Providers are already live so they must be flushed even if
		// the inner runtime never gets built.
		defer func() {
			if err != nil {
				err = errors.Join(err, rt.Close())
			}
		}()

		if _, ok := mp.(*sdkmetric.MeterProvider); ok {
			err = runtime.Start(
				runtime.WithMeterProvider(mp),
				runtime.WithMinimumReadMemStatsInterval(time.Second),
			)
			if err != nil {
				return rt, err
			}
		}

		rt.inner, err = builder.Build(ctx)
		if err != nil {
			return rt, err
		}
		return rt, nil
	})
}

// Run implements the [app.Runtime] interface.
// Providers are shut down even if the inner Runtime fails.
func (rt Runtime) Run(ctx context.Context) (err error) {
	defer try.Close(&err, rt)

	return rt.inner.Run(ctx)
}

type shutdowner interface {
	Shutdown(context.Context) error
}

// Close shuts every provider down in parallel and then releases the closers.
func (rt Runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), rt.timeout)
	defer cancel()

	errs := make([]error, len(rt.providers))

	var g errgroup.Group
	for i, p := range rt.providers {
		g.Go(func() error {
			errs[i] = p.Shutdown(ctx)
			return nil
		})
	}
	g.Wait()

	for _, c := range rt.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
