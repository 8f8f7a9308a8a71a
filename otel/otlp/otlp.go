// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlp reads OTLP span, metric and log exporters.
//
// The transport is selected by OTEL_EXPORTER_OTLP_PROTOCOL ("grpc" or
// "http/protobuf") and the collector address by OTEL_EXPORTER_OTLP_ENDPOINT
// or its per-signal override.
package otlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/z5labs/items/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Protocol is the OTLP transport.
type Protocol string

const (
	GRPC Protocol = "grpc"
	HTTP Protocol = "http/protobuf"
)

// UnknownProtocolError is returned for an unsupported OTEL_EXPORTER_OTLP_PROTOCOL.
type UnknownProtocolError struct {
	Protocol string
}

// Error implements the [error] interface.
func (e UnknownProtocolError) Error() string {
	return fmt.Sprintf("otlp: unknown protocol: %s", e.Protocol)
}

// ProtocolFromEnv reads OTEL_EXPORTER_OTLP_PROTOCOL. "http" is accepted as
// shorthand for "http/protobuf".
func ProtocolFromEnv() config.Reader[Protocol] {
	return config.Map(
		config.Env("OTEL_EXPORTER_OTLP_PROTOCOL"),
		func(_ context.Context, s string) (Protocol, error) {
			switch strings.ToLower(s) {
			case "grpc":
				return GRPC, nil
			case "http", "http/protobuf":
				return HTTP, nil
			default:
				return "", UnknownProtocolError{Protocol: s}
			}
		},
	)
}

// Signal is one of traces, metrics or logs.
type Signal string

const (
	Traces  Signal = "TRACES"
	Metrics Signal = "METRICS"
	Logs    Signal = "LOGS"
)

// EndpointFromEnv reads the endpoint for sig, falling back to
// OTEL_EXPORTER_OTLP_ENDPOINT.
func EndpointFromEnv(sig Signal) config.Reader[string] {
	return config.Or(
		config.Env("OTEL_EXPORTER_OTLP_"+string(sig)+"_ENDPOINT"),
		config.Env("OTEL_EXPORTER_OTLP_ENDPOINT"),
	)
}

// Exporters builds exporters sharing one gRPC connection per target.
// Close must be called once every exporter has been shut down.
type Exporters struct {
	Protocol config.Reader[Protocol]

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// NewExporters returns Exporters using the given protocol, defaulting to gRPC.
func NewExporters(protocol config.Reader[Protocol]) *Exporters {
	return &Exporters{
		Protocol: protocol,
		conns:    make(map[string]*grpc.ClientConn),
	}
}

func (e *Exporters) conn(endpoint string) (*grpc.ClientConn, error) {
	target := stripScheme(endpoint)

	e.mu.Lock()
	defer e.mu.Unlock()

	if cc, ok := e.conns[target]; ok {
		return cc, nil
	}

	cc, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	e.conns[target] = cc
	return cc, nil
}

// Close closes every gRPC connection opened by e.
func (e *Exporters) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	for target, cc := range e.conns {
		err = errors.Join(err, cc.Close())
		delete(e.conns, target)
	}
	return err
}

func (e *Exporters) protocol(ctx context.Context) (Protocol, error) {
	return config.ReadOr(ctx, GRPC, e.Protocol)
}

// Span reads a span exporter for endpoint. It is unset when endpoint is unset.
func (e *Exporters) Span(endpoint config.Reader[string]) config.Reader[sdktrace.SpanExporter] {
	return config.Map(endpoint, func(ctx context.Context, ep string) (sdktrace.SpanExporter, error) {
		proto, err := e.protocol(ctx)
		if err != nil {
			return nil, err
		}
		if proto == HTTP {
			return otlptracehttp.New(ctx, httpEndpoint(ep, otlptracehttp.WithEndpointURL, otlptracehttp.WithEndpoint, otlptracehttp.WithInsecure)...)
		}
		cc, err := e.conn(ep)
		if err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(cc))
	})
}

// Metric reads a metric exporter for endpoint. It is unset when endpoint is unset.
func (e *Exporters) Metric(endpoint config.Reader[string]) config.Reader[sdkmetric.Exporter] {
	return config.Map(endpoint, func(ctx context.Context, ep string) (sdkmetric.Exporter, error) {
		proto, err := e.protocol(ctx)
		if err != nil {
			return nil, err
		}
		if proto == HTTP {
			return otlpmetrichttp.New(ctx, httpEndpoint(ep, otlpmetrichttp.WithEndpointURL, otlpmetrichttp.WithEndpoint, otlpmetrichttp.WithInsecure)...)
		}
		cc, err := e.conn(ep)
		if err != nil {
			return nil, err
		}
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(cc))
	})
}

// Log reads a log exporter for endpoint. It is unset when endpoint is unset.
func (e *Exporters) Log(endpoint config.Reader[string]) config.Reader[sdklog.Exporter] {
	return config.Map(endpoint, func(ctx context.Context, ep string) (sdklog.Exporter, error) {
		proto, err := e.protocol(ctx)
		if err != nil {
			return nil, err
		}
		if proto == HTTP {
			return otlploghttp.New(ctx, httpEndpoint(ep, otlploghttp.WithEndpointURL, otlploghttp.WithEndpoint, otlploghttp.WithInsecure)...)
		}
		cc, err := e.conn(ep)
		if err != nil {
			return nil, err
		}
		return otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(cc))
	})
}

// httpEndpoint picks between a full URL and a bare host:port, which the
// exporters only accept through different options.
func httpEndpoint[O any](ep string, withURL, withHost func(string) O, insecure func() O) []O {
	if strings.Contains(ep, "://") {
		return []O{withURL(ep)}
	}
	return []O{withHost(ep), insecure()}
}

func stripScheme(ep string) string {
	if _, rest, found := strings.Cut(ep, "://"); found {
		return rest
	}
	return ep
}
