// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http runs an [http.Handler] as an [app.Runtime].
package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/items"
	"github.com/z5labs/items/app"
	"github.com/z5labs/items/config"
	"github.com/z5labs/items/health"

	"github.com/sourcegraph/conc/pool"
)

// TCPListener reads a [net.Listener] bound to Addr.
type TCPListener struct {
	Addr config.Reader[string]
}

// AddrFromEnv reads the listen address from HTTP_ADDR.
func AddrFromEnv() config.Reader[string] {
	return config.Env("HTTP_ADDR")
}

// Read implements the [config.Reader] interface. The address defaults to ":8080".
func (tcpLn TCPListener) Read(ctx context.Context) (config.Value[net.Listener], error) {
	addr := config.MustOr(ctx, ":8080", tcpLn.Addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return config.Value[net.Listener]{}, err
	}
	return config.ValueOf(ln), nil
}

// Server configures the underlying [http.Server].
type Server struct {
	Listener          config.Reader[net.Listener]
	ReadTimeout       config.Reader[time.Duration]
	ReadHeaderTimeout config.Reader[time.Duration]
	WriteTimeout      config.Reader[time.Duration]
	IdleTimeout       config.Reader[time.Duration]
	ShutdownTimeout   config.Reader[time.Duration]
	MaxHeaderBytes    config.Reader[int]

	// Readiness, if set, is marked healthy while the server accepts
	// connections and unhealthy once shutdown begins.
	Readiness *health.Binary
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// ReadTimeout bounds reading an entire request. Defaults to 5s.
func ReadTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ReadTimeout = d
	}
}

// ReadHeaderTimeout bounds reading request headers. Defaults to 2s.
func ReadHeaderTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ReadHeaderTimeout = d
	}
}

// WriteTimeout bounds writing a response. Defaults to 10s.
func WriteTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.WriteTimeout = d
	}
}

// IdleTimeout bounds keep-alive idle time. Defaults to 120s.
func IdleTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.IdleTimeout = d
	}
}

// ShutdownTimeout bounds graceful shutdown. Defaults to 10s.
func ShutdownTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ShutdownTimeout = d
	}
}

// MaxHeaderBytes limits request header size. Defaults to 1MiB.
func MaxHeaderBytes(n config.Reader[int]) ServerOption {
	return func(srv *Server) {
		srv.MaxHeaderBytes = n
	}
}

// Readiness ties b to the serving state of the server.
func Readiness(b *health.Binary) ServerOption {
	return func(srv *Server) {
		srv.Readiness = b
	}
}

// FromEnv reads every timeout and limit from its HTTP_* environment variable.
func FromEnv() ServerOption {
	return func(srv *Server) {
		srv.ReadTimeout = config.DurationFromString(config.Env("HTTP_READ_TIMEOUT"))
		srv.ReadHeaderTimeout = config.DurationFromString(config.Env("HTTP_READ_HEADER_TIMEOUT"))
		srv.WriteTimeout = config.DurationFromString(config.Env("HTTP_WRITE_TIMEOUT"))
		srv.IdleTimeout = config.DurationFromString(config.Env("HTTP_IDLE_TIMEOUT"))
		srv.ShutdownTimeout = config.DurationFromString(config.Env("HTTP_SHUTDOWN_TIMEOUT"))
		srv.MaxHeaderBytes = config.IntFromString(config.Env("HTTP_MAX_HEADER_BYTES"))
	}
}

// NewServer returns a Server which will serve on the given listener.
func NewServer(listener config.Reader[net.Listener], opts ...ServerOption) Server {
	srv := Server{
		Listener: listener,
	}
	for _, opt := range opts {
		opt(&srv)
	}
	return srv
}

// App serves HTTP until its context is cancelled.
type App struct {
	ls              net.Listener
	srv             *http.Server
	shutdownTimeout time.Duration
	ready           *health.Binary
}

// Addr returns the address the App is listening on.
func (a App) Addr() net.Addr {
	return a.ls.Addr()
}

// Run implements the [app.Runtime] interface.
// Cancelling ctx triggers a graceful shutdown and Run returns nil once it completes.
func (a App) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		if a.ready != nil {
			a.ready.MarkHealthy()
		}
		return a.srv.Serve(a.ls)
	})

	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		if a.ready != nil {
			a.ready.MarkUnhealthy()
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})

	err := p.Wait()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Build serves the handler built by b according to srv.
func Build(srv Server, b app.Builder[http.Handler]) app.Builder[App] {
	return app.Bind(b, func(h http.Handler) app.Builder[App] {
		return app.BuilderFunc[App](func(ctx context.Context) (App, error) {
			ln, err := config.Read(ctx, srv.Listener)
			if err != nil {
				return App{}, err
			}

			httpServer := &http.Server{
				Handler:           h,
				ReadTimeout:       config.MustOr(ctx, 5*time.Second, srv.ReadTimeout),
				ReadHeaderTimeout: config.MustOr(ctx, 2*time.Second, srv.ReadHeaderTimeout),
				WriteTimeout:      config.MustOr(ctx, 10*time.Second, srv.WriteTimeout),
				IdleTimeout:       config.MustOr(ctx, 120*time.Second, srv.IdleTimeout),
				MaxHeaderBytes:    config.MustOr(ctx, 1<<20, srv.MaxHeaderBytes),
				ErrorLog:          slog.NewLogLogger(items.Logger("github.com/z5labs/items/http").Handler(), slog.LevelError),
			}

			return App{
				ls:              ln,
				srv:             httpServer,
				shutdownTimeout: config.MustOr(ctx, 10*time.Second, srv.ShutdownTimeout),
				ready:           srv.Readiness,
			}, nil
		})
	})
}
