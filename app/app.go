// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app composes a service out of Builders and runs the resulting Runtime.
//
// A Builder constructs a value, typically a Runtime, from a context. Builders
// are chained with [Bind] and wrapped with [WithHooks] so resources opened while
// building are released once the Runtime returns.
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/z5labs/sdk-go/try"
)

// Builder constructs a T.
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is a func implementation of Builder.
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// Build is a convenience for turning f into a Builder.
func Build[T any](f func(context.Context) (T, error)) Builder[T] {
	return BuilderFunc[T](f)
}

// Bind builds A and then uses it to select the Builder for B.
func Bind[A, B any](builder Builder[A], binder func(A) Builder[B]) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		a, err := builder.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return binder(a).Build(ctx)
	})
}

// Runtime runs until its context is cancelled or it fails.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a func implementation of Runtime.
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Run builds the Runtime and runs it until SIGINT or SIGTERM is received.
// A panic during either phase is recovered and returned as an error.
func Run[T Runtime](ctx context.Context, builder Builder[T]) (err error) {
	defer try.Recover(&err)

	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := builder.Build(sigCtx)
	if err != nil {
		return err
	}
	return rt.Run(sigCtx)
}

// LogError writes err to handler. Nothing is written for a nil error.
func LogError(handler slog.Handler, err error) {
	if err == nil {
		return
	}
	slog.New(handler).Error("failed to run service", slog.Any("error", err))
}
