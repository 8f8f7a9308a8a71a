// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides composable readers for configuration values.
//
// A [Reader] produces a [Value] which may or may not be set. Readers are
// combined with [Or], [Default] and [Map] so that a single value can be
// sourced from the environment, a file or a literal without the caller
// caring where it came from.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Value is the result of reading a config value. The zero Value is unset.
type Value[T any] struct {
	v   T
	set bool
}

// ValueOf returns a set Value holding v.
func ValueOf[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Value returns the underlying value and whether it was set.
func (v Value[T]) Value() (T, bool) {
	return v.v, v.set
}

// Reader reads a single config value.
type Reader[T any] interface {
	Read(context.Context) (Value[T], error)
}

// ReaderFunc is a func implementation of Reader.
type ReaderFunc[T any] func(context.Context) (Value[T], error)

// Read implements the [Reader] interface.
func (f ReaderFunc[T]) Read(ctx context.Context) (Value[T], error) {
	return f(ctx)
}

// EmptyReader returns a Reader which never has a value.
func EmptyReader[T any]() Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return Value[T]{}, nil
	})
}

// ReaderOf returns a Reader which always returns v.
func ReaderOf[T any](v T) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return ValueOf(v), nil
	})
}

// Env reads the environment variable with the given name.
// An empty variable is treated the same as an unset one.
func Env(name string) Reader[string] {
	return ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
		s, ok := os.LookupEnv(name)
		if !ok || s == "" {
			return Value[string]{}, nil
		}
		return ValueOf(s), nil
	})
}

// Or returns the first set value from the given readers.
func Or[T any](rs ...Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		for _, r := range rs {
			v, err := readOrEmpty(ctx, r)
			if err != nil {
				return Value[T]{}, err
			}
			if _, set := v.Value(); set {
				return v, nil
			}
		}
		return Value[T]{}, nil
	})
}

// Default returns def whenever r has no value.
func Default[T any](def T, r Reader[T]) Reader[T] {
	return Or(r, ReaderOf(def))
}

// Map transforms the value of r with f. Unset values are not passed to f.
func Map[A, B any](r Reader[A], f func(context.Context, A) (B, error)) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		va, err := readOrEmpty(ctx, r)
		if err != nil {
			return Value[B]{}, err
		}
		a, set := va.Value()
		if !set {
			return Value[B]{}, nil
		}
		b, err := f(ctx, a)
		if err != nil {
			return Value[B]{}, err
		}
		return ValueOf(b), nil
	})
}

// ParseError is returned when a string value cannot be converted.
type ParseError struct {
	Value string
	Type  string
	Cause error
}

// Error implements the [error] interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("config: can not parse %q as %s: %s", e.Value, e.Type, e.Cause)
}

// Unwrap allows [errors.Is] and [errors.As] to inspect the cause.
func (e ParseError) Unwrap() error {
	return e.Cause
}

func parse[T any](typ string, r Reader[string], f func(string) (T, error)) Reader[T] {
	return Map(r, func(ctx context.Context, s string) (T, error) {
		v, err := f(s)
		if err != nil {
			var zero T
			return zero, ParseError{Value: s, Type: typ, Cause: err}
		}
		return v, nil
	})
}

// IntFromString parses the value of r as a base 10 int.
func IntFromString(r Reader[string]) Reader[int] {
	return parse("int", r, strconv.Atoi)
}

// Float64FromString parses the value of r as a float64.
func Float64FromString(r Reader[string]) Reader[float64] {
	return parse("float64", r, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// BoolFromString parses the value of r with [strconv.ParseBool].
func BoolFromString(r Reader[string]) Reader[bool] {
	return parse("bool", r, strconv.ParseBool)
}

// DurationFromString parses the value of r with [time.ParseDuration].
func DurationFromString(r Reader[string]) Reader[time.Duration] {
	return parse("duration", r, time.ParseDuration)
}

// ErrNoValue is returned by [Read] when the reader has no value.
var ErrNoValue = errors.New("config: no value")

// Read returns the value of r or [ErrNoValue] if it is unset.
func Read[T any](ctx context.Context, r Reader[T]) (T, error) {
	var zero T
	v, err := readOrEmpty(ctx, r)
	if err != nil {
		return zero, err
	}
	t, set := v.Value()
	if !set {
		return zero, ErrNoValue
	}
	return t, nil
}

// ReadOr returns the value of r or def if it is unset.
func ReadOr[T any](ctx context.Context, def T, r Reader[T]) (T, error) {
	return Read(ctx, Default(def, r))
}

// Must is like [Read] but panics on error.
func Must[T any](ctx context.Context, r Reader[T]) T {
	v, err := Read(ctx, r)
	if err != nil {
		panic(err)
	}
	return v
}

// MustOr is like [ReadOr] but panics on error.
func MustOr[T any](ctx context.Context, def T, r Reader[T]) T {
	v, err := ReadOr(ctx, def, r)
	if err != nil {
		panic(err)
	}
	return v
}

func readOrEmpty[T any](ctx context.Context, r Reader[T]) (Value[T], error) {
	if r == nil {
		return Value[T]{}, nil
	}
	return r.Read(ctx)
}
