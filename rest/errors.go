// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"fmt"
	"net/http"
)

// ErrorHandler renders an error returned while serving an operation.
type ErrorHandler interface {
	OnError(context.Context, http.ResponseWriter, error)
}

// ErrorHandlerFunc is a func implementation of ErrorHandler.
type ErrorHandlerFunc func(context.Context, http.ResponseWriter, error)

// OnError implements the [ErrorHandler] interface.
func (f ErrorHandlerFunc) OnError(ctx context.Context, w http.ResponseWriter, err error) {
	f(ctx, w, err)
}

// BadRequestError is returned when a request can not be read at all.
type BadRequestError struct {
	Cause error
}

// Error implements the [error] interface.
func (e BadRequestError) Error() string {
	return fmt.Sprintf("bad request: %v", e.Cause)
}

// Unwrap allows [errors.Is] and [errors.As] to inspect the cause.
func (e BadRequestError) Unwrap() error {
	return e.Cause
}

// InvalidContentTypeError is the cause of a [BadRequestError] when the
// request body is not declared as JSON.
type InvalidContentTypeError struct {
	ContentType string
}

// Error implements the [error] interface.
func (e InvalidContentTypeError) Error() string {
	return fmt.Sprintf("invalid content type %q, expected application/json", e.ContentType)
}

// InvalidJSONError is the cause of a [BadRequestError] when the request
// body is empty or not well formed JSON.
type InvalidJSONError struct {
	Cause error
}

// Error implements the [error] interface.
func (e InvalidJSONError) Error() string {
	return fmt.Sprintf("request body is not valid json: %v", e.Cause)
}

// Unwrap allows [errors.Is] and [errors.As] to inspect the cause.
func (e InvalidJSONError) Unwrap() error {
	return e.Cause
}

// RouteNotFoundError is reported for requests which match no route.
type RouteNotFoundError struct {
	Method string
	Path   string
}

// Error implements the [error] interface.
func (e RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route for %s %s", e.Method, e.Path)
}

// MethodNotAllowedError is reported for requests to a known path with an
// unsupported method.
type MethodNotAllowedError struct {
	Method string
	Path   string
}

// Error implements the [error] interface.
func (e MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s is not allowed for %s", e.Method, e.Path)
}
