// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"net/http"

	"github.com/swaggest/openapi-go/openapi3"
)

// Producer returns a value without consuming a request body.
type Producer[T any] interface {
	Produce(context.Context) (*T, error)
}

// ProducerFunc is a func implementation of Producer.
type ProducerFunc[T any] func(context.Context) (*T, error)

// Produce implements the [Producer] interface.
func (f ProducerFunc[T]) Produce(ctx context.Context) (*T, error) {
	return f(ctx)
}

type producerHandler[T any] struct {
	p Producer[T]
}

func (h *producerHandler[T]) Handle(ctx context.Context, _ *EmptyRequest) (*T, error) {
	return h.p.Produce(ctx)
}

// EmptyRequest is a [TypedRequest] for operations without a body.
// Any body sent is ignored.
type EmptyRequest struct{}

// ReadRequest implements the [RequestReader] interface.
func (*EmptyRequest) ReadRequest(ctx context.Context, r *http.Request) error {
	return nil
}

// Spec implements the [TypedRequest] interface.
func (*EmptyRequest) Spec() (openapi3.RequestBodyOrRef, error) {
	return openapi3.RequestBodyOrRef{}, nil
}
