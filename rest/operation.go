// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// OperationOptions are used while registering an [Operation].
type OperationOptions struct {
	parameters []openapi3.ParameterOrRef
	responses  map[string]openapi3.ResponseOrRef
	transforms []func(*http.Request) (*http.Request, error)
	errHandler ErrorHandler
}

// OperationOption configures an [Operation].
type OperationOption func(*OperationOptions)

// OnError overrides the [ErrorHandler] of a single operation.
func OnError(eh ErrorHandler) OperationOption {
	return func(oo *OperationOptions) {
		oo.errHandler = eh
	}
}

// ProblemResponse documents that the operation may respond with status and
// an RFC 7807 body.
func ProblemResponse(status int, description string) OperationOption {
	return func(oo *OperationOptions) {
		var reflector jsonschema.Reflector

		js, err := reflector.Reflect(ProblemDetail{}, jsonschema.InlineRefs)
		if err != nil {
			panic(err)
		}

		var schema openapi3.SchemaOrRef
		schema.FromJSONSchema(js.ToSchemaOrBool())

		oo.responses[strconv.Itoa(status)] = openapi3.ResponseOrRef{
			Response: &openapi3.Response{
				Description: description,
				Content: map[string]openapi3.MediaType{
					"application/problem+json": {Schema: &schema},
				},
			},
		}
	}
}

// Handler is the RPC style core of an operation.
type Handler[Req, Resp any] interface {
	Handle(context.Context, *Req) (*Resp, error)
}

// HandlerFunc is a func implementation of Handler.
type HandlerFunc[Req, Resp any] func(context.Context, *Req) (*Resp, error)

// Handle implements the [Handler] interface.
func (f HandlerFunc[Req, Resp]) Handle(ctx context.Context, req *Req) (*Resp, error) {
	return f(ctx, req)
}

// RequestReader is implemented by request types which decode themselves
// from an [http.Request].
type RequestReader[T any] interface {
	*T

	ReadRequest(context.Context, *http.Request) error
}

// TypedRequest is a [RequestReader] which describes its OpenAPI request body.
// A nil RequestBody means the operation takes no body.
type TypedRequest[T any] interface {
	RequestReader[T]

	Spec() (openapi3.RequestBodyOrRef, error)
}

// ResponseWriter is implemented by response types which encode themselves
// onto an [http.ResponseWriter].
type ResponseWriter[T any] interface {
	*T

	WriteResponse(context.Context, http.ResponseWriter) error
}

// TypedResponse is a [ResponseWriter] which describes its OpenAPI response.
type TypedResponse[T any] interface {
	ResponseWriter[T]

	Spec() (int, openapi3.ResponseOrRef, error)
}

type operation[I, O any, Req TypedRequest[I], Resp TypedResponse[O]] struct {
	tracer     trace.Tracer
	errHandler ErrorHandler
	transforms []func(*http.Request) (*http.Request, error)
	handler    Handler[I, O]
}

// Operation registers h at method and path.
//
// The operation is added to the OpenAPI document and traced. Panics in h are
// recovered and reported to the operation's [ErrorHandler].
func Operation[I, O any, Req TypedRequest[I], Resp TypedResponse[O]](method string, path Path, h Handler[I, O], opts ...OperationOption) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		oo := &OperationOptions{
			responses:  make(map[string]openapi3.ResponseOrRef),
			errHandler: ao.errHandler,
		}
		for _, opt := range opts {
			opt(oo)
		}

		var req Req
		reqSpec, err := req.Spec()
		if err != nil {
			panic(err)
		}

		var resp Resp
		status, respSpec, err := resp.Spec()
		if err != nil {
			panic(err)
		}
		oo.responses[strconv.Itoa(status)] = respSpec

		op := openapi3.Operation{
			Parameters: oo.parameters,
			Responses: openapi3.Responses{
				MapOfResponseOrRefValues: oo.responses,
			},
		}
		if reqSpec.RequestBody != nil {
			op.RequestBody = &reqSpec
		}

		endpoint := path.String()
		err = ao.def.AddOperation(method, endpoint, op)
		if err != nil {
			panic(err)
		}

		ao.mux.Method(method, endpoint, otelhttp.WithRouteTag(endpoint, &operation[I, O, Req, Resp]{
			tracer:     otel.Tracer("github.com/z5labs/items/rest"),
			errHandler: oo.errHandler,
			transforms: oo.transforms,
			handler:    h,
		}))
	})
}

func (o *operation[I, O, Req, Resp]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var err error
	defer func() {
		if err == nil {
			return
		}
		o.errHandler.OnError(ctx, w, err)
	}()
	defer try.Recover(&err)

	for _, transform := range o.transforms {
		r, err = transform(r)
		if err != nil {
			return
		}
	}
	ctx = r.Context()

	req, err := o.readRequest(ctx, r)
	if err != nil {
		return
	}

	resp, err := o.handle(ctx, &req)
	if err != nil {
		return
	}

	err = o.writeResponse(ctx, w, resp)
}

func (o *operation[I, O, Req, Resp]) readRequest(ctx context.Context, r *http.Request) (I, error) {
	spanCtx, span := o.tracer.Start(ctx, "operation.readRequest")
	defer span.End()

	var req I
	err := Req(&req).ReadRequest(spanCtx, r)
	if err != nil {
		span.RecordError(err)
	}
	return req, err
}

func (o *operation[I, O, Req, Resp]) handle(ctx context.Context, req *I) (*O, error) {
	spanCtx, span := o.tracer.Start(ctx, "operation.handle")
	defer span.End()

	resp, err := o.handler.Handle(spanCtx, req)
	if err != nil {
		span.RecordError(err)
	}
	return resp, err
}

func (o *operation[I, O, Req, Resp]) writeResponse(ctx context.Context, w http.ResponseWriter, resp *O) error {
	spanCtx, span := o.tracer.Start(ctx, "operation.writeResponse")
	defer span.End()

	return Resp(resp).WriteResponse(spanCtx, w)
}
