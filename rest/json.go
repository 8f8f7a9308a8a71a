// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
	"github.com/z5labs/sdk-go/try"
)

func jsonSchemaOf(v any) (*openapi3.SchemaOrRef, error) {
	var reflector jsonschema.Reflector

	js, err := reflector.Reflect(v, jsonschema.InlineRefs)
	if err != nil {
		return nil, err
	}

	var schema openapi3.SchemaOrRef
	schema.FromJSONSchema(js.ToSchemaOrBool())
	return &schema, nil
}

// JsonRequest decodes a JSON body into a T.
type JsonRequest[T any] struct {
	inner T
}

// Spec implements the [TypedRequest] interface.
func (*JsonRequest[T]) Spec() (openapi3.RequestBodyOrRef, error) {
	var t T
	schema, err := jsonSchemaOf(t)
	if err != nil {
		return openapi3.RequestBodyOrRef{}, err
	}

	return openapi3.RequestBodyOrRef{
		RequestBody: &openapi3.RequestBody{
			Required: ptr.Ref(true),
			Content: map[string]openapi3.MediaType{
				"application/json": {Schema: schema},
			},
		},
	}, nil
}

// ReadRequest implements the [RequestReader] interface.
//
// A missing or non JSON Content-Type, an empty body and malformed JSON are
// reported as a [BadRequestError]. Any other decoding error, including one
// returned from T's UnmarshalJSON, is returned as is.
func (jr *JsonRequest[T]) ReadRequest(ctx context.Context, r *http.Request) (err error) {
	defer try.Close(&err, r.Body)

	contentType := r.Header.Get("Content-Type")
	if !isJsonContentType(contentType) {
		return BadRequestError{
			Cause: InvalidContentTypeError{
				ContentType: contentType,
			},
		}
	}

	err = json.NewDecoder(r.Body).Decode(&jr.inner)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntaxErr) {
		return BadRequestError{
			Cause: InvalidJSONError{Cause: err},
		}
	}
	return err
}

// isJsonContentType reports whether the body should be decoded as JSON.
// A missing Content-Type is assumed to be JSON, as are structured
// syntax suffixes like application/problem+json.
func isJsonContentType(contentType string) bool {
	if contentType == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mediaType == "application/json" {
		return true
	}
	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

// JsonResponse encodes a T as a 200 OK JSON body.
type JsonResponse[T any] struct {
	inner *T
}

// Spec implements the [TypedResponse] interface.
func (*JsonResponse[T]) Spec() (int, openapi3.ResponseOrRef, error) {
	var t T
	schema, err := jsonSchemaOf(t)
	if err != nil {
		return 0, openapi3.ResponseOrRef{}, err
	}

	return http.StatusOK, openapi3.ResponseOrRef{
		Response: &openapi3.Response{
			Description: http.StatusText(http.StatusOK),
			Content: map[string]openapi3.MediaType{
				"application/json": {Schema: schema},
			},
		},
	}, nil
}

// WriteResponse implements the [ResponseWriter] interface.
func (jr *JsonResponse[T]) WriteResponse(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	return json.NewEncoder(w).Encode(jr.inner)
}

// ReturnJsonHandler wraps the response of a [Handler] in a [JsonResponse].
type ReturnJsonHandler[Req, Resp any] struct {
	inner Handler[Req, Resp]
}

// ReturnJson returns a [ReturnJsonHandler] for h.
func ReturnJson[Req, Resp any](h Handler[Req, Resp]) *ReturnJsonHandler[Req, Resp] {
	return &ReturnJsonHandler[Req, Resp]{inner: h}
}

// Handle implements the [Handler] interface.
func (h *ReturnJsonHandler[Req, Resp]) Handle(ctx context.Context, req *Req) (*JsonResponse[Resp], error) {
	resp, err := h.inner.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	return &JsonResponse[Resp]{inner: resp}, nil
}

// ConsumeJsonHandler unwraps a [JsonRequest] for a [Handler].
type ConsumeJsonHandler[Req, Resp any] struct {
	inner Handler[Req, Resp]
}

// ConsumeJson returns a [ConsumeJsonHandler] for h.
func ConsumeJson[Req, Resp any](h Handler[Req, Resp]) *ConsumeJsonHandler[Req, Resp] {
	return &ConsumeJsonHandler[Req, Resp]{inner: h}
}

// Handle implements the [Handler] interface.
func (h *ConsumeJsonHandler[Req, Resp]) Handle(ctx context.Context, req *JsonRequest[Req]) (*Resp, error) {
	return h.inner.Handle(ctx, &req.inner)
}

// HandleJson adapts h to consume and produce JSON.
func HandleJson[Req, Resp any](h Handler[Req, Resp]) *ConsumeJsonHandler[Req, JsonResponse[Resp]] {
	return ConsumeJson(ReturnJson(h))
}

// ProduceJson adapts p to a bodiless operation producing JSON.
func ProduceJson[T any](p Producer[T]) *ReturnJsonHandler[EmptyRequest, T] {
	return ReturnJson[EmptyRequest, T](&producerHandler[T]{p: p})
}
