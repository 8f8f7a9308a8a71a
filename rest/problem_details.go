// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/z5labs/items"

	"github.com/google/uuid"
)

// ProblemDetail is an RFC 7807 problem.
//
// Embed it in an error type to control the response and add extension
// members, which are serialized alongside the standard ones.
//
//	type OutOfStockError struct {
//	    rest.ProblemDetail
//	    Sku string `json:"sku"`
//	}
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Error implements the [error] interface.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

func (p ProblemDetail) problemStatus() int {
	return p.Status
}

type problem interface {
	error
	problemStatus() int
}

// ProblemDetailsOption configures a [ProblemDetailsErrorHandler].
type ProblemDetailsOption func(*ProblemDetailsErrorHandler)

// WithDefaultType sets the base URI used to build the type of problems
// raised by this package, e.g. "https://example.com/problems/".
// It defaults to "about:blank", in which case every problem raised by this
// package shares that type and only the title tells them apart. The base
// URI is joined with a slug such as "invalid-json" or "method-not-allowed".
func WithDefaultType(uri string) ProblemDetailsOption {
	return func(h *ProblemDetailsErrorHandler) {
		h.defaultType = uri
	}
}

// ProblemDetailsErrorHandler writes errors as application/problem+json.
//
// Errors embedding [ProblemDetail] are written with all of their members.
// Errors from this package are mapped to their 4xx status with a generic
// problem. Anything else becomes a 500 whose detail never includes the
// error text. Every response is given a unique urn:uuid instance which is
// also logged with the error.
type ProblemDetailsErrorHandler struct {
	defaultType string
	log         *slog.Logger
}

// NewProblemDetailsErrorHandler returns a configured [ProblemDetailsErrorHandler].
func NewProblemDetailsErrorHandler(opts ...ProblemDetailsOption) *ProblemDetailsErrorHandler {
	h := &ProblemDetailsErrorHandler{
		defaultType: "about:blank",
		log:         items.Logger("github.com/z5labs/items/rest"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

const internalErrorDetail = "An internal server error occurred."

// OnError implements the [ErrorHandler] interface.
func (h *ProblemDetailsErrorHandler) OnError(ctx context.Context, w http.ResponseWriter, err error) {
	instance := "urn:uuid:" + uuid.NewString()

	status, body, encErr := h.render(err, instance)
	if encErr != nil {
		h.log.ErrorContext(ctx, "failed to encode problem details", slog.Any("error", encErr))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ProblemDetail{
			Type:     h.typeURI("internal-error"),
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   internalErrorDetail,
			Instance: instance,
		})
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.log.Log(
		ctx,
		level,
		"sending error response",
		slog.Int("status", status),
		slog.String("instance", instance),
		slog.Any("error", err),
	)

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	if err != nil {
		h.log.ErrorContext(ctx, "failed to write problem details", slog.Any("error", err))
	}
}

func (h *ProblemDetailsErrorHandler) render(err error, instance string) (int, []byte, error) {
	var p problem
	if errors.As(err, &p) {
		b, err := withInstance(p, instance)
		return p.problemStatus(), b, err
	}

	pd := h.frameworkProblem(err)
	pd.Instance = instance
	b, err := json.Marshal(pd)
	return pd.Status, b, err
}

// withInstance encodes p and fills in its instance member unless p set one.
func withInstance(p problem, instance string) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var members map[string]json.RawMessage
	err = json.Unmarshal(b, &members)
	if err != nil {
		return nil, err
	}
	if _, ok := members["instance"]; ok {
		return b, nil
	}

	members["instance"], err = json.Marshal(instance)
	if err != nil {
		return nil, err
	}
	return json.Marshal(members)
}

func (h *ProblemDetailsErrorHandler) frameworkProblem(err error) ProblemDetail {
	var badRequest BadRequestError
	if errors.As(err, &badRequest) {
		pd := ProblemDetail{
			Type:   h.typeURI("bad-request"),
			Title:  http.StatusText(http.StatusBadRequest),
			Status: http.StatusBadRequest,
			Detail: badRequest.Cause.Error(),
		}

		var contentType InvalidContentTypeError
		if errors.As(badRequest.Cause, &contentType) {
			pd.Type = h.typeURI("invalid-content-type")
			pd.Title = "Invalid Content Type"
		}

		var invalidJSON InvalidJSONError
		if errors.As(badRequest.Cause, &invalidJSON) {
			pd.Type = h.typeURI("invalid-json")
			pd.Title = "Invalid JSON"
			pd.Detail = "The request body must be a well formed JSON document."
		}
		return pd
	}

	var notFound RouteNotFoundError
	if errors.As(err, &notFound) {
		return ProblemDetail{
			Type:   h.typeURI("route-not-found"),
			Title:  http.StatusText(http.StatusNotFound),
			Status: http.StatusNotFound,
			Detail: notFound.Error(),
		}
	}

	var notAllowed MethodNotAllowedError
	if errors.As(err, &notAllowed) {
		return ProblemDetail{
			Type:   h.typeURI("method-not-allowed"),
			Title:  http.StatusText(http.StatusMethodNotAllowed),
			Status: http.StatusMethodNotAllowed,
			Detail: notAllowed.Error(),
		}
	}

	return ProblemDetail{
		Type:   h.typeURI("internal-error"),
		Title:  http.StatusText(http.StatusInternalServerError),
		Status: http.StatusInternalServerError,
		Detail: internalErrorDetail,
	}
}

func (h *ProblemDetailsErrorHandler) typeURI(slug string) string {
	if h.defaultType == "about:blank" {
		return h.defaultType
	}
	return h.defaultType + slug
}
