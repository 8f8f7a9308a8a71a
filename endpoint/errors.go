// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"errors"
	"net/http"

	"github.com/z5labs/items/rest"
)

// ProblemTypePrefix prefixes every problem type this service returns,
// including the ones rendered for routing and decoding failures.
const ProblemTypePrefix = "urn:z5labs:items:problem:"

// Problem type URIs
const (
	ErrTypeValidation = ProblemTypePrefix + "validation"
	ErrTypeNotFound   = ProblemTypePrefix + "not-found"
)

// Problems returns the error handler shared by the whole API.
func Problems() rest.ErrorHandler {
	return rest.NewProblemDetailsErrorHandler(rest.WithDefaultType(ProblemTypePrefix))
}

// bodyErrorHandler reports bodies which could not be decoded as a
// ValidationError on the body field, the same as any other invalid input.
type bodyErrorHandler struct {
	next rest.ErrorHandler
}

func (h bodyErrorHandler) OnError(ctx context.Context, w http.ResponseWriter, err error) {
	var badRequest rest.BadRequestError
	if !errors.As(err, &badRequest) {
		h.next.OnError(ctx, w, err)
		return
	}

	msg := "must be a JSON document"
	var invalidJSON rest.InvalidJSONError
	if errors.As(badRequest.Cause, &invalidJSON) {
		msg = "must be well formed JSON"
	}
	h.next.OnError(ctx, w, newValidationError(map[string][]string{
		"body": {msg},
	}))
}

// ValidationError lists every invalid request field.
type ValidationError struct {
	rest.ProblemDetail
	Errors map[string][]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return e.Detail
}

func newValidationError(fields map[string][]string) ValidationError {
	return ValidationError{
		ProblemDetail: rest.ProblemDetail{
			Type:   ErrTypeValidation,
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: "One or more fields are invalid",
		},
		Errors: fields,
	}
}

// NotFoundError is returned when the registry holds no items.
type NotFoundError struct {
	rest.ProblemDetail
}

func (e NotFoundError) Error() string {
	return e.Detail
}

func newNotFoundError() NotFoundError {
	return NotFoundError{
		ProblemDetail: rest.ProblemDetail{
			Type:   ErrTypeNotFound,
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: "No items found",
		},
	}
}
