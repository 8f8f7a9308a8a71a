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

// ParameterOptions are used while declaring a parameter.
type ParameterOptions struct {
	def *openapi3.Parameter
}

// ParameterOption configures a parameter declared with [QueryParam].
type ParameterOption func(*ParameterOptions)

// Description documents the parameter.
func Description(s string) ParameterOption {
	return func(po *ParameterOptions) {
		po.def.Description = &s
	}
}

// Schema documents the parameter as holding values shaped like T.
func Schema[T any]() ParameterOption {
	return func(po *ParameterOptions) {
		var t T
		schema, err := jsonSchemaOf(t)
		if err != nil {
			panic(err)
		}
		po.def.Schema = schema
	}
}

type paramCtxKey string

// QueryParam declares a URL query parameter. Its raw values are made
// available to the handler through [QueryParamValue].
func QueryParam(name string, opts ...ParameterOption) OperationOption {
	return func(oo *OperationOptions) {
		po := &ParameterOptions{
			def: &openapi3.Parameter{
				Name: name,
				In:   openapi3.ParameterInQuery,
			},
		}
		for _, opt := range opts {
			opt(po)
		}

		oo.parameters = append(oo.parameters, openapi3.ParameterOrRef{
			Parameter: po.def,
		})

		key := paramCtxKey(name)
		oo.transforms = append(oo.transforms, func(r *http.Request) (*http.Request, error) {
			ctx := context.WithValue(r.Context(), key, r.URL.Query()[name])
			return r.WithContext(ctx), nil
		})
	}
}

// QueryParamValue returns every value given for the query parameter name,
// in the order they appeared. It is nil when the parameter was absent.
func QueryParamValue(ctx context.Context, name string) []string {
	vs, _ := ctx.Value(paramCtxKey(name)).([]string)
	return vs
}
