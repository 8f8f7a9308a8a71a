// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"net/http"

	"github.com/z5labs/items/app"
	httpserver "github.com/z5labs/items/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Build serves the [Api] built by b with srv. Every request is traced and
// measured with otelhttp.
func Build(srv httpserver.Server, b app.Builder[*Api]) app.Builder[httpserver.App] {
	handler := app.Bind(b, func(api *Api) app.Builder[http.Handler] {
		return app.BuilderFunc[http.Handler](func(ctx context.Context) (http.Handler, error) {
			h := otelhttp.NewHandler(
				api,
				"rest",
				otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
			)
			return h, nil
		})
	})

	return httpserver.Build(srv, handler)
}
