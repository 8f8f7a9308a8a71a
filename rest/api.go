// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/z5labs/items"
	"github.com/z5labs/items/health"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
)

// ApiOptions are used while constructing an [Api].
type ApiOptions struct {
	mux        *chi.Mux
	def        *openapi3.Spec
	errHandler ErrorHandler
	readiness  health.Monitor
	liveness   health.Monitor
}

// ApiOption configures an [Api].
type ApiOption interface {
	ApplyApiOption(*ApiOptions)
}

type apiOptionFunc func(*ApiOptions)

func (f apiOptionFunc) ApplyApiOption(ao *ApiOptions) {
	f(ao)
}

// Readiness backs GET /health/readiness with m.
func Readiness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.readiness = m
	})
}

// Liveness backs GET /health/liveness with m.
func Liveness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.liveness = m
	})
}

// Errors sets the [ErrorHandler] used for unmatched routes and methods and
// as the default for every [Operation] registered after it.
func Errors(eh ErrorHandler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.errHandler = eh
	})
}

// Api is an [http.Handler] serving a set of operations and their OpenAPI document.
type Api struct {
	router *chi.Mux
	def    *openapi3.Spec
}

// NewApi returns an Api whose OpenAPI document has the given title and version.
func NewApi(title, version string, opts ...ApiOption) *Api {
	log := items.Logger("github.com/z5labs/items/rest")

	alwaysHealthy := health.MonitorFunc(func(context.Context) (bool, error) {
		return true, nil
	})

	ao := &ApiOptions{
		mux: chi.NewMux(),
		def: &openapi3.Spec{
			Openapi: "3.0.3",
			Info: openapi3.Info{
				Title:   title,
				Version: version,
			},
		},
		errHandler: NewProblemDetailsErrorHandler(),
		readiness:  alwaysHealthy,
		liveness:   alwaysHealthy,
	}
	for _, opt := range opts {
		opt.ApplyApiOption(ao)
	}

	ao.mux.Method(http.MethodGet, "/health/readiness", probe(log, ao.readiness))
	ao.mux.Method(http.MethodGet, "/health/liveness", probe(log, ao.liveness))

	ao.mux.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		err := json.NewEncoder(w).Encode(ao.def)
		if err == nil {
			return
		}
		log.ErrorContext(r.Context(), "failed to encode openapi document", slog.Any("error", err))
	})

	errHandler := ao.errHandler
	ao.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errHandler.OnError(r.Context(), w, RouteNotFoundError{Method: r.Method, Path: r.URL.Path})
	})
	ao.mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errHandler.OnError(r.Context(), w, MethodNotAllowedError{Method: r.Method, Path: r.URL.Path})
	})

	return &Api{
		router: ao.mux,
		def:    ao.def,
	}
}

// Spec returns the OpenAPI document describing the Api.
func (api *Api) Spec() *openapi3.Spec {
	return api.def
}

// ServeHTTP implements the [http.Handler] interface.
func (api *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.router.ServeHTTP(w, r)
}

func probe(log *slog.Logger, m health.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy, err := m.Healthy(r.Context())
		if err != nil {
			log.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		}
		if !healthy || err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
