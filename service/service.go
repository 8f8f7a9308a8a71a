// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package service assembles the item registry REST API.
package service

import (
	"context"

	"github.com/z5labs/items"
	"github.com/z5labs/items/app"
	"github.com/z5labs/items/endpoint"
	"github.com/z5labs/items/event"
	"github.com/z5labs/items/health"
	"github.com/z5labs/items/item"
	"github.com/z5labs/items/rest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Options are the dependencies shared by every operation.
type Options struct {
	Registry  *item.Registry
	Events    event.Publisher
	Readiness health.Monitor
}

// BuildApi returns a Builder for the API described by cfg.
func BuildApi(cfg items.Config, opts Options) app.Builder[*rest.Api] {
	return app.Build(func(ctx context.Context) (*rest.Api, error) {
		return NewApi(cfg, opts)
	})
}

// NewApi registers the four item operations and the registry size gauge.
func NewApi(cfg items.Config, opts Options) (*rest.Api, error) {
	registry := opts.Registry
	if registry == nil {
		registry = item.NewRegistry()
	}

	events := opts.Events
	if events == nil {
		events = event.Discard
	}

	err := observeRegistrySize(registry)
	if err != nil {
		return nil, err
	}

	apiOpts := []rest.ApiOption{
		rest.Errors(endpoint.Problems()),
		endpoint.ListItems(registry),
		endpoint.CreateItems(registry, events),
		endpoint.GetItem(registry),
		endpoint.CreateSingleItem(registry, events),
	}
	if opts.Readiness != nil {
		apiOpts = append(apiOpts, rest.Readiness(opts.Readiness))
	}

	api := rest.NewApi(cfg.OpenApi.Title, cfg.OpenApi.Version, apiOpts...)
	return api, nil
}

func observeRegistrySize(registry *item.Registry) error {
	_, err := otel.Meter("github.com/z5labs/items/service").Int64ObservableGauge(
		"items.registry.size",
		metric.WithDescription("Number of items currently held in the registry"),
		metric.WithUnit("{item}"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			o.Observe(int64(registry.Len()))
			return nil
		}),
	)
	return err
}
