// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/z5labs/items"
	"github.com/z5labs/items/app"
	"github.com/z5labs/items/config"
	"github.com/z5labs/items/event"
	"github.com/z5labs/items/event/kafka"
	"github.com/z5labs/items/health"
	httpserver "github.com/z5labs/items/http"
	"github.com/z5labs/items/item"
	"github.com/z5labs/items/otel"
	"github.com/z5labs/items/rest"
	"github.com/z5labs/items/service"
)

func main() {
	var ready health.Binary

	srv := httpserver.NewServer(
		httpserver.TCPListener{Addr: httpserver.AddrFromEnv()},
		httpserver.FromEnv(),
		httpserver.Readiness(&ready),
	)

	appBuilder := app.WithHooks(func(ctx context.Context, h *app.HookRegistry) (httpserver.App, error) {
		cfg, err := config.Read(ctx, items.FileConfig(items.ConfigPathFromEnv()))
		if err != nil {
			return httpserver.App{}, err
		}

		events, readiness, err := publisher(ctx, h, &ready)
		if err != nil {
			return httpserver.App{}, err
		}

		api := service.BuildApi(cfg, service.Options{
			Registry:  item.NewRegistry(),
			Events:    events,
			Readiness: readiness,
		})

		return rest.Build(srv, api).Build(ctx)
	})

	err := app.Run(context.Background(), otel.Build(otel.SDKFromEnv(), appBuilder))
	if err != nil {
		app.LogError(slog.NewJSONHandler(os.Stdout, nil), err)
		os.Exit(1)
	}
}

// publisher connects to Kafka when KAFKA_BROKERS is set. Otherwise
// events are discarded.
func publisher(ctx context.Context, h *app.HookRegistry, ready *health.Binary) (event.Publisher, health.Monitor, error) {
	brokers, err := config.Read(ctx, kafka.BrokersFromEnv())
	if errors.Is(err, config.ErrNoValue) {
		return event.Discard, ready, nil
	}
	if err != nil {
		return nil, nil, err
	}

	topic, err := config.Read(ctx, kafka.TopicFromEnv())
	if err != nil {
		return nil, nil, err
	}
	partitions, err := config.Read(ctx, kafka.PartitionsFromEnv())
	if err != nil {
		return nil, nil, err
	}
	replicas, err := config.Read(ctx, kafka.ReplicationFactorFromEnv())
	if err != nil {
		return nil, nil, err
	}

	p, err := kafka.NewPublisher(brokers, topic)
	if err != nil {
		return nil, nil, err
	}
	h.OnPostRun(app.CloseHook(p))

	err = p.EnsureTopic(ctx, partitions, replicas)
	if err != nil {
		log := items.Logger("github.com/z5labs/items/cmd/items")
		log.WarnContext(ctx, "failed to ensure kafka topic exists", slog.String("topic", topic), slog.Any("error", err))
	}

	return p, health.And(ready, p), nil
}
