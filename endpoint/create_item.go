// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/items"
	"github.com/z5labs/items/event"
	"github.com/z5labs/items/item"
	"github.com/z5labs/items/rest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type createItemHandler struct {
	tracer  trace.Tracer
	log     *slog.Logger
	store   ItemStore
	events  event.Publisher
	created metric.Int64Counter
	route   string
	now     func() time.Time
}

func newCreateItemHandler(route string, store ItemStore, events event.Publisher) *createItemHandler {
	log := items.Logger(instrumentationName)

	created, err := otel.Meter(instrumentationName).Int64Counter(
		"items.created",
		metric.WithDescription("Total number of items appended to the registry"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		log.Warn("failed to create items created metric", slog.Any("error", err))
	}

	if events == nil {
		events = event.Discard
	}

	return &createItemHandler{
		tracer:  otel.Tracer(instrumentationName),
		log:     log,
		store:   store,
		events:  events,
		created: created,
		route:   route,
		now:     time.Now,
	}
}

func createOperation(route string, store ItemStore, events event.Publisher) rest.ApiOption {
	return rest.Operation(
		http.MethodPost,
		rest.BasePath(route),
		rest.HandleJson(newCreateItemHandler(route, store, events)),
		rest.ProblemResponse(http.StatusUnprocessableEntity, "The body is not a JSON object or the item failed validation"),
		rest.OnError(bodyErrorHandler{next: Problems()}),
	)
}

// CreateItems registers POST /items which appends the body to the registry
// and echoes it back.
func CreateItems(store ItemStore, events event.Publisher) rest.ApiOption {
	return createOperation("/items", store, events)
}

// CreateSingleItem registers POST /item. It behaves exactly like [CreateItems].
func CreateSingleItem(store ItemStore, events event.Publisher) rest.ApiOption {
	return createOperation("/item", store, events)
}

func (h *createItemHandler) Handle(ctx context.Context, req *CreateItemRequest) (*item.Item, error) {
	spanCtx, span := h.tracer.Start(ctx, "createItemHandler.Handle", trace.WithAttributes(
		attribute.String("http.route", h.route),
	))
	defer span.End()

	it := req.item()
	n := h.store.Append(it)

	if h.created != nil {
		h.created.Add(spanCtx, 1, metric.WithAttributes(attribute.String("route", h.route)))
	}

	err := h.events.PublishItemCreated(spanCtx, event.ItemCreated{
		Item:      it,
		Route:     h.route,
		Position:  n - 1,
		CreatedAt: h.now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		h.log.WarnContext(spanCtx, "failed to publish item created event", slog.Any("error", err))
	}

	h.log.InfoContext(spanCtx, "created item", slog.Int("position", n-1), slog.String("route", h.route))
	return &it, nil
}
