// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/z5labs/items"
	"github.com/z5labs/items/item"
	"github.com/z5labs/items/rest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type listItemsHandler struct {
	tracer trace.Tracer
	log    *slog.Logger
	store  ItemStore
}

// ListItems registers GET /items which returns every item in insertion order.
func ListItems(store ItemStore) rest.ApiOption {
	h := &listItemsHandler{
		tracer: otel.Tracer(instrumentationName),
		log:    items.Logger(instrumentationName),
		store:  store,
	}

	return rest.Operation(
		http.MethodGet,
		rest.BasePath("/items"),
		rest.ProduceJson(h),
	)
}

func (h *listItemsHandler) Produce(ctx context.Context) (*[]item.Item, error) {
	spanCtx, span := h.tracer.Start(ctx, "listItemsHandler.Produce")
	defer span.End()

	list := h.store.List()
	span.SetAttributes(attribute.Int("items.count", len(list)))
	h.log.DebugContext(spanCtx, "listed items", slog.Int("count", len(list)))

	return &list, nil
}
