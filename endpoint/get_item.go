// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/z5labs/items"
	"github.com/z5labs/items/item"
	"github.com/z5labs/items/rest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type getItemHandler struct {
	tracer trace.Tracer
	log    *slog.Logger
	store  ItemStore
}

// GetItem registers GET /item which returns the item at the optional
// index query parameter. Out of range indices return the last item.
func GetItem(store ItemStore) rest.ApiOption {
	h := &getItemHandler{
		tracer: otel.Tracer(instrumentationName),
		log:    items.Logger(instrumentationName),
		store:  store,
	}

	return rest.Operation(
		http.MethodGet,
		rest.BasePath("/item"),
		rest.ProduceJson(h),
		rest.QueryParam(
			"index",
			rest.Description("Position of the item. Negative or out of range values select the last item."),
			rest.Schema[int64](),
		),
		rest.ProblemResponse(http.StatusNotFound, "No items have been created"),
		rest.ProblemResponse(http.StatusUnprocessableEntity, "The index is not an integer"),
	)
}

func (h *getItemHandler) Produce(ctx context.Context) (*item.Item, error) {
	spanCtx, span := h.tracer.Start(ctx, "getItemHandler.Produce")
	defer span.End()

	index, err := parseIndex(rest.QueryParamValue(spanCtx, "index"))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("items.index", index))

	it, err := h.store.Get(index)
	if errors.Is(err, item.ErrEmpty) {
		h.log.DebugContext(spanCtx, "registry is empty", slog.Int64("index", index))
		return nil, newNotFoundError()
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// parseIndex uses the last occurrence when the parameter is repeated.
// Integers too large for int64 select the last item like any other
// out of range index.
func parseIndex(values []string) (int64, error) {
	if len(values) == 0 {
		return item.Last, nil
	}

	s := values[len(values)-1]
	index, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return item.Last, nil
	}
	if err != nil {
		return 0, newValidationError(map[string][]string{
			"index": {"must be an integer"},
		})
	}
	return index, nil
}
