// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCreateItemHandler_Telemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)

	srv := newTestServer(t)

	t.Run("will count created items per route", func(t *testing.T) {
		resp, _ := srv.post(t, "/items", `{"name":"a"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = srv.post(t, "/items", `{"name":"b"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = srv.post(t, "/item", `{"name":"c"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = srv.post(t, "/item", `{"name":1}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var rm metricdata.ResourceMetrics
		err := reader.Collect(context.Background(), &rm)
		require.NoError(t, err)

		counts := make(map[string]int64)
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name != "items.created" {
					continue
				}
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				for _, dp := range sum.DataPoints {
					route, _ := dp.Attributes.Value(attribute.Key("route"))
					counts[route.AsString()] = dp.Value
				}
			}
		}

		require.Equal(t, map[string]int64{"/items": 2, "/item": 1}, counts)
	})

	t.Run("will record a span per create", func(t *testing.T) {
		var names []string
		for _, span := range recorder.Ended() {
			if span.Name() == "createItemHandler.Handle" {
				names = append(names, span.Name())
			}
		}
		require.Len(t, names, 3)
	})
}

func TestCreateItemHandler_Handle(t *testing.T) {
	t.Run("will stamp the event with the creation time", func(t *testing.T) {
		created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		events := &publisherSpy{}

		store := newRecordingStore()
		h := newCreateItemHandler("/items", store, events)
		h.now = func() time.Time { return created }

		it, err := h.Handle(context.Background(), &CreateItemRequest{Name: "widget"})
		require.NoError(t, err)
		require.Equal(t, "widget", it.Name)

		published := events.published()
		require.Len(t, published, 1)
		require.Equal(t, created, published[0].CreatedAt)
	})

	t.Run("will discard events", func(t *testing.T) {
		t.Run("if no publisher is given", func(t *testing.T) {
			store := newRecordingStore()
			h := newCreateItemHandler("/item", store, nil)

			_, err := h.Handle(context.Background(), &CreateItemRequest{Name: "widget"})
			require.NoError(t, err)
			require.Equal(t, 1, store.Len())
		})
	})
}
