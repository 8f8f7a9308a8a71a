// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"log/slog"

	"github.com/z5labs/items/config"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// otelslog maps slog.LevelInfo to log.SeverityInfo and keeps the spacing.
const severityOffset = log.SeverityInfo - log.Severity(slog.LevelInfo)

// SlogExporter reads a log exporter which writes every record to h.
// The record's trace and span IDs are added under an "otel" group.
func SlogExporter(h slog.Handler) config.Reader[sdklog.Exporter] {
	return config.ReaderOf[sdklog.Exporter](slogExporter{handler: h})
}

type slogExporter struct {
	handler slog.Handler
}

func (e slogExporter) Export(ctx context.Context, records []sdklog.Record) error {
	for _, record := range records {
		sr := slog.NewRecord(
			record.Timestamp(),
			slog.Level(record.Severity()-severityOffset),
			record.Body().AsString(),
			0,
		)

		sr.AddAttrs(slog.String("logger", record.InstrumentationScope().Name))
		record.WalkAttributes(func(kv log.KeyValue) bool {
			sr.AddAttrs(slog.Attr{Key: kv.Key, Value: slogValue(kv.Value)})
			return true
		})

		if record.TraceID().IsValid() {
			sr.AddAttrs(slog.Group(
				"otel",
				slog.String("trace_id", record.TraceID().String()),
				slog.String("span_id", record.SpanID().String()),
			))
		}

		if err := e.handler.Handle(ctx, sr); err != nil {
			return err
		}
	}
	return nil
}

func (slogExporter) ForceFlush(context.Context) error { return nil }

func (slogExporter) Shutdown(context.Context) error { return nil }

func slogValue(v log.Value) slog.Value {
	switch v.Kind() {
	case log.KindBool:
		return slog.BoolValue(v.AsBool())
	case log.KindInt64:
		return slog.Int64Value(v.AsInt64())
	case log.KindFloat64:
		return slog.Float64Value(v.AsFloat64())
	case log.KindString:
		return slog.StringValue(v.AsString())
	case log.KindBytes:
		return slog.AnyValue(v.AsBytes())
	case log.KindSlice:
		items := v.AsSlice()
		vals := make([]any, len(items))
		for i, item := range items {
			vals[i] = slogValue(item).Any()
		}
		return slog.AnyValue(vals)
	case log.KindMap:
		kvs := v.AsMap()
		attrs := make([]slog.Attr, len(kvs))
		for i, kv := range kvs {
			attrs[i] = slog.Attr{Key: kv.Key, Value: slogValue(kv.Value)}
		}
		return slog.GroupValue(attrs...)
	default:
		return slog.StringValue(v.String())
	}
}

// severityFilter drops records below min before they reach the next processor.
type severityFilter struct {
	sdklog.Processor
	min log.Severity
}

func minSeverity(level slog.Level, next sdklog.Processor) sdklog.Processor {
	return severityFilter{
		Processor: next,
		min:       log.Severity(level) + severityOffset,
	}
}

func (f severityFilter) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if record.Severity() < f.min {
		return nil
	}
	return f.Processor.OnEmit(ctx, record)
}
