// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kafka publishes item events to a Kafka topic using franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/z5labs/items"
	"github.com/z5labs/items/config"
	"github.com/z5labs/items/event"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"github.com/twmb/franz-go/plugin/kslog"
	"go.opentelemetry.io/otel"
)

// DefaultTopic is used when KAFKA_ITEMS_TOPIC is not set.
const DefaultTopic = "items.created"

// BrokersFromEnv reads Kafka broker addresses from the KAFKA_BROKERS environment variable.
// Brokers should be comma-separated (e.g., "localhost:9092,localhost:9093").
func BrokersFromEnv() config.Reader[[]string] {
	return config.Map(
		config.Env("KAFKA_BROKERS"),
		func(ctx context.Context, s string) ([]string, error) {
			var brokers []string
			for _, broker := range strings.Split(s, ",") {
				broker = strings.TrimSpace(broker)
				if broker == "" {
					continue
				}
				brokers = append(brokers, broker)
			}
			if len(brokers) == 0 {
				return nil, errors.New("kafka: KAFKA_BROKERS contains no broker addresses")
			}
			return brokers, nil
		},
	)
}

// TopicFromEnv reads the destination topic from the KAFKA_ITEMS_TOPIC environment variable.
func TopicFromEnv() config.Reader[string] {
	return config.Default(DefaultTopic, config.Env("KAFKA_ITEMS_TOPIC"))
}

// TopicSettingError is returned when a topic setting is outside the range
// Kafka accepts.
type TopicSettingError struct {
	Setting string
	Value   int
	Max     int
}

func (e TopicSettingError) Error() string {
	return fmt.Sprintf("kafka: %s must be between 1 and %d, got %d", e.Setting, e.Max, e.Value)
}

func inRange[T int16 | int32](setting string, upper int) func(context.Context, int) (T, error) {
	return func(_ context.Context, n int) (T, error) {
		if n < 1 || n > upper {
			return 0, TopicSettingError{Setting: setting, Value: n, Max: upper}
		}
		return T(n), nil
	}
}

// PartitionsFromEnv reads the partition count used by [Publisher.EnsureTopic]
// from KAFKA_ITEMS_TOPIC_PARTITIONS, defaulting to 1.
func PartitionsFromEnv() config.Reader[int32] {
	return config.Default(1, config.Map(
		config.IntFromString(config.Env("KAFKA_ITEMS_TOPIC_PARTITIONS")),
		inRange[int32]("KAFKA_ITEMS_TOPIC_PARTITIONS", math.MaxInt32),
	))
}

// ReplicationFactorFromEnv reads the replication factor used by [Publisher.EnsureTopic]
// from KAFKA_ITEMS_TOPIC_REPLICATION_FACTOR, defaulting to 1.
func ReplicationFactorFromEnv() config.Reader[int16] {
	return config.Default(1, config.Map(
		config.IntFromString(config.Env("KAFKA_ITEMS_TOPIC_REPLICATION_FACTOR")),
		inRange[int16]("KAFKA_ITEMS_TOPIC_REPLICATION_FACTOR", math.MaxInt16),
	))
}

// Publisher produces [event.ItemCreated] records to a single topic.
type Publisher struct {
	log    *slog.Logger
	client *kgo.Client
	topic  string
}

// NewPublisher creates a Publisher which writes to topic on the given brokers.
// Extra client options are appended after the defaults.
func NewPublisher(brokers []string, topic string, opts ...kgo.Opt) (*Publisher, error) {
	clientOpts := []kgo.Opt{
		kgo.WithLogger(kslog.New(items.Logger("github.com/twmb/franz-go/pkg/kgo"))),
		kgo.WithHooks(
			kotel.NewTracer(
				kotel.TracerProvider(otel.GetTracerProvider()),
				kotel.TracerPropagator(otel.GetTextMapPropagator()),
			),
			kotel.NewMeter(
				kotel.MeterProvider(otel.GetMeterProvider()),
				kotel.WithMergedConnectsMeter(),
			),
		),
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	}
	clientOpts = append(clientOpts, opts...)

	client, err := kgo.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to create client: %w", err)
	}

	p := &Publisher{
		log:    items.Logger("github.com/z5labs/items/event/kafka").With(TopicAttr(topic)),
		client: client,
		topic:  topic,
	}
	return p, nil
}

// TopicAttr returns a slog attribute for the Kafka topic.
func TopicAttr(topic string) slog.Attr {
	return slog.String("messaging.destination.name", topic)
}

// EnsureTopic creates the topic if it does not already exist.
func (p *Publisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(p.client)

	resp, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("kafka: failed to create topic: %w", err)
	}

	for _, topicResp := range resp {
		if topicResp.Err == nil || errors.Is(topicResp.Err, kerr.TopicAlreadyExists) {
			continue
		}
		return fmt.Errorf("kafka: failed to create topic %s: %w", topicResp.Topic, topicResp.Err)
	}
	return nil
}

// PublishItemCreated implements the [event.Publisher] interface.
//
// The record is buffered and sent in the background. If the buffer is
// full the record is dropped instead of waiting for space. Delivery
// failures and drops are only logged. Cancelling ctx does not abort
// delivery but its trace is kept so the produce span is parented to
// the caller.
func (p *Publisher) PublishItemCreated(ctx context.Context, ev event.ItemCreated) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: failed to encode event: %w", err)
	}

	rec := &kgo.Record{
		Topic: p.topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event-type", Value: []byte("item.created")},
		},
	}

	p.client.TryProduce(context.WithoutCancel(ctx), rec, p.onDelivered)
	return nil
}

func (p *Publisher) onDelivered(r *kgo.Record, err error) {
	ctx := r.Context
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case err == nil:
		p.log.DebugContext(
			ctx,
			"published item created event",
			slog.Int64("messaging.destination.partition.id", int64(r.Partition)),
			slog.Int64("messaging.kafka.offset", r.Offset),
		)
	case errors.Is(err, kgo.ErrMaxBuffered):
		p.log.WarnContext(ctx, "dropped item created event because the produce buffer is full", slog.Any("error", err))
	default:
		p.log.ErrorContext(ctx, "failed to publish item created event", slog.Any("error", err))
	}
}

// Healthy implements the health.Monitor interface by pinging the cluster.
func (p *Publisher) Healthy(ctx context.Context) (bool, error) {
	err := p.client.Ping(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

const closeTimeout = 10 * time.Second

// Close flushes any buffered records and then closes the client. Records
// still buffered after 10 seconds are dropped.
func (p *Publisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	return p.CloseContext(ctx)
}

// CloseContext is like Close but stops waiting for buffered records once ctx is done.
func (p *Publisher) CloseContext(ctx context.Context) error {
	defer p.client.Close()

	err := p.client.Flush(ctx)
	if err != nil {
		return fmt.Errorf("kafka: failed to flush buffered records: %w", err)
	}
	return nil
}
