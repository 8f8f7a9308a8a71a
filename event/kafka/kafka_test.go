// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/z5labs/items/config"
	"github.com/z5labs/items/event"
	"github.com/z5labs/items/item"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestBrokersFromEnv(t *testing.T) {
	t.Run("will split and trim broker addresses", func(t *testing.T) {
		t.Setenv("KAFKA_BROKERS", "localhost:9092, localhost:9093,")

		brokers, err := config.Read(context.Background(), BrokersFromEnv())
		require.Nil(t, err)
		require.Equal(t, []string{"localhost:9092", "localhost:9093"}, brokers)
	})

	t.Run("will return ErrNoValue", func(t *testing.T) {
		t.Run("if KAFKA_BROKERS is not set", func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", "")

			_, err := config.Read(context.Background(), BrokersFromEnv())
			require.ErrorIs(t, err, config.ErrNoValue)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if KAFKA_BROKERS only contains separators", func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", " , ,")

			_, err := config.Read(context.Background(), BrokersFromEnv())
			require.Error(t, err)
			require.NotErrorIs(t, err, config.ErrNoValue)
		})
	})
}

func TestTopicFromEnv(t *testing.T) {
	t.Run("will default the topic", func(t *testing.T) {
		t.Setenv("KAFKA_ITEMS_TOPIC", "")

		topic, err := config.Read(context.Background(), TopicFromEnv())
		require.Nil(t, err)
		require.Equal(t, DefaultTopic, topic)
	})

	t.Run("will use KAFKA_ITEMS_TOPIC", func(t *testing.T) {
		t.Setenv("KAFKA_ITEMS_TOPIC", "inventory")

		topic, err := config.Read(context.Background(), TopicFromEnv())
		require.Nil(t, err)
		require.Equal(t, "inventory", topic)
	})
}

func TestTopicSettingsFromEnv(t *testing.T) {
	t.Run("will default to a single partition and replica", func(t *testing.T) {
		t.Setenv("KAFKA_ITEMS_TOPIC_PARTITIONS", "")
		t.Setenv("KAFKA_ITEMS_TOPIC_REPLICATION_FACTOR", "")

		partitions, err := config.Read(context.Background(), PartitionsFromEnv())
		require.Nil(t, err)
		require.Equal(t, int32(1), partitions)

		replicas, err := config.Read(context.Background(), ReplicationFactorFromEnv())
		require.Nil(t, err)
		require.Equal(t, int16(1), replicas)
	})

	t.Run("will return a range error", func(t *testing.T) {
		testCases := []struct {
			Name  string
			Env   string
			Value string
			Read  func(context.Context) error
		}{
			{
				Name:  "if the replication factor overflows int16",
				Env:   "KAFKA_ITEMS_TOPIC_REPLICATION_FACTOR",
				Value: "70000",
				Read: func(ctx context.Context) error {
					_, err := config.Read(ctx, ReplicationFactorFromEnv())
					return err
				},
			},
			{
				Name:  "if the replication factor is zero",
				Env:   "KAFKA_ITEMS_TOPIC_REPLICATION_FACTOR",
				Value: "0",
				Read: func(ctx context.Context) error {
					_, err := config.Read(ctx, ReplicationFactorFromEnv())
					return err
				},
			},
			{
				Name:  "if the partition count overflows int32",
				Env:   "KAFKA_ITEMS_TOPIC_PARTITIONS",
				Value: "4294967296",
				Read: func(ctx context.Context) error {
					_, err := config.Read(ctx, PartitionsFromEnv())
					return err
				},
			},
			{
				Name:  "if the partition count is negative",
				Env:   "KAFKA_ITEMS_TOPIC_PARTITIONS",
				Value: "-3",
				Read: func(ctx context.Context) error {
					_, err := config.Read(ctx, PartitionsFromEnv())
					return err
				},
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				t.Setenv(testCase.Env, testCase.Value)

				err := testCase.Read(context.Background())

				var serr TopicSettingError
				require.ErrorAs(t, err, &serr)
				require.Equal(t, testCase.Env, serr.Setting)
			})
		}
	})

	t.Run("will accept the largest replication factor", func(t *testing.T) {
		t.Setenv("KAFKA_ITEMS_TOPIC_REPLICATION_FACTOR", "32767")

		replicas, err := config.Read(context.Background(), ReplicationFactorFromEnv())
		require.Nil(t, err)
		require.Equal(t, int16(32767), replicas)
	})

	t.Run("will return a parse error", func(t *testing.T) {
		t.Run("if the partition count is not a number", func(t *testing.T) {
			t.Setenv("KAFKA_ITEMS_TOPIC_PARTITIONS", "many")

			_, err := config.Read(context.Background(), PartitionsFromEnv())

			var perr config.ParseError
			require.ErrorAs(t, err, &perr)
		})
	})
}

func TestPublisher(t *testing.T) {
	t.Run("will not block the caller", func(t *testing.T) {
		t.Run("if the brokers are unreachable", func(t *testing.T) {
			p, err := NewPublisher([]string{"127.0.0.1:1"}, DefaultTopic)
			require.Nil(t, err)

			done := make(chan error, 1)
			go func() {
				done <- p.PublishItemCreated(context.Background(), event.ItemCreated{
					Item:      item.Item{Name: "widget"},
					Route:     "/items",
					Position:  0,
					CreatedAt: time.Now(),
				})
			}()

			select {
			case err := <-done:
				require.Nil(t, err)
			case <-time.After(time.Second):
				t.Fatal("publishing blocked on the network")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			p.CloseContext(ctx)
		})
	})

	t.Run("will drop events instead of blocking", func(t *testing.T) {
		t.Run("if the produce buffer is full and the brokers are unreachable", func(t *testing.T) {
			p, err := NewPublisher([]string{"127.0.0.1:1"}, DefaultTopic, kgo.MaxBufferedRecords(1))
			require.Nil(t, err)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()
				p.CloseContext(ctx)
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			const events = 5
			done := make(chan error, events)
			go func() {
				for i := range events {
					done <- p.PublishItemCreated(ctx, event.ItemCreated{
						Item:      item.Item{Name: "widget"},
						Route:     "/item",
						Position:  i,
						CreatedAt: time.Now(),
					})
				}
			}()

			for range events {
				select {
				case err := <-done:
					require.Nil(t, err)
				case <-time.After(time.Second):
					t.Fatal("publishing waited for buffer space")
				}
			}
		})
	})

	t.Run("will report unhealthy", func(t *testing.T) {
		t.Run("if the brokers are unreachable", func(t *testing.T) {
			p, err := NewPublisher([]string{"127.0.0.1:1"}, DefaultTopic)
			require.Nil(t, err)
			defer p.Close()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			healthy, err := p.Healthy(ctx)
			require.Error(t, err)
			require.False(t, healthy)
		})
	})

	t.Run("will close cleanly", func(t *testing.T) {
		t.Run("if nothing was published", func(t *testing.T) {
			p, err := NewPublisher([]string{"127.0.0.1:1"}, DefaultTopic)
			require.Nil(t, err)

			require.Nil(t, p.Close())
		})
	})
}
