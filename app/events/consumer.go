// Package events consumes push deliveries published to Kafka by the
// messaging gateway and hands them to the push dispatcher.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lysyi3m/news-relay/app/push"
)

type Handler interface {
	Handle(ctx context.Context, event push.Event) error
}

var _ Handler = (*push.Dispatcher)(nil)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  messageReader
	handler Handler
	backoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  1 * time.Second,
	})

	slog.Info("Kafka consumer initialized", "brokers", brokers, "topic", topic, "group", groupID)

	return &Consumer{reader: reader, handler: handler, backoff: time.Second}
}

// Run blocks until ctx is cancelled. Undecodable messages are committed and
// skipped; handler failures are logged and committed too, since a push
// delivery is not worth replaying.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Kafka consumer shutting down")
				return nil
			}
			if errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			slog.Error("Error fetching message from Kafka", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		c.process(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			slog.Error("Error committing offset", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, m kafka.Message) {
	var event push.Event
	if err := json.Unmarshal(m.Value, &event); err != nil {
		slog.Warn("Skipping undecodable push event", "offset", m.Offset, "error", err)
		return
	}

	if err := c.handler.Handle(ctx, event); err != nil {
		slog.Error("Push event handling failed", "offset", m.Offset, "message_id", event.MessageID, "error", err)
		return
	}

	slog.Debug("Push event handled", "offset", m.Offset, "message_id", event.MessageID)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
