package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cafe-pos/internal/logger"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	topic  string
	logger *logger.Logger
}

// NewConsumer creates a reader for topic in consumer group groupID.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     250 * time.Millisecond,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader, topic: topic, logger: log}
}

// Start reads until ctx is cancelled. Handler errors are logged and the message is skipped.
func (c *Consumer) Start(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	c.logger.LogKafka("consume", c.topic, "consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading from %s: %v", c.topic, err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := handler(ctx, msg); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping message at offset %d on %s: %v", msg.Offset, c.topic, err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
