package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cafe-pos/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Producer writes lifecycle events. The topic is chosen per message.
type Producer struct {
	Writer *kafka.Writer
	Logger *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Logger: log}
}

// PublishJSON encodes v and writes it keyed by key, so events for one entity stay ordered.
func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	msg, err := newMessage(topic, key, v)
	if err != nil {
		return err
	}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		p.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish to %s: %v", topic, err))
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.Logger.LogKafka("publish", topic, key)
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

func newMessage(topic, key string, v interface{}) (kafka.Message, error) {
	value, err := json.Marshal(v)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s event: %w", topic, err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}, nil
}

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishJSON(context.Context, string, string, interface{}) error { return nil }
