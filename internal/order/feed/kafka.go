package feed

import (
	"context"
	"encoding/json"
	"fmt"

	cafekafka "cafe-pos/internal/kafka"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

// Kafka carries changes on a topic. Each instance reads with its own consumer group so that
// every board sees every change.
type Kafka struct {
	Producer publisher
	Brokers  []string
	Topic    string
	GroupID  string
	Logger   *logger.Logger
}

func NewKafka(producer publisher, brokers []string, topic, groupPrefix string, log *logger.Logger) *Kafka {
	return &Kafka{
		Producer: producer,
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  fmt.Sprintf("%s-board-%s", groupPrefix, uuid.NewString()[:8]),
		Logger:   log,
	}
}

func (k *Kafka) Publish(ctx context.Context, change models.OrderChange) error {
	return k.Producer.PublishJSON(ctx, k.Topic, change.OrderID, change)
}

func (k *Kafka) Listen(ctx context.Context) (<-chan models.OrderChange, error) {
	consumer := cafekafka.NewConsumer(k.Brokers, k.Topic, k.GroupID, k.Logger)
	out := make(chan models.OrderChange, listenerBuffer)

	go func() {
		defer close(out)
		defer consumer.Close()
		_ = consumer.Start(ctx, func(ctx context.Context, msg kafka.Message) error {
			change, err := decodeChange(msg.Value)
			if err != nil {
				return err
			}
			deliver(ctx, out, change)
			return nil
		})
	}()
	return out, nil
}

func decodeChange(value []byte) (models.OrderChange, error) {
	var change models.OrderChange
	if err := json.Unmarshal(value, &change); err != nil {
		return change, fmt.Errorf("decode order change: %w", err)
	}
	if change.OrderID == "" {
		return change, fmt.Errorf("order change without order id")
	}
	return change, nil
}
