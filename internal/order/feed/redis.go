package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Redis fans changes out across instances through PUBLISH/SUBSCRIBE.
type Redis struct {
	Client  *redis.Client
	Channel string
	Logger  *logger.Logger
}

func NewRedis(client *redis.Client, channel string, log *logger.Logger) *Redis {
	return &Redis{Client: client, Channel: channel, Logger: log}
}

func (r *Redis) Publish(ctx context.Context, change models.OrderChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode order change: %w", err)
	}
	if err := r.Client.Publish(ctx, r.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.Channel, err)
	}
	return nil
}

// Listen subscribes before returning, so changes published afterwards are not missed.
// If the subscription drops it is re-established with exponential back-off.
func (r *Redis) Listen(ctx context.Context) (<-chan models.OrderChange, error) {
	sub, err := r.subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan models.OrderChange, listenerBuffer)
	go func() {
		defer close(out)
		backoff := minBackoff
		for {
			if sub != nil {
				r.pump(ctx, sub, out)
				sub.Close()
				sub = nil
				backoff = minBackoff
			}
			if ctx.Err() != nil {
				return
			}

			r.Logger.Warn("FEED", fmt.Sprintf("Subscription to %s lost, retrying in %s", r.Channel, backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			if sub, err = r.subscribe(ctx); err != nil {
				r.Logger.Error("FEED", fmt.Sprintf("Resubscribe to %s failed: %v", r.Channel, err))
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) subscribe(ctx context.Context) (*redis.PubSub, error) {
	sub := r.Client.Subscribe(ctx, r.Channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", r.Channel, err)
	}
	r.Logger.Info("FEED", fmt.Sprintf("Subscribed to %s", r.Channel))
	return sub, nil
}

// pump forwards messages until the subscription channel closes or ctx ends.
func (r *Redis) pump(ctx context.Context, sub *redis.PubSub, out chan<- models.OrderChange) {
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var change models.OrderChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				r.Logger.Warn("FEED", fmt.Sprintf("Dropping malformed change on %s: %v", r.Channel, err))
				continue
			}
			if !deliver(ctx, out, change) {
				return
			}
		}
	}
}
