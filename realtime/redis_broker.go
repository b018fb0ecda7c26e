package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisBroker carries events between API processes over redis pub/sub.
// Each process publishes through the broker and runs it against its local Hub.
type RedisBroker struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBroker(rdb *redis.Client, prefix string) *RedisBroker {
	return &RedisBroker{rdb: rdb, prefix: strings.TrimSuffix(prefix, ":")}
}

// Channel returns the redis channel an event is published on: <prefix>:<kind>:<orderID>
func (b *RedisBroker) Channel(event Event) string {
	return fmt.Sprintf("%s:%s:%s", b.prefix, event.Kind, event.OrderID)
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.Channel(event), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run forwards every event on the broker's channels to hub until ctx is cancelled.
// ready, if non-nil, is closed once the pattern subscription is confirmed.
func (b *RedisBroker) Run(ctx context.Context, hub *Hub, ready chan<- struct{}) error {
	pubsub := b.rdb.PSubscribe(ctx, b.prefix+":*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s:*: %w", b.prefix, err)
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("realtime: dropping malformed event on %s: %v", msg.Channel, err)
				continue
			}
			hub.Dispatch(event)
		}
	}
}
