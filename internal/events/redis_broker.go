package events

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// RedisBroker publishes events on a Redis pub/sub channel so that every
// server instance can deliver them to its own subscribers.
type RedisBroker struct {
	rdb     *redis.Client
	channel string
}

// NewRedisBroker creates a broker on the given channel
func NewRedisBroker(rdb *redis.Client, channel string) *RedisBroker {
	return &RedisBroker{rdb: rdb, channel: channel}
}

// Publish sends the event to all instances
func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := event.Encode()
	if err != nil {
		return oops.Code("EVENT_ENCODE_FAILED").Wrap(err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return oops.Code("EVENT_PUBLISH_FAILED").With("channel", b.channel).Wrap(err)
	}
	return nil
}

// Subscribe opens a subscription to the broker channel and waits for Redis
// to confirm it
func (b *RedisBroker) Subscribe(ctx context.Context) (*redis.PubSub, error) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, oops.Code("EVENT_SUBSCRIBE_FAILED").With("channel", b.channel).Wrap(err)
	}
	return sub, nil
}

// PingContext checks that Redis is reachable
func (b *RedisBroker) PingContext(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
