package realtime

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configure the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// ConnectRedis opens a client and checks it with PING
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	log.Println("[DANAM-REALTIME] Redis connection successfully opened")
	return client, nil
}

// RedisBus shares events between instances over a Redis channel.
// Used where LISTEN is unavailable, e.g. behind a transaction pooler.
type RedisBus struct {
	client  *redis.Client
	channel string
	hub     *MemoryBus
}

// NewRedisBus returns a bus on channel
func NewRedisBus(client *redis.Client, channel string, hub *MemoryBus) *RedisBus {
	return &RedisBus{client: client, channel: channel, hub: hub}
}

// Publish sends ev to every instance, this one included
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe registers with the local hub
func (b *RedisBus) Subscribe(ctx context.Context) <-chan Event {
	return b.hub.Subscribe(ctx)
}

// Run relays channel messages into the local hub until ctx is done
func (b *RedisBus) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	log.Printf("[DANAM-REALTIME] Subscribed to redis channel %s", b.channel)

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Println("[DANAM-REALTIME] Redis relay stopped")
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ev, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Printf("[DANAM-REALTIME] Skipping message: %v", err)
				continue
			}
			_ = b.hub.Publish(ctx, ev)
		}
	}
}
