package realtime

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBus receives the notifications the donation trigger emits.
// One connection per process listens and feeds a local hub; Publish does nothing
// because the trigger already announces every write, including other clients'.
type PostgresBus struct {
	pool    *pgxpool.Pool
	channel string
	hub     *MemoryBus

	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewPostgresBus returns a bus listening on channel through pool
func NewPostgresBus(pool *pgxpool.Pool, channel string, hub *MemoryBus) *PostgresBus {
	return &PostgresBus{
		pool:       pool,
		channel:    channel,
		hub:        hub,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Publish is a no-op
func (b *PostgresBus) Publish(ctx context.Context, ev Event) error {
	return nil
}

// Subscribe registers with the local hub
func (b *PostgresBus) Subscribe(ctx context.Context) <-chan Event {
	return b.hub.Subscribe(ctx)
}

// Run listens until ctx is done, reconnecting with exponential backoff
func (b *PostgresBus) Run(ctx context.Context) {
	delay := b.minBackoff
	for {
		connected, err := b.listen(ctx)
		if ctx.Err() != nil {
			log.Println("[DANAM-REALTIME] Postgres listener stopped")
			return
		}
		if connected {
			delay = b.minBackoff
		}
		log.Printf("[DANAM-REALTIME] Postgres listener failed: %v; reconnecting in %v", err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		delay *= 2
		if delay > b.maxBackoff {
			delay = b.maxBackoff
		}
	}
}

// listen holds one connection until it fails; connected reports whether LISTEN succeeded
func (b *PostgresBus) listen(ctx context.Context) (connected bool, err error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	channel := pgx.Identifier{b.channel}.Sanitize()
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, uerr := conn.Exec(cleanupCtx, "UNLISTEN "+channel); uerr != nil {
			// a connection with a live LISTEN must not go back to the pool
			_ = conn.Conn().Close(cleanupCtx)
		}
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return false, fmt.Errorf("failed to listen on %s: %w", b.channel, err)
	}
	log.Printf("[DANAM-REALTIME] Listening on %s", b.channel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		ev, err := Decode([]byte(n.Payload))
		if err != nil {
			log.Printf("[DANAM-REALTIME] Skipping notification: %v", err)
			continue
		}
		_ = b.hub.Publish(ctx, ev)
	}
}
