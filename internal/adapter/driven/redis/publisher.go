// Package redis mirrors delivered notifications onto a Redis list so other
// consumers can pick them up.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Messenger = (*Publisher)(nil)

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// pusher is the subset of the go-redis client the Publisher uses.
type pusher interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// entry is the JSON document pushed for each message.
type entry struct {
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Publisher implements driven.Messenger by LPUSHing each message to a list.
type Publisher struct {
	rdb    pusher
	closer func() error
	key    string
	now    func() time.Time
}

// NewPublisher connects to Redis and verifies the connection with PING.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	p := newPublisher(rdb, cfg.Key)
	p.closer = rdb.Close
	return p, nil
}

func newPublisher(rdb pusher, key string) *Publisher {
	return &Publisher{
		rdb:    rdb,
		closer: func() error { return nil },
		key:    key,
		now:    time.Now,
	}
}

// Send pushes text to the head of the configured list.
func (p *Publisher) Send(ctx context.Context, text string) error {
	data, err := json.Marshal(entry{Text: text, SentAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode mirror entry: %w", err)
	}
	if err := p.rdb.LPush(ctx, p.key, data).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", p.key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.closer()
}
