// Package cache keeps the latest analysis summary per symbol in Redis and
// announces new summaries on a pub/sub channel.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/market-analytics/internal/models"
)

// DefaultTTL bounds how long a snapshot outlives its last refresh
const DefaultTTL = 24 * time.Hour

// ErrMiss is returned by Latest when no snapshot is stored for a symbol
var ErrMiss = errors.New("no cached analysis")

// Config configures the Redis publisher
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Channel   string
	TTL       time.Duration
}

// Publisher writes analysis snapshots to Redis
type Publisher struct {
	client  *redis.Client
	prefix  string
	channel string
	ttl     time.Duration
	now     func() time.Time
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, cfg Config) *Publisher {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Publisher{
		client:  client,
		prefix:  cfg.KeyPrefix,
		channel: cfg.Channel,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Name identifies the publisher in logs and metrics
func (p *Publisher) Name() string { return "redis" }

// LatestKey returns the key holding the latest snapshot of symbol
func (p *Publisher) LatestKey(symbol string) string {
	return p.prefix + ":latest:" + symbol
}

// Publish stores the result summary and announces it, in one round trip
func (p *Publisher) Publish(ctx context.Context, result *models.AnalysisResult) error {
	data, err := json.Marshal(models.NewAnalysisEvent(result, p.now().UTC()))
	if err != nil {
		return fmt.Errorf("failed to marshal analysis snapshot: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.LatestKey(result.Symbol), data, p.ttl)
	if p.channel != "" {
		pipe.Publish(ctx, p.channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish analysis for %s to redis: %w", result.Symbol, err)
	}
	return nil
}

// Latest reads back the snapshot of symbol
func (p *Publisher) Latest(ctx context.Context, symbol string) (*models.AnalysisEvent, error) {
	data, err := p.client.Get(ctx, p.LatestKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", symbol, ErrMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached analysis for %s: %w", symbol, err)
	}

	var event models.AnalysisEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis for %s: %w", symbol, err)
	}
	return &event, nil
}

// Ping checks that Redis is reachable
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (p *Publisher) Close() error {
	return p.client.Close()
}
