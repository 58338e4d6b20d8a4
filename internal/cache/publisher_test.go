package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/trogers1052/market-analytics/internal/models"
)

func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}
	return endpoint
}

func sampleResult(symbol string) *models.AnalysisResult {
	return &models.AnalysisResult{
		Symbol:     symbol,
		ComputedAt: time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC),
		Indicators: []models.IndicatorSeries{
			{Name: models.SeriesRSI14, Values: []float64{0, 25}},
		},
		Risk:           models.RiskMetrics{Volatility: 0.2, MaxDrawdown: 0.01},
		Recommendation: models.SignalBuy,
		Confidence:     25,
	}
}

func TestKeys(t *testing.T) {
	p := NewWithClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}), Config{KeyPrefix: "analytics"})
	defer p.Close()

	assert.Equal(t, "analytics:latest:AAPL", p.LatestKey("AAPL"))
	assert.Equal(t, "redis", p.Name())
	assert.Equal(t, DefaultTTL, p.ttl)
}

func TestPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	addr := setupRedis(t)

	p, err := New(ctx, Config{Addr: addr, KeyPrefix: "test", Channel: "analysis-results", TTL: time.Minute})
	require.NoError(t, err)
	defer p.Close()

	t.Run("Publish stores snapshot with TTL", func(t *testing.T) {
		require.NoError(t, p.Publish(ctx, sampleResult("AAPL")))

		got, err := p.Latest(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", got.Symbol)
		assert.Equal(t, models.SignalBuy, got.Recommendation)
		assert.Equal(t, []models.LatestValue{{Name: models.SeriesRSI14, Value: 25}}, got.Latest)

		ttl, err := p.client.TTL(ctx, p.LatestKey("AAPL")).Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)
	})

	t.Run("Latest reports a miss", func(t *testing.T) {
		_, err := p.Latest(ctx, "NONE")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("Publish announces on the channel", func(t *testing.T) {
		sub := p.client.Subscribe(ctx, "analysis-results")
		defer sub.Close()
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		require.NoError(t, p.Publish(ctx, sampleResult("MSFT")))

		select {
		case msg := <-sub.Channel():
			var event models.AnalysisEvent
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
			assert.Equal(t, "MSFT", event.Symbol)
		case <-time.After(5 * time.Second):
			t.Fatal("no message received")
		}
	})

	t.Run("New fails on unreachable server", func(t *testing.T) {
		_, err := New(ctx, Config{Addr: "127.0.0.1:1"})
		assert.Error(t, err)
	})
}
