package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/market-analytics/internal/analysis"
	"github.com/trogers1052/market-analytics/internal/logger"
	"github.com/trogers1052/market-analytics/internal/metrics"
	"github.com/trogers1052/market-analytics/internal/models"
)

// DefaultSource labels bars whose event carries no source
const DefaultSource = "kafka"

// BarHandler stores incoming bars and re-analyzes their symbol
type BarHandler interface {
	IngestBars(ctx context.Context, source string, points []models.PricePoint) error
	AnalyzeSymbol(ctx context.Context, symbol string) (*models.AnalysisResult, error)
}

// messageReader is the part of *kafka.Reader the consumer uses
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Config() kafka.ReaderConfig
	Close() error
}

// Consumer handles consuming price bar events from Kafka.
// Each stored bar triggers a fresh analysis of its symbol.
type Consumer struct {
	reader  messageReader
	handler BarHandler
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewConsumer creates a new Kafka consumer for price bar events
func NewConsumer(brokers []string, topic, groupID string, handler BarHandler, m *metrics.Metrics, log *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		metrics: m,
		log:     logger.OrDefault(log),
	}
}

// Start consumes messages until ctx is cancelled, then closes the reader.
// A message being processed when ctx ends is finished first.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("starting kafka consumer", "topic", c.reader.Config().Topic)
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.log.Warn("failed to close kafka reader", "error", err)
		}
	}()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("kafka consumer shutting down")
				return nil
			}
			c.log.Error("failed to read message", "error", err)
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			c.log.Error("failed to process message",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	c.log.Debug("received message",
		"partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))

	var event models.PriceEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.metrics.Rejected("decode")
		return fmt.Errorf("failed to unmarshal price event: %w", err)
	}

	if event.EventType != models.EventPriceBar {
		c.log.Debug("ignoring event type", "event_type", event.EventType)
		return nil
	}

	source := event.Source
	if source == "" {
		source = DefaultSource
	}

	bar := event.Data
	if err := c.handler.IngestBars(ctx, source, []models.PricePoint{bar}); err != nil {
		if errors.Is(err, analysis.ErrInvalidInput) {
			c.log.Warn("skipping invalid price bar", "symbol", bar.Symbol, "error", err)
			return nil
		}
		return fmt.Errorf("failed to store price bar for %s: %w", bar.Symbol, err)
	}

	if _, err := c.handler.AnalyzeSymbol(ctx, bar.Symbol); err != nil {
		return fmt.Errorf("failed to analyze %s: %w", bar.Symbol, err)
	}
	return nil
}
