package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/market-analytics/internal/models"
)

// Producer publishes completed analyses to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// Name identifies the producer in logs and metrics
func (p *Producer) Name() string { return "kafka" }

// Publish writes an ANALYSIS_COMPLETED event keyed by symbol
func (p *Producer) Publish(ctx context.Context, result *models.AnalysisResult) error {
	msg, err := analysisMessage(result, p.now().UTC())
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func analysisMessage(result *models.AnalysisResult, now time.Time) (kafka.Message, error) {
	data, err := json.Marshal(models.NewAnalysisEvent(result, now))
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(result.Symbol),
		Value: data,
	}, nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
