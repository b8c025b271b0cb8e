package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-events/internal/logger"
	"ms-events/internal/models"
)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	Reader MessageReader
	Logger *logger.Logger
}

// NewConsumer creates a group consumer over topics.
func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{Reader: reader, Logger: log}
}

// Handler processes one decoded message.
type Handler func(ctx context.Context, topic string, msg models.EventMessage) error

// Start reads until ctx is cancelled. Undecodable messages and handler
// failures are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler Handler) error {
	c.Logger.Info("KAFKA", "🔄 Kafka consumer started...")

	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.Logger.Info("KAFKA", "Kafka consumer stopped")
				return nil
			}
			c.Logger.Error("KAFKA", fmt.Sprintf("❌ Error reading message: %v", err))
			return fmt.Errorf("read message: %w", err)
		}

		event, err := DecodeEventMessage(msg.Value)
		if err != nil {
			c.Logger.Warn("KAFKA", fmt.Sprintf("⚠️ Failed to unmarshal message from %s: %v", msg.Topic, err))
			continue
		}

		c.Logger.LogKafka("RECEIVE", msg.Topic, fmt.Sprintf("%s event=%s", event.Type, event.EventID))
		if err := handler(ctx, msg.Topic, event); err != nil {
			c.Logger.Error("KAFKA", fmt.Sprintf("Handler failed for %s: %v", msg.Topic, err))
		}
	}
}

// DecodeEventMessage parses a message value produced by Producer.Publish.
func DecodeEventMessage(value []byte) (models.EventMessage, error) {
	var msg models.EventMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return msg, err
	}
	if msg.Type == "" || msg.EventID == "" {
		return msg, fmt.Errorf("message missing type or eventId")
	}
	return msg, nil
}

func (c *Consumer) Close() error {
	return c.Reader.Close()
}
