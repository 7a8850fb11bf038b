package messaging

import (
	"context"
	"fmt"

	"restaurant-pos/internal/logger"
)

// MessageHandler processes a single message body. A non-nil error nacks
// and requeues the message.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer consumes messages from a RabbitMQ queue
type Consumer struct {
	conn        *Connection
	logger      *logger.Logger
	queueName   string
	consumerTag string
	prefetch    int
}

// NewConsumer creates a new message consumer
func NewConsumer(conn *Connection, log *logger.Logger, queueName, consumerTag string, prefetch int) *Consumer {
	return &Consumer{
		conn:        conn,
		logger:      log,
		queueName:   queueName,
		consumerTag: consumerTag,
		prefetch:    prefetch,
	}
}

// StartConsuming consumes messages until the context is cancelled
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	err := c.conn.Channel().Qos(
		c.prefetch, // prefetch count
		0,          // prefetch size
		false,      // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.conn.Channel().Consume(
		c.queueName,   // queue
		c.consumerTag, // consumer
		false,         // auto-ack (we ack manually)
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consumer_started",
		fmt.Sprintf("Started consuming from queue %s", c.queueName),
		"", map[string]interface{}{
			"queue":    c.queueName,
			"consumer": c.consumerTag,
			"prefetch": c.prefetch,
		})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Error("message_processing_failed",
					"Failed to process message, requeueing", "", err, nil)
				if nackErr := msg.Nack(false, true); nackErr != nil {
					c.logger.Error("message_nack_failed", "Failed to nack message", "", nackErr, nil)
				}
				continue
			}

			if err := msg.Ack(false); err != nil {
				c.logger.Error("message_ack_failed", "Failed to ack message", "", err, nil)
			}
		}
	}
}
