package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// Publisher publishes order events to RabbitMQ
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishStatusUpdate publishes a status transition event to the order
// events fanout exchange
func (p *Publisher) PublishStatusUpdate(ctx context.Context, event models.StatusUpdateEvent) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		OrderEventsExchange, // exchange
		"",                  // routing key (fanout)
		false,               // mandatory
		false,               // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("event_publish_failed",
			"Failed to publish status update event", "", err, map[string]interface{}{
				"order_id":   event.OrderID,
				"new_status": event.NewStatus,
			})
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event_published",
		"Published status update event", "", map[string]interface{}{
			"order_id":   event.OrderID,
			"old_status": event.OldStatus,
			"new_status": event.NewStatus,
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}
