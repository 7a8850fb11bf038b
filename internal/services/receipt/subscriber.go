package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/models"
)

// Subscriber consumes status update events and sends email receipts for
// served orders that opted in
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
	sender   Sender
}

// Sender delivers a formatted receipt to the customer's address
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes receipts to the log instead of a mail gateway
type LogSender struct {
	Logger *logger.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Logger.Info("receipt_sent", "Receipt delivered", "", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}

// NewSubscriber creates a receipt notification subscriber
func NewSubscriber(conn *messaging.Connection, log *logger.Logger, sender Sender) *Subscriber {
	if sender == nil {
		sender = &LogSender{Logger: log}
	}
	return &Subscriber{
		consumer: messaging.NewConsumer(conn, log, messaging.ReceiptQueue, "receipt-notifier", 10),
		logger:   log,
		sender:   sender,
	}
}

// Start consumes events until the context is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	return s.consumer.StartConsuming(ctx, s.handleEvent)
}

func (s *Subscriber) handleEvent(ctx context.Context, body []byte) error {
	var event models.StatusUpdateEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// A malformed event will never parse; drop it instead of
		// requeueing forever.
		s.logger.Error("event_decode_failed", "Dropping malformed event", "", err, map[string]interface{}{
			"body": string(body),
		})
		return nil
	}

	if event.NewStatus != string(models.StatusServed) {
		return nil
	}
	if !event.EmailReceipt || event.CustomerEmail == nil || strings.TrimSpace(*event.CustomerEmail) == "" {
		s.logger.Debug("receipt_skipped", "Order served without receipt opt-in", "", map[string]interface{}{
			"order_id": event.OrderID,
		})
		return nil
	}

	subject := fmt.Sprintf("Receipt for order #%d", event.OrderID)
	text := formatReceipt(event)
	if err := s.sender.Send(ctx, *event.CustomerEmail, subject, text); err != nil {
		return fmt.Errorf("failed to send receipt for order %d: %w", event.OrderID, err)
	}

	s.logger.Info("receipt_processed", "Receipt sent for served order", "", map[string]interface{}{
		"order_id": event.OrderID,
		"email":    *event.CustomerEmail,
	})
	return nil
}

func formatReceipt(event models.StatusUpdateEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", event.CustomerName)
	fmt.Fprintf(&b, "Thank you for dining with us. Your order #%d has been served.\n", event.OrderID)
	if event.TableNumber != nil {
		fmt.Fprintf(&b, "Table: %s\n", *event.TableNumber)
	}
	fmt.Fprintf(&b, "Total: %.2f\n", event.TotalPrice)
	fmt.Fprintf(&b, "Served at: %s\n", event.Timestamp.Format("2006-01-02 15:04:05"))
	return b.String()
}
