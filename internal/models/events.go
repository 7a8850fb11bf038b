package models

import "time"

// StatusUpdateEvent is published after a status transition commits.
// Consumers include the receipt notifier and any kitchen displays.
type StatusUpdateEvent struct {
	OrderID       int       `json:"order_id"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	TableNumber   *string   `json:"table_number,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail *string   `json:"customer_email,omitempty"`
	EmailReceipt  bool      `json:"email_receipt"`
	TotalPrice    float64   `json:"total_price"`
	Timestamp     time.Time `json:"timestamp"`
}
