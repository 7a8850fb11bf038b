package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Payment status values
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Order represents a customer order
type Order struct {
	ID              int         `json:"id"`
	CustomerName    string      `json:"customer_name"`
	TotalPrice      float64     `json:"total_price"`
	Status          OrderStatus `json:"status"`
	OrderType       string      `json:"order_type,omitempty"`
	PaymentMethod   *string     `json:"payment_method,omitempty"`
	TableNumber     *string     `json:"table_number,omitempty"`
	NeedsAssistance bool        `json:"needs_assistance"`
	Note            *string     `json:"note,omitempty"`
	CustomerEmail   *string     `json:"customer_email,omitempty"`
	EmailReceipt    bool        `json:"email_receipt"`
	PaymentStatus   string      `json:"payment_status"`
	QRCodeData      *string     `json:"qr_code_data,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderLine `json:"items,omitempty"`
}

// OrderLine is one item entry within an order. Name and Price are not
// stored on the line; reads join them from the current catalog.
type OrderLine struct {
	ID              int         `json:"id,omitempty"`
	OrderID         int         `json:"order_id,omitempty"`
	ProductID       int         `json:"product_id"`
	Quantity        int         `json:"quantity"`
	SelectedOptions interface{} `json:"selected_options,omitempty"`
	Name            string      `json:"name,omitempty"`
	Price           float64     `json:"price,omitempty"`
}

// LineRequest is one requested item in a create or item-replacement call
type LineRequest struct {
	ProductID       int         `json:"product_id"`
	Quantity        int         `json:"quantity"`
	SelectedOptions interface{} `json:"selected_options,omitempty"`
}

// CreateOrderRequest represents the request to create a new order
type CreateOrderRequest struct {
	CustomerName    string        `json:"customer_name"`
	Items           []LineRequest `json:"items"`
	TotalPrice      *float64      `json:"total_price,omitempty"`
	Status          string        `json:"status,omitempty"`
	OrderType       string        `json:"order_type,omitempty"`
	PaymentMethod   string        `json:"payment_method,omitempty"`
	TableNumber     string        `json:"table_number,omitempty"`
	NeedsAssistance bool          `json:"needs_assistance,omitempty"`
	Note            string        `json:"note,omitempty"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	EmailReceipt    bool          `json:"email_receipt,omitempty"`
	PaymentStatus   string        `json:"payment_status,omitempty"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID     int     `json:"order_id"`
	TableNumber *string `json:"table_number,omitempty"`
	TotalPrice  float64 `json:"total_price"`
	Status      string  `json:"status"`
}

// UpdateOrderDetailsRequest carries a partial order edit. Nil fields are
// left untouched. A non-nil empty TableNumber releases the current table;
// a non-nil label moves the order to that table.
type UpdateOrderDetailsRequest struct {
	Items           []LineRequest `json:"items,omitempty"`
	Note            *string       `json:"note,omitempty"`
	TableNumber     *string       `json:"table_number,omitempty"`
	CustomerName    *string       `json:"customer_name,omitempty"`
	NeedsAssistance *bool         `json:"needs_assistance,omitempty"`
}

// QRPayload is the payment payload stamped onto a served order
type QRPayload struct {
	OrderID int     `json:"order_id"`
	Amount  float64 `json:"amount"`
}

// Validate checks the create request shape. Pricing and table checks
// happen later, inside the transaction.
func (req *CreateOrderRequest) Validate() error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return NewError(KindValidation, "customer_name is required")
	}

	if req.Status != "" {
		status, err := ParseStatus(req.Status)
		if err != nil {
			return err
		}
		if status != StatusPending {
			return Errorf(KindValidation, "orders must be created in %s status", StatusPending)
		}
	}

	if req.TotalPrice != nil && *req.TotalPrice < 0 {
		return NewError(KindValidation, "total_price must not be negative")
	}

	switch req.PaymentStatus {
	case "", PaymentUnpaid, PaymentPaid:
	default:
		return Errorf(KindValidation, "payment_status must be %q or %q", PaymentUnpaid, PaymentPaid)
	}

	return ValidateLines(req.Items)
}

// ValidateLines checks a requested item list: non-empty, positive ids and
// quantities, and any option payload independently serializable
func ValidateLines(items []LineRequest) error {
	if len(items) == 0 {
		return NewError(KindValidation, "items cannot be empty")
	}

	for i, item := range items {
		if item.ProductID <= 0 {
			return Errorf(KindValidation, "items[%d].product_id must be a positive integer", i)
		}
		if item.Quantity <= 0 {
			return Errorf(KindValidation, "items[%d].quantity must be a positive integer", i)
		}
		if item.SelectedOptions != nil {
			if _, err := json.Marshal(item.SelectedOptions); err != nil {
				return Errorf(KindValidation, "items[%d].selected_options is not serializable", i)
			}
		}
	}

	return nil
}
