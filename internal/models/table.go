package models

import "time"

// Table is a physical seating unit. Occupancy fields are mutated only by
// the table allocator; the roster itself is configuration data.
type Table struct {
	ID             int       `json:"id"`
	Number         string    `json:"number"`
	DisplayName    string    `json:"display_name"`
	Occupied       bool      `json:"occupied"`
	CurrentOrderID *int      `json:"current_order_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableOverview joins a table with its currently assigned order, if any,
// for the floor-plan view
type TableOverview struct {
	Number        string       `json:"number"`
	DisplayName   string       `json:"display_name"`
	Occupied      bool         `json:"occupied"`
	OrderID       *int         `json:"order_id,omitempty"`
	OrderStatus   *OrderStatus `json:"order_status,omitempty"`
	CustomerName  *string      `json:"customer_name,omitempty"`
	TotalPrice    *float64     `json:"total_price,omitempty"`
	PaymentStatus *string      `json:"payment_status,omitempty"`
}
