package models

import "time"

// KitchenTicket is published to the kitchen topic exchange when an order is
// sent to the kitchen.
type KitchenTicket struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	OrderType   OrderType       `json:"order_type"`
	TableNumber int             `json:"table_number,omitempty"`
	Items       []OrderLineItem `json:"items"`
	SentAt      time.Time       `json:"sent_at"`
}

// StatusUpdate is published to the notifications fanout on every lifecycle
// transition (sent, paid, cancelled, kitchen progress).
type StatusUpdate struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	OldStatus   OrderStatus `json:"old_status"`
	NewStatus   OrderStatus `json:"new_status"`
	ChangedBy   string      `json:"changed_by"`
	Total       float64     `json:"total"`
	ChangedAt   time.Time   `json:"timestamp"`
}
