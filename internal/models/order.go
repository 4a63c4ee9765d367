package models

import (
	"fmt"
	"time"
)

// OrderType represents the type of an order
type OrderType string

const (
	DineIn     OrderType = "dine_in"
	Takeout    OrderType = "takeout"
	Delivery   OrderType = "delivery"
	PhoneOrder OrderType = "phone_order"
)

// ValidOrderType reports whether t is one of the known order types.
func ValidOrderType(t OrderType) bool {
	switch t {
	case DineIn, Takeout, Delivery, PhoneOrder:
		return true
	}
	return false
}

// PaymentMethod represents how an order was settled
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentMobile
}

// RemovalReason is the closed set of reasons a line item can be removed for
type RemovalReason string

const (
	RemovalWrongItem           RemovalReason = "wrong_item"
	RemovalCustomerChangedMind RemovalReason = "customer_changed_mind"
	RemovalOther               RemovalReason = "other"
)

// ValidRemovalReason reports whether r is a known removal reason.
func ValidRemovalReason(r RemovalReason) bool {
	return r == RemovalWrongItem || r == RemovalCustomerChangedMind || r == RemovalOther
}

// ModifierSnapshot is the id/name/price of a modifier captured at order time.
// Catalog edits never retroactively change historical orders.
type ModifierSnapshot struct {
	ModifierID string  `json:"modifier_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
}

// OrderLineItem is a value object owned by its order. It has no identity of
// its own; removal addresses it by position in the order's item list.
type OrderLineItem struct {
	MenuItemID          string             `json:"menu_item_id"`
	Name                string             `json:"name"`
	UnitPrice           float64            `json:"unit_price"`
	Quantity            int                `json:"quantity"`
	Modifiers           []ModifierSnapshot `json:"modifiers,omitempty"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
	LineTotal           float64            `json:"line_total"`
}

// ComputeLineTotal returns (unit price + sum of modifier prices) x quantity.
func (li OrderLineItem) ComputeLineTotal() float64 {
	unit := li.UnitPrice
	for _, m := range li.Modifiers {
		unit += m.Price
	}
	return Round2(unit * float64(li.Quantity))
}

// RemovedItem is an append-only audit record for a line item taken off an order.
type RemovedItem struct {
	Item      OrderLineItem `json:"item"`
	Reason    RemovalReason `json:"reason"`
	Note      string        `json:"note,omitempty"`
	RemovedBy string        `json:"removed_by"`
	RemovedAt time.Time     `json:"removed_at"`
}

// CancellationRecord captures who cancelled an order and why.
type CancellationRecord struct {
	Reason      string    `json:"reason"`
	Note        string    `json:"note,omitempty"`
	CancelledBy string    `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// CustomerBinding denormalizes the customer onto the order at attach time.
type CustomerBinding struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
}

// Order represents a customer order
type Order struct {
	ID              string      `json:"id" db:"id"`
	Number          string      `json:"order_number" db:"number"`
	Type            OrderType   `json:"order_type" db:"type"`
	Status          OrderStatus `json:"status" db:"status"`
	PartySize       int         `json:"party_size,omitempty" db:"party_size"`
	DeliveryAddress string      `json:"delivery_address,omitempty" db:"delivery_address"`

	Items        []OrderLineItem `json:"items"`
	RemovedItems []RemovedItem   `json:"removed_items,omitempty"`

	Subtotal       float64 `json:"subtotal" db:"subtotal"`
	Tax            float64 `json:"tax" db:"tax"`
	ServiceCharges float64 `json:"service_charges" db:"service_charges"`
	Gratuity       float64 `json:"gratuity" db:"gratuity"`
	Discounts      float64 `json:"discounts" db:"discounts"`
	Tip            float64 `json:"tip" db:"tip"`
	Total          float64 `json:"total" db:"total"`

	// Discount policies the caller opted into; re-evaluated on every recompute.
	SelectedDiscountIDs []string `json:"selected_discount_ids,omitempty"`
	// Gratuity rule explicitly accepted by the caller, if any. Suggestions are
	// never auto-applied.
	SelectedGratuityID string `json:"selected_gratuity_id,omitempty"`

	TableID     string `json:"table_id,omitempty" db:"table_id"`
	TableNumber int    `json:"table_number,omitempty" db:"table_number"`

	Customer *CustomerBinding `json:"customer,omitempty"`

	PaymentMethod PaymentMethod `json:"payment_method,omitempty" db:"payment_method"`
	PaymentStatus string        `json:"payment_status,omitempty" db:"payment_status"`
	CashReceived  float64       `json:"cash_received,omitempty" db:"cash_received"`
	ChangeAmount  float64       `json:"change_amount,omitempty" db:"change_amount"`

	Cancellation *CancellationRecord `json:"cancellation,omitempty"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ItemsSubtotal sums the line totals of the live items.
func (o *Order) ItemsSubtotal() float64 {
	total := 0.0
	for _, li := range o.Items {
		total += li.LineTotal
	}
	return Round2(total)
}

// HasTable reports whether the order is bound to a table.
func (o *Order) HasTable() bool { return o.TableID != "" }

// GenerateOrderNumber formats a sequential order number as ORD_YYYYMMDD_NNN.
func GenerateOrderNumber(date time.Time, sequence int) string {
	return fmt.Sprintf("ORD_%s_%03d", date.Format("20060102"), sequence)
}
