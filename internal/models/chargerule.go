package models

import "time"

// ChargeKind discriminates the four rule kinds sharing one shape
type ChargeKind string

const (
	KindTax           ChargeKind = "tax"
	KindServiceCharge ChargeKind = "service_charge"
	KindGratuity      ChargeKind = "gratuity"
	KindDiscount      ChargeKind = "discount"
)

// MagnitudeType selects how a rule's rate is interpreted
type MagnitudeType string

const (
	MagnitudePercentage MagnitudeType = "percentage"
	MagnitudeFixed      MagnitudeType = "fixed"
)

// ChargeRule is configuration data owned by management. The evaluator treats
// rules as read-only input; usage counters are bumped by the payment command
// only.
type ChargeRule struct {
	ID     string     `json:"id" db:"id"`
	Kind   ChargeKind `json:"kind" db:"kind"`
	Name   string     `json:"name" db:"name"`
	Active bool       `json:"active" db:"active"`

	MagnitudeType MagnitudeType `json:"magnitude_type" db:"magnitude_type"`
	Rate          float64       `json:"rate" db:"rate"`

	// Empty set means the rule applies to all order types.
	OrderTypes         []OrderType `json:"order_types,omitempty"`
	MinimumOrderAmount float64     `json:"minimum_order_amount" db:"minimum_order_amount"`
	// 0 means no upper bound.
	MaximumOrderAmount float64 `json:"maximum_order_amount" db:"maximum_order_amount"`

	// Service charges only: evaluate bounds and percentage base against the
	// subtotal (true) or subtotal+tax (false).
	AppliesToSubtotal bool `json:"applies_to_subtotal" db:"applies_to_subtotal"`

	// Gratuity rules only.
	PartySizeMinimum int `json:"party_size_minimum,omitempty" db:"party_size_minimum"`

	// Discount policies only.
	RequiresManagerApproval bool       `json:"requires_manager_approval,omitempty" db:"requires_manager_approval"`
	ValidFrom               *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil              *time.Time `json:"valid_until,omitempty" db:"valid_until"`
	UsageCount              int        `json:"usage_count,omitempty" db:"usage_count"`
	// 0 means unlimited.
	UsageLimit int `json:"usage_limit,omitempty" db:"usage_limit"`
}

// AppliesToType reports whether the rule's order-type set admits t.
func (r *ChargeRule) AppliesToType(t OrderType) bool {
	if len(r.OrderTypes) == 0 {
		return true
	}
	for _, ot := range r.OrderTypes {
		if ot == t {
			return true
		}
	}
	return false
}

// WithinBounds reports whether basis satisfies the rule's inclusive
// minimum/maximum amount bounds. The basis is compared at cent precision so
// float noise cannot flip a decision at an exact boundary.
func (r *ChargeRule) WithinBounds(basis float64) bool {
	b := Round2(basis)
	if b < r.MinimumOrderAmount {
		return false
	}
	if r.MaximumOrderAmount > 0 && b > r.MaximumOrderAmount {
		return false
	}
	return true
}
