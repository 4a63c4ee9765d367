package models

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	StatusDraft          OrderStatus = "draft"
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusPaid           OrderStatus = "paid"
	StatusCancelled      OrderStatus = "cancelled"
)

// kitchenChain is the forward progression a kitchen drives an order through.
var kitchenChain = map[OrderStatus]OrderStatus{
	StatusDraft:          StatusPending,
	StatusPending:        StatusConfirmed,
	StatusConfirmed:      StatusPreparing,
	StatusPreparing:      StatusReady,
	StatusReady:          StatusOutForDelivery,
	StatusOutForDelivery: StatusDelivered,
}

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusDraft, StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusOutForDelivery, StatusDelivered, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further mutation or status change is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
// paid is reachable from any non-terminal state, cancelled from anything that
// is not already terminal, delivered directly from ready for orders that never
// go out for delivery.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !ValidStatus(next) || s.IsTerminal() {
		return false
	}
	switch next {
	case StatusPaid, StatusCancelled:
		return true
	case StatusDelivered:
		return s == StatusReady || s == StatusOutForDelivery
	default:
		return kitchenChain[s] == next
	}
}
