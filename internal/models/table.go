package models

import "time"

// TableStatus represents the floor status of a physical table
type TableStatus string

const (
	TableAvailable     TableStatus = "available"
	TableOccupied      TableStatus = "occupied"
	TableNeedsCleaning TableStatus = "needs_cleaning"
	TableReserved      TableStatus = "reserved"
	TableProblem       TableStatus = "problem"
)

// ValidTableStatus reports whether s is a known table status.
func ValidTableStatus(s TableStatus) bool {
	switch s {
	case TableAvailable, TableOccupied, TableNeedsCleaning, TableReserved, TableProblem:
		return true
	}
	return false
}

// Table represents a physical table on the floor plan. Invariant: status is
// occupied if and only if CurrentOrderID is set and refers to a live dine-in
// order.
type Table struct {
	ID             string      `json:"id" db:"id"`
	Number         int         `json:"number" db:"number"`
	Name           string      `json:"name" db:"name"`
	Capacity       int         `json:"capacity" db:"capacity"`
	Status         TableStatus `json:"status" db:"status"`
	CurrentOrderID string      `json:"current_order_id,omitempty" db:"current_order_id"`
	Version        int         `json:"version" db:"version"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// Occupy binds the table to an order.
func (t *Table) Occupy(orderID string) {
	t.Status = TableOccupied
	t.CurrentOrderID = orderID
}

// Free releases the table back to available with no current order.
func (t *Table) Free() {
	t.Status = TableAvailable
	t.CurrentOrderID = ""
}
