package table

import (
	"context"

	"pos-system/internal/models"
)

// OrderStore is the order persistence surface the occupancy manager needs.
// MergeOrders writes the merged destination, deletes the source order and
// frees the source table in one atomic unit.
type OrderStore interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	CommitOrderAndTables(ctx context.Context, o *models.Order, tables ...*models.Table) error
	MergeOrders(ctx context.Context, dst *models.Order, srcOrderID string, srcTable *models.Table) error
}

// TableStore is the table persistence surface.
type TableStore interface {
	GetTable(ctx context.Context, id string) (*models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	UpdateTable(ctx context.Context, t *models.Table) error
}

// RuleStore loads active charge rules so a merge can re-evaluate charges
// against the combined subtotal.
type RuleStore interface {
	ListActiveRules(ctx context.Context) ([]models.ChargeRule, error)
}
