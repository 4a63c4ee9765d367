package order

import (
	"context"

	"pos-system/internal/models"
)

// OrderStore is the persistence surface the order service needs. Writes are
// compare-and-set on the record version; CommitOrderAndTables is atomic across
// the order and any tables it touches.
type OrderStore interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, limit int) ([]models.Order, error)
	Insert(ctx context.Context, o *models.Order) error
	NextSequence(ctx context.Context, pattern string) (int, error)
	CommitOrderAndTables(ctx context.Context, o *models.Order, tables ...*models.Table) error
	IncrementDiscountUsage(ctx context.Context, ids []string) error
}

// TableStore is the slice of table persistence the order commands need.
type TableStore interface {
	GetTable(ctx context.Context, id string) (*models.Table, error)
}

// RuleStore loads the active charge rules for evaluation.
type RuleStore interface {
	ListActiveRules(ctx context.Context) ([]models.ChargeRule, error)
}

// Notifier publishes lifecycle events.
type Notifier interface {
	PublishKitchenTicket(ctx context.Context, ticket *models.KitchenTicket) error
	PublishStatusUpdate(ctx context.Context, update *models.StatusUpdate) error
}
