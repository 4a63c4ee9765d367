package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pos-system/internal/database"
	"pos-system/internal/models"
)

// Customer is the directory record with denormalized aggregate stats.
type Customer struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address,omitempty"`
	TotalOrders int        `json:"total_orders"`
	TotalSpent  float64    `json:"total_spent"`
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`
}

// Directory is the narrow customer interface the order core consumes.
type Directory interface {
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	Upsert(ctx context.Context, name, phone, address string) (string, error)
	RecomputeStats(ctx context.Context, customerID string) error
}

// Repository reads and updates customer records in PostgreSQL.
type Repository struct {
	db *database.DB
}

// NewRepository creates a customer repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByPhone(ctx context.Context, phone string) (*Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, database.FindCustomerByPhoneSQL, phone).Scan(
		&c.ID, &c.Name, &c.Phone, &c.Address, &c.TotalOrders, &c.TotalSpent, &c.LastOrderAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "customer", ID: phone}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by phone: %w", err)
	}
	return &c, nil
}

func (r *Repository) Upsert(ctx context.Context, name, phone, address string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, database.UpsertCustomerSQL, uuid.NewString(), name, phone, address).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert customer: %w", err)
	}
	return id, nil
}

// RecomputeStats rebuilds order count, spend and last-order date from the full
// paid-order set, so repeated calls converge to the same values.
func (r *Repository) RecomputeStats(ctx context.Context, customerID string) error {
	if err := r.db.Exec(ctx, database.RecomputeCustomerStatsSQL, customerID); err != nil {
		return fmt.Errorf("failed to recompute customer stats: %w", err)
	}
	return nil
}
