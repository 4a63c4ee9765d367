package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pos-system/internal/database"
	"pos-system/internal/models"
)

// MenuItem is the catalog view the order core needs: current name and price.
type MenuItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Modifier is the catalog view of an item modifier.
type Modifier struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	GroupID string  `json:"group_id"`
}

// Reader is the narrow read interface the order service consumes. The catalog
// itself is managed elsewhere.
type Reader interface {
	GetMenuItem(ctx context.Context, id string) (*MenuItem, error)
	GetModifier(ctx context.Context, id string) (*Modifier, error)
}

// Repository reads catalog records from PostgreSQL.
type Repository struct {
	db *database.DB
}

// NewRepository creates a catalog repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	var item MenuItem
	err := r.db.QueryRow(ctx, database.GetMenuItemSQL, id).Scan(&item.ID, &item.Name, &item.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "menu item", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu item: %w", err)
	}
	return &item, nil
}

func (r *Repository) GetModifier(ctx context.Context, id string) (*Modifier, error) {
	var mod Modifier
	err := r.db.QueryRow(ctx, database.GetModifierSQL, id).Scan(&mod.ID, &mod.Name, &mod.Price, &mod.GroupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "modifier", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch modifier: %w", err)
	}
	return &mod, nil
}
