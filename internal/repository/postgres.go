package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pos-system/internal/database"
	"pos-system/internal/models"
)

// Repository persists orders, tables and charge rules in PostgreSQL. Orders
// and tables carry a version column; every update is a compare-and-set on it,
// and commands touching both records run in one transaction.
type Repository struct {
	db *database.DB
}

// New creates a repository backed by the given database.
func New(db *database.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o            models.Order
		itemsJSON    []byte
		removedJSON  []byte
		discountJSON []byte
		customerJSON []byte
		cancelJSON   []byte
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.Type, &o.Status, &o.PartySize, &o.DeliveryAddress,
		&itemsJSON, &removedJSON, &o.Subtotal, &o.Tax, &o.ServiceCharges,
		&o.Gratuity, &o.Discounts, &o.Tip, &o.Total, &discountJSON,
		&o.SelectedGratuityID, &o.TableID, &o.TableNumber, &customerJSON,
		&o.PaymentMethod, &o.PaymentStatus, &o.CashReceived, &o.ChangeAmount,
		&cancelJSON, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	if err := json.Unmarshal(removedJSON, &o.RemovedItems); err != nil {
		return nil, fmt.Errorf("failed to decode removed items: %w", err)
	}
	if err := json.Unmarshal(discountJSON, &o.SelectedDiscountIDs); err != nil {
		return nil, fmt.Errorf("failed to decode selected discounts: %w", err)
	}
	if customerJSON != nil {
		if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
			return nil, fmt.Errorf("failed to decode customer binding: %w", err)
		}
	}
	if cancelJSON != nil {
		if err := json.Unmarshal(cancelJSON, &o.Cancellation); err != nil {
			return nil, fmt.Errorf("failed to decode cancellation record: %w", err)
		}
	}
	return &o, nil
}

func orderJSON(o *models.Order) (items, removed, discounts, customer, cancellation []byte, err error) {
	if o.Items == nil {
		o.Items = []models.OrderLineItem{}
	}
	if o.RemovedItems == nil {
		o.RemovedItems = []models.RemovedItem{}
	}
	if o.SelectedDiscountIDs == nil {
		o.SelectedDiscountIDs = []string{}
	}
	if items, err = json.Marshal(o.Items); err != nil {
		return
	}
	if removed, err = json.Marshal(o.RemovedItems); err != nil {
		return
	}
	if discounts, err = json.Marshal(o.SelectedDiscountIDs); err != nil {
		return
	}
	if o.Customer != nil {
		if customer, err = json.Marshal(o.Customer); err != nil {
			return
		}
	}
	if o.Cancellation != nil {
		if cancellation, err = json.Marshal(o.Cancellation); err != nil {
			return
		}
	}
	return
}

// Get fetches an order by id.
func (r *Repository) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, database.GetOrderSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return o, nil
}

// GetByNumber fetches an order by its human-readable number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, database.GetOrderByNumberSQL, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "order", ID: number}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return o, nil
}

// List returns the most recent orders.
func (r *Repository) List(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, database.ListOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// Insert stores a new order.
func (r *Repository) Insert(ctx context.Context, o *models.Order) error {
	items, removed, discounts, customer, _, err := orderJSON(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	err = r.db.QueryRow(ctx, database.InsertOrderSQL,
		o.ID, o.Number, o.Type, o.Status, o.PartySize, o.DeliveryAddress,
		items, removed, o.Subtotal, o.Tax, o.ServiceCharges, o.Gratuity,
		o.Discounts, o.Tip, o.Total, discounts, o.SelectedGratuityID,
		o.TableID, o.TableNumber, customer,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	o.Version = 1
	return nil
}

// NextSequence returns the next daily sequence for order numbers matching the
// given LIKE pattern (e.g. "ORD_20260830_%").
func (r *Repository) NextSequence(ctx context.Context, pattern string) (int, error) {
	var seq int
	if err := r.db.QueryRow(ctx, database.NextOrderSequenceSQL, pattern).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to get next order sequence: %w", err)
	}
	return seq, nil
}

func execOrderUpdate(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	items, removed, discounts, customer, cancellation, err := orderJSON(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	tag, err := tx.Exec(ctx, database.UpdateOrderSQL,
		o.ID, o.Status, o.PartySize, o.DeliveryAddress, items, removed,
		o.Subtotal, o.Tax, o.ServiceCharges, o.Gratuity, o.Discounts, o.Tip,
		o.Total, discounts, o.SelectedGratuityID, o.TableID, o.TableNumber,
		customer, string(o.PaymentMethod), o.PaymentStatus, o.CashReceived,
		o.ChangeAmount, cancellation, o.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s version %d: %w", o.ID, o.Version, models.ErrConcurrencyConflict)
	}
	o.Version++
	return nil
}

func execTableUpdate(ctx context.Context, tx pgx.Tx, t *models.Table) error {
	tag, err := tx.Exec(ctx, database.UpdateTableSQL, t.ID, t.Status, t.CurrentOrderID, t.Version)
	if err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("table %s version %d: %w", t.ID, t.Version, models.ErrConcurrencyConflict)
	}
	t.Version++
	return nil
}

// CommitOrderAndTables writes the order and any affected tables as one
// transaction. A version mismatch on any record aborts the whole command with
// ErrConcurrencyConflict; nothing is half-applied.
func (r *Repository) CommitOrderAndTables(ctx context.Context, o *models.Order, tables ...*models.Table) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := execOrderUpdate(ctx, tx, o); err != nil {
		return err
	}
	for _, t := range tables {
		if err := execTableUpdate(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MergeOrders persists a table merge: the combined destination order is
// written, the source order deleted and the source table freed, all in one
// transaction so a retry can never double-count items or tips.
func (r *Repository) MergeOrders(ctx context.Context, dst *models.Order, srcOrderID string, srcTable *models.Table) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := execOrderUpdate(ctx, tx, dst); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, database.DeleteOrderSQL, srcOrderID)
	if err != nil {
		return fmt.Errorf("failed to delete source order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("source order %s vanished during merge: %w", srcOrderID, models.ErrConcurrencyConflict)
	}

	if err := execTableUpdate(ctx, tx, srcTable); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit merge: %w", err)
	}
	return nil
}

// GetTable fetches a table by id.
func (r *Repository) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var t models.Table
	err := r.db.QueryRow(ctx, database.GetTableSQL, id).Scan(
		&t.ID, &t.Number, &t.Name, &t.Capacity, &t.Status, &t.CurrentOrderID,
		&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "table", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table: %w", err)
	}
	return &t, nil
}

// ListTables returns all tables ordered by number.
func (r *Repository) ListTables(ctx context.Context) ([]models.Table, error) {
	rows, err := r.db.Query(ctx, database.ListTablesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Name, &t.Capacity, &t.Status,
			&t.CurrentOrderID, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// UpdateTable applies a compare-and-set write to a single table.
func (r *Repository) UpdateTable(ctx context.Context, t *models.Table) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := execTableUpdate(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit table update: %w", err)
	}
	return nil
}

// ListActiveRules loads every active charge rule.
func (r *Repository) ListActiveRules(ctx context.Context) ([]models.ChargeRule, error) {
	rows, err := r.db.Query(ctx, database.ListActiveRulesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list charge rules: %w", err)
	}
	defer rows.Close()

	var rules []models.ChargeRule
	for rows.Next() {
		var (
			rule       models.ChargeRule
			orderTypes []string
		)
		if err := rows.Scan(&rule.ID, &rule.Kind, &rule.Name, &rule.Active,
			&rule.MagnitudeType, &rule.Rate, &orderTypes, &rule.MinimumOrderAmount,
			&rule.MaximumOrderAmount, &rule.AppliesToSubtotal, &rule.PartySizeMinimum,
			&rule.RequiresManagerApproval, &rule.ValidFrom, &rule.ValidUntil,
			&rule.UsageCount, &rule.UsageLimit); err != nil {
			return nil, fmt.Errorf("failed to scan charge rule: %w", err)
		}
		for _, ot := range orderTypes {
			rule.OrderTypes = append(rule.OrderTypes, models.OrderType(ot))
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// IncrementDiscountUsage bumps usage counters after a successful payment.
func (r *Repository) IncrementDiscountUsage(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.Exec(ctx, database.IncrementDiscountUsageSQL, ids); err != nil {
		return fmt.Errorf("failed to increment discount usage: %w", err)
	}
	return nil
}
