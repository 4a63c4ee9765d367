package table

import (
	"context"
	"fmt"
	"time"

	"pos-system/internal/logger"
	"pos-system/internal/models"
	"pos-system/internal/services/order"
)

// Service enforces the 1:1 binding between an occupied table and its current
// order: assign, move and merge, plus floor reads and manual status changes.
type Service struct {
	orders OrderStore
	tables TableStore
	rules  RuleStore
	logger *logger.Logger
}

// NewService creates the table occupancy manager.
func NewService(orders OrderStore, tables TableStore, rules RuleStore, log *logger.Logger) *Service {
	return &Service{
		orders: orders,
		tables: tables,
		rules:  rules,
		logger: log,
	}
}

// List returns the floor plan.
func (s *Service) List(ctx context.Context) ([]models.Table, error) {
	return s.tables.ListTables(ctx)
}

// Get fetches one table.
func (s *Service) Get(ctx context.Context, tableID string) (*models.Table, error) {
	return s.tables.GetTable(ctx, tableID)
}

// SetStatus applies a manual floor status (cleaning, reserved, problem, back
// to available). Occupancy itself is owned by the order lifecycle, so occupied
// cannot be set or cleared by hand.
func (s *Service) SetStatus(ctx context.Context, tableID string, status models.TableStatus) (*models.Table, error) {
	if !models.ValidTableStatus(status) {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("unknown table status %q", status)}
	}
	if status == models.TableOccupied {
		return nil, &models.PreconditionError{Reason: "occupied is set by the order lifecycle, not manually"}
	}

	table, err := s.tables.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.Status == models.TableOccupied {
		return nil, &models.PreconditionError{
			Reason: fmt.Sprintf("table %d is occupied by order %s", table.Number, table.CurrentOrderID),
		}
	}

	table.Status = status
	if err := s.tables.UpdateTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// Assign binds an order to a table. For a dine-in order already sent to the
// kitchen the table becomes occupied immediately; a draft order just records
// the binding for later.
func (s *Service) Assign(ctx context.Context, orderID, tableID string) (*models.Order, error) {
	table, err := s.tables.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("order %s is %s and cannot be seated", o.Number, o.Status)}
	}
	// A seated order already occupies a table; rebinding it here would leave
	// that table occupied forever. Relocation goes through Move, which frees
	// the old table in the same commit.
	if o.Type == models.DineIn && o.Status != models.StatusDraft && o.HasTable() && o.TableID != table.ID {
		return nil, &models.PreconditionError{
			Reason: fmt.Sprintf("order %s is already seated at table %d, use a table move instead", o.Number, o.TableNumber),
		}
	}

	o.TableID = table.ID
	o.TableNumber = table.Number

	var tables []*models.Table
	if o.Type == models.DineIn && o.Status != models.StatusDraft {
		if table.Status == models.TableOccupied && table.CurrentOrderID != o.ID {
			return nil, &models.PreconditionError{
				Reason: fmt.Sprintf("table %d is already occupied by another order", table.Number),
			}
		}
		table.Occupy(o.ID)
		tables = append(tables, table)
	}

	if err := s.orders.CommitOrderAndTables(ctx, o, tables...); err != nil {
		return nil, err
	}
	return o, nil
}

// Move relocates the order on table A to table B. Fails if A has no current
// order, B does not exist or B is not available. A is freed and B occupied in
// the same transaction as the order update.
func (s *Service) Move(ctx context.Context, fromTableID, toTableID string) (*models.Order, error) {
	from, err := s.tables.GetTable(ctx, fromTableID)
	if err != nil {
		return nil, err
	}
	if from.CurrentOrderID == "" {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("table %d has no current order", from.Number)}
	}

	to, err := s.tables.GetTable(ctx, toTableID)
	if err != nil {
		return nil, err
	}
	if to.Status != models.TableAvailable {
		return nil, &models.PreconditionError{
			Reason: fmt.Sprintf("table %d is %s, not available", to.Number, to.Status),
		}
	}

	o, err := s.orders.Get(ctx, from.CurrentOrderID)
	if err != nil {
		return nil, err
	}

	o.TableID = to.ID
	o.TableNumber = to.Number
	from.Free()
	to.Occupy(o.ID)

	if err := s.orders.CommitOrderAndTables(ctx, o, from, to); err != nil {
		return nil, err
	}

	s.logger.Info("table_moved", fmt.Sprintf("Order %s moved from table %d to %d", o.Number, from.Number, to.Number), "", map[string]interface{}{
		"order_id":   o.ID,
		"from_table": from.Number,
		"to_table":   to.Number,
	})
	return o, nil
}

// Merge combines the order on the source table into the order on the
// destination table, then discards the source order and frees its table.
//
// Items are concatenated destination-first and the merged subtotal is the sum
// of both prior subtotals, which must equal the subtotal recomputed from the
// combined item list. Tips are summed. Tax, service charges, gratuity and
// discounts are re-evaluated against the combined subtotal rather than summed:
// threshold rules are not additive, so summing the prior amounts (as the
// original till software did) breaks conservation. Conservation invariants:
// merged.subtotal == src.subtotal + dst.subtotal, merged.tip == src.tip +
// dst.tip, item count preserved.
func (s *Service) Merge(ctx context.Context, srcTableID, dstTableID string) (*models.Order, error) {
	if srcTableID == dstTableID {
		return nil, &models.PreconditionError{Reason: "cannot merge a table into itself"}
	}

	src, err := s.tables.GetTable(ctx, srcTableID)
	if err != nil {
		return nil, err
	}
	if src.CurrentOrderID == "" {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("source table %d has no current order", src.Number)}
	}

	dst, err := s.tables.GetTable(ctx, dstTableID)
	if err != nil {
		return nil, err
	}
	if dst.Status != models.TableOccupied || dst.CurrentOrderID == "" {
		return nil, &models.PreconditionError{
			Reason: fmt.Sprintf("destination table %d has no active order to merge into", dst.Number),
		}
	}
	if src.CurrentOrderID == dst.CurrentOrderID {
		return nil, &models.PreconditionError{
			Reason: fmt.Sprintf("tables %d and %d hold the same order", src.Number, dst.Number),
		}
	}

	srcOrder, err := s.orders.Get(ctx, src.CurrentOrderID)
	if err != nil {
		return nil, err
	}
	dstOrder, err := s.orders.Get(ctx, dst.CurrentOrderID)
	if err != nil {
		return nil, err
	}
	if srcOrder.Status.IsTerminal() || dstOrder.Status.IsTerminal() {
		return nil, &models.PreconditionError{Reason: "cannot merge a settled or cancelled order"}
	}

	priorSubtotals := models.Round2(srcOrder.Subtotal + dstOrder.Subtotal)

	dstOrder.Items = append(dstOrder.Items, srcOrder.Items...)
	dstOrder.RemovedItems = append(dstOrder.RemovedItems, srcOrder.RemovedItems...)
	dstOrder.Tip = models.Round2(dstOrder.Tip + srcOrder.Tip)
	dstOrder.PartySize += srcOrder.PartySize
	dstOrder.SelectedDiscountIDs = mergeIDs(dstOrder.SelectedDiscountIDs, srcOrder.SelectedDiscountIDs)
	// The destination's bindings win; the source's only fill gaps.
	if dstOrder.Customer == nil {
		dstOrder.Customer = srcOrder.Customer
	}
	if dstOrder.SelectedGratuityID == "" {
		dstOrder.SelectedGratuityID = srcOrder.SelectedGratuityID
	}

	rules, err := s.rules.ListActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	order.Recalculate(dstOrder, rules, time.Now().UTC())

	if dstOrder.Subtotal != priorSubtotals {
		// Line totals are rounded per line, so both computations agree unless a
		// stored subtotal went stale under a concurrent writer.
		return nil, fmt.Errorf("merge subtotal mismatch: recomputed %.2f, prior sum %.2f: %w",
			dstOrder.Subtotal, priorSubtotals, models.ErrConcurrencyConflict)
	}

	src.Free()
	if err := s.orders.MergeOrders(ctx, dstOrder, srcOrder.ID, src); err != nil {
		return nil, err
	}

	s.logger.Info("tables_merged", fmt.Sprintf("Order %s merged into %s", srcOrder.Number, dstOrder.Number), "", map[string]interface{}{
		"source_order":      srcOrder.Number,
		"destination_order": dstOrder.Number,
		"merged_subtotal":   dstOrder.Subtotal,
		"merged_tip":        dstOrder.Tip,
	})
	return dstOrder, nil
}

func mergeIDs(dst, src []string) []string {
	seen := map[string]bool{}
	for _, id := range dst {
		seen[id] = true
	}
	for _, id := range src {
		if !seen[id] {
			dst = append(dst, id)
			seen[id] = true
		}
	}
	return dst
}
