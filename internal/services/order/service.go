package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pos-system/internal/logger"
	"pos-system/internal/models"
	"pos-system/internal/services/catalog"
	"pos-system/internal/services/charges"
	"pos-system/internal/services/customer"
)

// Service implements the order aggregate commands: create, send to kitchen,
// add/remove item, pay, cancel, set status. Every command re-reads the latest
// order, recomputes totals through the charge evaluator and commits with a
// compare-and-set write.
type Service struct {
	store     OrderStore
	tables    TableStore
	rules     RuleStore
	catalog   catalog.Reader
	customers customer.Directory
	publisher Notifier
	logger    *logger.Logger
}

// NewService creates the order service.
func NewService(store OrderStore, tables TableStore, rules RuleStore,
	cat catalog.Reader, customers customer.Directory, publisher Notifier,
	log *logger.Logger) *Service {
	return &Service{
		store:     store,
		tables:    tables,
		rules:     rules,
		catalog:   cat,
		customers: customers,
		publisher: publisher,
		logger:    log,
	}
}

// NewItemRequest identifies a catalog item to add; name and prices are
// snapshotted from the catalog at add time.
type NewItemRequest struct {
	MenuItemID          string
	Quantity            int
	ModifierIDs         []string
	SpecialInstructions string
}

// CreateRequest carries the plain values for order creation.
type CreateRequest struct {
	Type            models.OrderType
	PartySize       int
	DeliveryAddress string
	TableID         string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Items           []NewItemRequest
}

// Create validates the request, snapshots catalog prices into line items and
// persists a new draft order. Draft orders are carts: not visible to the
// kitchen and not reflected in table state until sent.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.Order, error) {
	if !models.ValidOrderType(req.Type) {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("unknown order type %q", req.Type)}
	}
	if req.Type == models.Delivery && req.DeliveryAddress == "" {
		return nil, &models.PreconditionError{Reason: "delivery orders require a delivery address"}
	}

	now := time.Now().UTC()
	o := &models.Order{
		ID:              uuid.NewString(),
		Type:            req.Type,
		Status:          models.StatusDraft,
		PartySize:       req.PartySize,
		DeliveryAddress: req.DeliveryAddress,
	}

	for _, item := range req.Items {
		li, err := s.buildLineItem(ctx, item)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, *li)
	}

	if req.TableID != "" {
		table, err := s.tables.GetTable(ctx, req.TableID)
		if err != nil {
			return nil, err
		}
		o.TableID = table.ID
		o.TableNumber = table.Number
	}

	if req.CustomerPhone != "" {
		name := req.CustomerName
		if name == "" {
			// Returning customer calling in: reuse the name on file.
			if existing, err := s.customers.FindByPhone(ctx, req.CustomerPhone); err == nil {
				name = existing.Name
			}
		}
		id, err := s.customers.Upsert(ctx, name, req.CustomerPhone, req.CustomerAddress)
		if err != nil {
			return nil, err
		}
		o.Customer = &models.CustomerBinding{
			CustomerID: id,
			Name:       name,
			Phone:      req.CustomerPhone,
			Address:    req.CustomerAddress,
		}
	}

	seq, err := s.store.NextSequence(ctx, fmt.Sprintf("ORD_%s_%%", now.Format("20060102")))
	if err != nil {
		return nil, err
	}
	o.Number = models.GenerateOrderNumber(now, seq)

	if err := s.recompute(ctx, o, now); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order_created", fmt.Sprintf("Created order %s", o.Number), "", map[string]interface{}{
		"order_id":   o.ID,
		"order_type": o.Type,
		"total":      o.Total,
	})
	return o, nil
}

// SendToKitchen moves a draft order to pending. For dine-in orders the bound
// table is occupied in the same transaction, and a kitchen ticket goes out.
func (s *Service) SendToKitchen(ctx context.Context, orderID, actor string) (*models.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.StatusDraft {
		return nil, &models.TransitionError{From: o.Status, To: models.StatusPending}
	}

	o.Status = models.StatusPending

	var tables []*models.Table
	if o.Type == models.DineIn && o.HasTable() {
		table, err := s.tables.GetTable(ctx, o.TableID)
		if err != nil {
			return nil, err
		}
		if table.Status == models.TableOccupied && table.CurrentOrderID != o.ID {
			return nil, &models.PreconditionError{
				Reason: fmt.Sprintf("table %d is already occupied by another order", table.Number),
			}
		}
		table.Occupy(o.ID)
		tables = append(tables, table)
	}

	if err := s.store.CommitOrderAndTables(ctx, o, tables...); err != nil {
		return nil, err
	}

	ticket := &models.KitchenTicket{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		OrderType:   o.Type,
		TableNumber: o.TableNumber,
		Items:       o.Items,
		SentAt:      time.Now().UTC(),
	}
	if err := s.publisher.PublishKitchenTicket(ctx, ticket); err != nil {
		s.logger.Error("kitchen_publish_failed", "Failed to publish kitchen ticket", "", err, map[string]interface{}{
			"order_number": o.Number,
		})
	}
	s.notifyStatus(ctx, o, models.StatusDraft, actor)

	return o, nil
}

// AddItem appends a line item with a fresh catalog snapshot and recomputes
// totals. Rejected once the order is terminal.
func (s *Service) AddItem(ctx context.Context, orderID string, item NewItemRequest) (*models.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("order %s is %s and can no longer change", o.Number, o.Status)}
	}

	li, err := s.buildLineItem(ctx, item)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, *li)

	if err := s.recompute(ctx, o, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.CommitOrderAndTables(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateItem changes the quantity or special instructions of the line item at
// the given position and recomputes totals. The catalog snapshot is kept as-is
// so the price stays what the customer was quoted.
func (s *Service) UpdateItem(ctx context.Context, orderID string, index, quantity int, specialInstructions string) (*models.Order, error) {
	if quantity < 1 {
		return nil, &models.PreconditionError{Reason: "item quantity must be at least 1"}
	}

	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("order %s is %s and can no longer change", o.Number, o.Status)}
	}
	if index < 0 || index >= len(o.Items) {
		return nil, &models.NotFoundError{Entity: "line item", ID: fmt.Sprintf("%s[%d]", o.Number, index)}
	}

	o.Items[index].Quantity = quantity
	o.Items[index].SpecialInstructions = specialInstructions

	if err := s.recompute(ctx, o, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.CommitOrderAndTables(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RemoveItem removes the line item at the given position, copying it into the
// append-only removed-items audit log, then recomputes subtotal, tax, charges
// and total from the remaining items. Removing the last item leaves a valid
// zero-subtotal order that can still be cancelled.
func (s *Service) RemoveItem(ctx context.Context, orderID string, index int, reason models.RemovalReason, note, actor string) (*models.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("order %s is %s and can no longer change", o.Number, o.Status)}
	}
	if index < 0 || index >= len(o.Items) {
		return nil, &models.NotFoundError{Entity: "line item", ID: fmt.Sprintf("%s[%d]", o.Number, index)}
	}
	if !models.ValidRemovalReason(reason) {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("unknown removal reason %q", reason)}
	}

	removed := models.RemovedItem{
		Item:      o.Items[index],
		Reason:    reason,
		Note:      note,
		RemovedBy: actor,
		RemovedAt: time.Now().UTC(),
	}
	o.RemovedItems = append(o.RemovedItems, removed)
	o.Items = append(o.Items[:index], o.Items[index+1:]...)

	if err := s.recompute(ctx, o, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.CommitOrderAndTables(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SelectDiscounts replaces the order's opted-in discount policies and
// re-evaluates totals.
func (s *Service) SelectDiscounts(ctx context.Context, orderID string, discountIDs []string) (*models.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("order %s is %s and can no longer change", o.Number, o.Status)}
	}

	o.SelectedDiscountIDs = discountIDs
	if err := s.recompute(ctx, o, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.CommitOrderAndTables(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SetTip records a tip amount (either free-form or an accepted gratuity
// suggestion) and recomputes the total.
func (s *Service) SetTip(ctx context.Context, orderID string, tip float64, gratuityRuleID string) (*models.Order, error) {
	if tip < 0 {
		return nil, &models.PreconditionError{Reason: "tip cannot be negative"}
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("order %s is %s and can no longer change", o.Number, o.Status)}
	}

	o.Tip = models.Round2(tip)
	o.SelectedGratuityID = gratuityRuleID
	if err := s.recompute(ctx, o, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.CommitOrderAndTables(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// PayRequest carries payment details.
type PayRequest struct {
	Method       models.PaymentMethod
	CashReceived float64
	Actor        string
}

// Pay settles the order. Cash payments must cover the total; the bound table
// is freed in the same transaction; discount usage counters and customer
// aggregate stats are refreshed after the commit.
func (s *Service) Pay(ctx context.Context, orderID string, req *PayRequest) (*models.Order, error) {
	if !models.ValidPaymentMethod(req.Method) {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("unknown payment method %q", req.Method)}
	}

	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(models.StatusPaid) {
		return nil, &models.TransitionError{From: o.Status, To: models.StatusPaid}
	}

	if req.Method == models.PaymentCash {
		if req.CashReceived < o.Total {
			return nil, &models.PreconditionError{
				Reason: fmt.Sprintf("cash received %.2f is less than total %.2f", req.CashReceived, o.Total),
			}
		}
		o.CashReceived = models.Round2(req.CashReceived)
		o.ChangeAmount = models.Round2(req.CashReceived - o.Total)
	}

	prev := o.Status
	o.Status = models.StatusPaid
	o.PaymentMethod = req.Method
	o.PaymentStatus = "completed"

	tables, err := s.freeBoundTable(ctx, o)
	if err != nil {
		return nil, err
	}
	if err := s.store.CommitOrderAndTables(ctx, o, tables...); err != nil {
		return nil, err
	}

	// Post-commit bookkeeping: counters and stats are separate records; a
	// failure here is logged, not surfaced, and the recompute is idempotent.
	if len(o.SelectedDiscountIDs) > 0 {
		if err := s.store.IncrementDiscountUsage(ctx, o.SelectedDiscountIDs); err != nil {
			s.logger.Error("discount_usage_failed", "Failed to increment discount usage", "", err, map[string]interface{}{
				"order_number": o.Number,
			})
		}
	}
	if o.Customer != nil {
		if err := s.customers.RecomputeStats(ctx, o.Customer.CustomerID); err != nil {
			s.logger.Error("customer_stats_failed", "Failed to recompute customer stats", "", err, map[string]interface{}{
				"customer_id": o.Customer.CustomerID,
			})
		}
	}
	s.notifyStatus(ctx, o, prev, req.Actor)

	return o, nil
}

// Cancel rejects paid, delivered or already-cancelled orders, records who
// cancelled and why, and frees the bound table exactly like payment does.
func (s *Service) Cancel(ctx context.Context, orderID, reason, note, actor string) (*models.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, &models.TransitionError{From: o.Status, To: models.StatusCancelled}
	}

	prev := o.Status
	o.Status = models.StatusCancelled
	o.Cancellation = &models.CancellationRecord{
		Reason:      reason,
		Note:        note,
		CancelledBy: actor,
		CancelledAt: time.Now().UTC(),
	}

	tables, err := s.freeBoundTable(ctx, o)
	if err != nil {
		return nil, err
	}
	if err := s.store.CommitOrderAndTables(ctx, o, tables...); err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, o, prev, actor)

	return o, nil
}

// SetStatus applies a kitchen-progress transition. Statuses with dedicated
// commands (pending, paid, cancelled) must go through those commands because
// they carry side effects.
func (s *Service) SetStatus(ctx context.Context, orderID string, status models.OrderStatus, actor string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, &models.PreconditionError{Reason: fmt.Sprintf("unknown status %q", status)}
	}
	switch status {
	case models.StatusPending, models.StatusPaid, models.StatusCancelled:
		return nil, &models.PreconditionError{
			Reason: fmt.Sprintf("status %s must be set through its dedicated command", status),
		}
	}

	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, &models.TransitionError{From: o.Status, To: status}
	}

	prev := o.Status
	o.Status = status
	if err := s.store.CommitOrderAndTables(ctx, o); err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, o, prev, actor)

	return o, nil
}

// Get fetches an order by id.
func (s *Service) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.Get(ctx, orderID)
}

// GetByNumber fetches an order by its number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.store.GetByNumber(ctx, number)
}

// List returns recent orders.
func (s *Service) List(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.List(ctx, limit)
}

// buildLineItem snapshots catalog name/price into a line item so later catalog
// edits never change this order.
func (s *Service) buildLineItem(ctx context.Context, req NewItemRequest) (*models.OrderLineItem, error) {
	if req.Quantity < 1 {
		return nil, &models.PreconditionError{Reason: "item quantity must be at least 1"}
	}

	menuItem, err := s.catalog.GetMenuItem(ctx, req.MenuItemID)
	if err != nil {
		return nil, err
	}

	li := &models.OrderLineItem{
		MenuItemID:          menuItem.ID,
		Name:                menuItem.Name,
		UnitPrice:           menuItem.Price,
		Quantity:            req.Quantity,
		SpecialInstructions: req.SpecialInstructions,
	}
	for _, modID := range req.ModifierIDs {
		mod, err := s.catalog.GetModifier(ctx, modID)
		if err != nil {
			return nil, err
		}
		li.Modifiers = append(li.Modifiers, models.ModifierSnapshot{
			ModifierID: mod.ID,
			Name:       mod.Name,
			Price:      mod.Price,
		})
	}
	li.LineTotal = li.ComputeLineTotal()
	return li, nil
}

// recompute refreshes subtotal, tax, service charges, gratuity, discounts and
// total from the live items and the current rule set. Previously applied
// charges are re-evaluated, never retained, because thresholds may no longer
// hold after an item mutation.
func (s *Service) recompute(ctx context.Context, o *models.Order, now time.Time) error {
	rules, err := s.rules.ListActiveRules(ctx)
	if err != nil {
		return err
	}
	Recalculate(o, rules, now)
	return nil
}

// Recalculate applies the charge evaluator to an order in place.
func Recalculate(o *models.Order, rules []models.ChargeRule, now time.Time) {
	for i := range o.Items {
		o.Items[i].LineTotal = o.Items[i].ComputeLineTotal()
	}
	o.Subtotal = o.ItemsSubtotal()

	result := charges.Evaluate(charges.Input{
		Subtotal:            o.Subtotal,
		OrderType:           o.Type,
		PartySize:           o.PartySize,
		SelectedDiscountIDs: o.SelectedDiscountIDs,
		Now:                 now,
		Rules:               rules,
	})

	o.Tax = result.Tax
	o.ServiceCharges = result.ServiceCharges
	o.Discounts = result.Discounts
	o.Gratuity = 0
	if o.SelectedGratuityID != "" {
		if amount, ok := result.SuggestionAmount(o.SelectedGratuityID); ok {
			o.Gratuity = amount
		}
	}

	o.Total = models.Round2(o.Subtotal + o.Tax + o.ServiceCharges + o.Gratuity + o.Tip - o.Discounts)
}

// freeBoundTable returns the order's table ready to be released, if the order
// holds one.
func (s *Service) freeBoundTable(ctx context.Context, o *models.Order) ([]*models.Table, error) {
	if !o.HasTable() {
		return nil, nil
	}
	table, err := s.tables.GetTable(ctx, o.TableID)
	if err != nil {
		return nil, err
	}
	if table.CurrentOrderID != o.ID {
		// Table already moved on; nothing to release.
		return nil, nil
	}
	table.Free()
	return []*models.Table{table}, nil
}

func (s *Service) notifyStatus(ctx context.Context, o *models.Order, prev models.OrderStatus, actor string) {
	update := &models.StatusUpdate{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		OldStatus:   prev,
		NewStatus:   o.Status,
		ChangedBy:   actor,
		Total:       o.Total,
		ChangedAt:   time.Now().UTC(),
	}
	if err := s.publisher.PublishStatusUpdate(ctx, update); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish status update", "", err, map[string]interface{}{
			"order_number": o.Number,
			"new_status":   o.Status,
		})
	}
}
