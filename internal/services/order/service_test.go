package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"pos-system/internal/logger"
	"pos-system/internal/models"
	"pos-system/internal/services/catalog"
	"pos-system/internal/services/customer"
)

// fakeStore is an in-memory stand-in for the PostgreSQL repository. It mimics
// the version-checked commit semantics.
type fakeStore struct {
	orders  map[string]*models.Order
	tables  map[string]*models.Table
	rules   []models.ChargeRule
	seq     int
	usage   map[string]int
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: map[string]*models.Order{},
		tables: map[string]*models.Table{},
		usage:  map[string]int{},
	}
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderLineItem(nil), o.Items...)
	cp.RemovedItems = append([]models.RemovedItem(nil), o.RemovedItems...)
	cp.SelectedDiscountIDs = append([]string(nil), o.SelectedDiscountIDs...)
	return &cp
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	return copyOrder(o), nil
}

func (f *fakeStore) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.Number == number {
			return copyOrder(o), nil
		}
	}
	return nil, &models.NotFoundError{Entity: "order", ID: number}
}

func (f *fakeStore) List(_ context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *copyOrder(o))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, o *models.Order) error {
	o.Version = 1
	f.orders[o.ID] = copyOrder(o)
	return nil
}

func (f *fakeStore) NextSequence(_ context.Context, _ string) (int, error) {
	f.seq++
	return f.seq, nil
}

func (f *fakeStore) CommitOrderAndTables(_ context.Context, o *models.Order, tables ...*models.Table) error {
	stored, ok := f.orders[o.ID]
	if !ok {
		return &models.NotFoundError{Entity: "order", ID: o.ID}
	}
	if stored.Version != o.Version {
		return fmt.Errorf("order %s: %w", o.ID, models.ErrConcurrencyConflict)
	}
	for _, t := range tables {
		st, ok := f.tables[t.ID]
		if !ok {
			return &models.NotFoundError{Entity: "table", ID: t.ID}
		}
		if st.Version != t.Version {
			return fmt.Errorf("table %s: %w", t.ID, models.ErrConcurrencyConflict)
		}
	}
	o.Version++
	f.orders[o.ID] = copyOrder(o)
	for _, t := range tables {
		t.Version++
		cp := *t
		f.tables[t.ID] = &cp
	}
	return nil
}

func (f *fakeStore) MergeOrders(_ context.Context, dst *models.Order, srcOrderID string, srcTable *models.Table) error {
	if err := f.CommitOrderAndTables(context.Background(), dst, srcTable); err != nil {
		return err
	}
	delete(f.orders, srcOrderID)
	f.deleted = append(f.deleted, srcOrderID)
	return nil
}

func (f *fakeStore) GetTable(_ context.Context, id string) (*models.Table, error) {
	t, ok := f.tables[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "table", ID: id}
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) ListTables(_ context.Context) ([]models.Table, error) {
	var out []models.Table
	for _, t := range f.tables {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeStore) UpdateTable(_ context.Context, t *models.Table) error {
	st, ok := f.tables[t.ID]
	if !ok {
		return &models.NotFoundError{Entity: "table", ID: t.ID}
	}
	if st.Version != t.Version {
		return fmt.Errorf("table %s: %w", t.ID, models.ErrConcurrencyConflict)
	}
	t.Version++
	cp := *t
	f.tables[t.ID] = &cp
	return nil
}

func (f *fakeStore) ListActiveRules(_ context.Context) ([]models.ChargeRule, error) {
	return f.rules, nil
}

func (f *fakeStore) IncrementDiscountUsage(_ context.Context, ids []string) error {
	for _, id := range ids {
		f.usage[id]++
	}
	return nil
}

type fakeCatalog struct {
	items     map[string]catalog.MenuItem
	modifiers map[string]catalog.Modifier
}

func (f *fakeCatalog) GetMenuItem(_ context.Context, id string) (*catalog.MenuItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "menu item", ID: id}
	}
	return &item, nil
}

func (f *fakeCatalog) GetModifier(_ context.Context, id string) (*catalog.Modifier, error) {
	mod, ok := f.modifiers[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "modifier", ID: id}
	}
	return &mod, nil
}

type fakeDirectory struct {
	recomputed []string
}

func (f *fakeDirectory) FindByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	return nil, &models.NotFoundError{Entity: "customer", ID: phone}
}

func (f *fakeDirectory) Upsert(_ context.Context, name, phone, address string) (string, error) {
	return "cust-1", nil
}

func (f *fakeDirectory) RecomputeStats(_ context.Context, customerID string) error {
	f.recomputed = append(f.recomputed, customerID)
	return nil
}

type fakeNotifier struct {
	tickets []*models.KitchenTicket
	updates []*models.StatusUpdate
}

func (f *fakeNotifier) PublishKitchenTicket(_ context.Context, t *models.KitchenTicket) error {
	f.tickets = append(f.tickets, t)
	return nil
}

func (f *fakeNotifier) PublishStatusUpdate(_ context.Context, u *models.StatusUpdate) error {
	f.updates = append(f.updates, u)
	return nil
}

func newTestService(store *fakeStore) (*Service, *fakeNotifier, *fakeDirectory) {
	cat := &fakeCatalog{
		items: map[string]catalog.MenuItem{
			"burger": {ID: "burger", Name: "Burger", Price: 10.00},
			"fries":  {ID: "fries", Name: "Fries", Price: 5.00},
			"soda":   {ID: "soda", Name: "Soda", Price: 2.50},
		},
		modifiers: map[string]catalog.Modifier{
			"cheese": {ID: "cheese", Name: "Extra Cheese", Price: 1.00},
		},
	}
	notifier := &fakeNotifier{}
	directory := &fakeDirectory{}
	svc := NewService(store, store, store, cat, directory, notifier, logger.New("test"))
	return svc, notifier, directory
}

func taxRule(rate float64) models.ChargeRule {
	return models.ChargeRule{
		ID:                "tax",
		Kind:              models.KindTax,
		Name:              "sales tax",
		Active:            true,
		MagnitudeType:     models.MagnitudePercentage,
		Rate:              rate,
		AppliesToSubtotal: true,
	}
}

func TestCreate_SnapshotsAndTotals(t *testing.T) {
	store := newFakeStore()
	store.rules = []models.ChargeRule{taxRule(10)}
	svc, _, _ := newTestService(store)

	o, err := svc.Create(context.Background(), &CreateRequest{
		Type: models.DineIn,
		Items: []NewItemRequest{
			{MenuItemID: "burger", Quantity: 2, ModifierIDs: []string{"cheese"}},
			{MenuItemID: "fries", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if o.Status != models.StatusDraft {
		t.Errorf("new order status = %s, want draft", o.Status)
	}
	if !strings.HasPrefix(o.Number, "ORD_") {
		t.Errorf("order number %q missing ORD_ prefix", o.Number)
	}
	// (10.00 + 1.00) * 2 + 5.00 = 27.00
	if o.Subtotal != 27.00 {
		t.Errorf("Subtotal = %.2f, want 27.00", o.Subtotal)
	}
	if o.Tax != 2.70 {
		t.Errorf("Tax = %.2f, want 2.70", o.Tax)
	}
	if o.Total != 29.70 {
		t.Errorf("Total = %.2f, want 29.70", o.Total)
	}
	if o.Items[0].Name != "Burger" || o.Items[0].UnitPrice != 10.00 {
		t.Errorf("catalog snapshot missing: %+v", o.Items[0])
	}

	sum := 0.0
	for _, li := range o.Items {
		sum += li.LineTotal
	}
	if models.Round2(sum) != o.Subtotal {
		t.Errorf("sum of line totals %.2f != subtotal %.2f", sum, o.Subtotal)
	}
}

func TestCreate_RejectsBadInput(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)

	_, err := svc.Create(context.Background(), &CreateRequest{Type: "walk_in"})
	if !errors.Is(err, models.ErrPreconditionFailed) {
		t.Errorf("unknown order type: got %v, want precondition failure", err)
	}

	_, err = svc.Create(context.Background(), &CreateRequest{Type: models.Delivery})
	if !errors.Is(err, models.ErrPreconditionFailed) {
		t.Errorf("delivery without address: got %v, want precondition failure", err)
	}

	_, err = svc.Create(context.Background(), &CreateRequest{
		Type:  models.Takeout,
		Items: []NewItemRequest{{MenuItemID: "burger", Quantity: 0}},
	})
	if !errors.Is(err, models.ErrPreconditionFailed) {
		t.Errorf("zero quantity: got %v, want precondition failure", err)
	}

	_, err = svc.Create(context.Background(), &CreateRequest{
		Type:  models.Takeout,
		Items: []NewItemRequest{{MenuItemID: "sushi", Quantity: 1}},
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown menu item: got %v, want not found", err)
	}
}

func seedDineIn(store *fakeStore, orderID, tableID string, status models.OrderStatus) {
	store.tables[tableID] = &models.Table{ID: tableID, Number: 7, Name: "T7", Capacity: 4,
		Status: models.TableAvailable, Version: 1}
	o := &models.Order{
		ID:     orderID,
		Number: "ORD_20260830_001",
		Type:   models.DineIn,
		Status: status,
		Items: []models.OrderLineItem{
			{MenuItemID: "burger", Name: "Burger", UnitPrice: 10.00, Quantity: 1, LineTotal: 10.00},
			{MenuItemID: "fries", Name: "Fries", UnitPrice: 5.00, Quantity: 2, LineTotal: 10.00},
		},
		Subtotal:    20.00,
		Total:       20.00,
		TableID:     tableID,
		TableNumber: 7,
		Version:     1,
	}
	store.orders[orderID] = o
	if status != models.StatusDraft && !status.IsTerminal() {
		store.tables[tableID].Occupy(orderID)
	}
}

func TestSendToKitchen(t *testing.T) {
	store := newFakeStore()
	svc, notifier, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusDraft)

	o, err := svc.SendToKitchen(context.Background(), "o1", "alice")
	if err != nil {
		t.Fatalf("SendToKitchen returned error: %v", err)
	}
	if o.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", o.Status)
	}

	table := store.tables["t1"]
	if table.Status != models.TableOccupied || table.CurrentOrderID != "o1" {
		t.Errorf("table not occupied by order: %+v", table)
	}
	if len(notifier.tickets) != 1 {
		t.Errorf("published %d kitchen tickets, want 1", len(notifier.tickets))
	}

	// Sending again must be rejected: the order is no longer a draft.
	if _, err := svc.SendToKitchen(context.Background(), "o1", "alice"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("second send: got %v, want invalid transition", err)
	}
}

func TestSendToKitchen_TableAlreadyTaken(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusDraft)
	store.tables["t1"].Occupy("other-order")

	if _, err := svc.SendToKitchen(context.Background(), "o1", "alice"); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Errorf("got %v, want precondition failure on double-booked table", err)
	}
}

func TestRemoveItem(t *testing.T) {
	store := newFakeStore()
	store.rules = []models.ChargeRule{taxRule(10)}
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPending)

	o, err := svc.RemoveItem(context.Background(), "o1", 0, models.RemovalWrongItem, "ordered by mistake", "alice")
	if err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}

	if len(o.Items) != 1 || o.Items[0].Name != "Fries" {
		t.Errorf("remaining items wrong: %+v", o.Items)
	}
	if len(o.RemovedItems) != 1 {
		t.Fatalf("removed items audit log has %d entries, want 1", len(o.RemovedItems))
	}
	audit := o.RemovedItems[0]
	if audit.Item.Name != "Burger" || audit.Reason != models.RemovalWrongItem || audit.RemovedBy != "alice" {
		t.Errorf("audit record incomplete: %+v", audit)
	}
	if o.Subtotal != 10.00 || o.Tax != 1.00 || o.Total != 11.00 {
		t.Errorf("totals not recomputed: subtotal=%.2f tax=%.2f total=%.2f", o.Subtotal, o.Tax, o.Total)
	}
}

func TestRemoveItem_Errors(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPending)
	seedDineIn(store, "o2", "t2", models.StatusPaid)

	tests := []struct {
		name    string
		orderID string
		index   int
		reason  models.RemovalReason
		wantErr error
	}{
		{"missing order", "nope", 0, models.RemovalOther, models.ErrNotFound},
		{"index out of range", "o1", 5, models.RemovalOther, models.ErrNotFound},
		{"negative index", "o1", -1, models.RemovalOther, models.ErrNotFound},
		{"terminal order", "o2", 0, models.RemovalOther, models.ErrPreconditionFailed},
		{"unknown reason", "o1", 0, models.RemovalReason("oops"), models.ErrPreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RemoveItem(context.Background(), tt.orderID, tt.index, tt.reason, "", "alice")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemoveAllItems_LeavesValidOrder(t *testing.T) {
	store := newFakeStore()
	store.rules = []models.ChargeRule{taxRule(10)}
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPending)
	store.orders["o1"].Tip = 3.00

	if _, err := svc.RemoveItem(context.Background(), "o1", 1, models.RemovalCustomerChangedMind, "", "alice"); err != nil {
		t.Fatalf("first removal failed: %v", err)
	}
	o, err := svc.RemoveItem(context.Background(), "o1", 0, models.RemovalCustomerChangedMind, "", "alice")
	if err != nil {
		t.Fatalf("second removal failed: %v", err)
	}

	if o.Subtotal != 0 || o.Tax != 0 {
		t.Errorf("empty order: subtotal=%.2f tax=%.2f, want both 0", o.Subtotal, o.Tax)
	}
	if o.Total != o.Tip {
		t.Errorf("empty order total = %.2f, want tip %.2f", o.Total, o.Tip)
	}
	if len(o.RemovedItems) != 2 {
		t.Errorf("audit log has %d entries, want 2", len(o.RemovedItems))
	}

	// The emptied order must still be cancellable.
	cancelled, err := svc.Cancel(context.Background(), "o1", "customer left", "", "alice")
	if err != nil {
		t.Fatalf("cancel after emptying failed: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestPay_Cash(t *testing.T) {
	store := newFakeStore()
	svc, _, directory := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPending)
	store.orders["o1"].Customer = &models.CustomerBinding{CustomerID: "cust-1", Name: "Bob"}
	store.orders["o1"].SelectedDiscountIDs = []string{"happy-hour"}

	// Insufficient cash is rejected and nothing changes.
	_, err := svc.Pay(context.Background(), "o1", &PayRequest{
		Method: models.PaymentCash, CashReceived: 15.00, Actor: "alice",
	})
	if !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("underpayment: got %v, want precondition failure", err)
	}
	if store.orders["o1"].Status != models.StatusPending {
		t.Errorf("order mutated after rejected payment: %s", store.orders["o1"].Status)
	}

	o, err := svc.Pay(context.Background(), "o1", &PayRequest{
		Method: models.PaymentCash, CashReceived: 25.00, Actor: "alice",
	})
	if err != nil {
		t.Fatalf("Pay returned error: %v", err)
	}

	if o.Status != models.StatusPaid {
		t.Errorf("status = %s, want paid", o.Status)
	}
	if o.ChangeAmount != 5.00 {
		t.Errorf("change = %.2f, want 5.00", o.ChangeAmount)
	}
	if table := store.tables["t1"]; table.Status != models.TableAvailable || table.CurrentOrderID != "" {
		t.Errorf("table not freed after payment: %+v", table)
	}
	if store.usage["happy-hour"] != 1 {
		t.Errorf("discount usage = %d, want 1", store.usage["happy-hour"])
	}
	if len(directory.recomputed) != 1 || directory.recomputed[0] != "cust-1" {
		t.Errorf("customer stats not recomputed: %v", directory.recomputed)
	}
}

func TestPay_InvalidStates(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPaid)
	seedDineIn(store, "o2", "t2", models.StatusCancelled)

	for _, id := range []string{"o1", "o2"} {
		_, err := svc.Pay(context.Background(), id, &PayRequest{Method: models.PaymentCard, Actor: "alice"})
		if !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("paying %s order: got %v, want invalid transition", store.orders[id].Status, err)
		}
	}

	seedDineIn(store, "o3", "t3", models.StatusPending)
	_, err := svc.Pay(context.Background(), "o3", &PayRequest{Method: "barter", Actor: "alice"})
	if !errors.Is(err, models.ErrPreconditionFailed) {
		t.Errorf("unknown method: got %v, want precondition failure", err)
	}
}

func TestCancel(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)

	for i, status := range []models.OrderStatus{models.StatusPending, models.StatusConfirmed,
		models.StatusPreparing, models.StatusReady, models.StatusOutForDelivery} {
		orderID := fmt.Sprintf("live-%d", i)
		tableID := fmt.Sprintf("tl-%d", i)
		seedDineIn(store, orderID, tableID, status)

		o, err := svc.Cancel(context.Background(), orderID, "kitchen backed up", "", "alice")
		if err != nil {
			t.Fatalf("cancel from %s failed: %v", status, err)
		}
		if o.Cancellation == nil || o.Cancellation.Reason != "kitchen backed up" || o.Cancellation.CancelledBy != "alice" {
			t.Errorf("cancellation record incomplete: %+v", o.Cancellation)
		}
		if table := store.tables[tableID]; table.Status != models.TableAvailable {
			t.Errorf("table not freed after cancel from %s: %+v", status, table)
		}
	}

	for i, status := range []models.OrderStatus{models.StatusPaid, models.StatusDelivered, models.StatusCancelled} {
		orderID := fmt.Sprintf("done-%d", i)
		seedDineIn(store, orderID, fmt.Sprintf("td-%d", i), status)

		if _, err := svc.Cancel(context.Background(), orderID, "too late", "", "alice"); !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("cancel from %s: got %v, want invalid transition", status, err)
		}
	}
}

func TestSetStatus(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPending)

	o, err := svc.SetStatus(context.Background(), "o1", models.StatusConfirmed, "kitchen")
	if err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}
	if o.Status != models.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", o.Status)
	}

	if _, err := svc.SetStatus(context.Background(), "o1", models.StatusDelivered, "kitchen"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("skipping ahead: got %v, want invalid transition", err)
	}
	if _, err := svc.SetStatus(context.Background(), "o1", "sideways", "kitchen"); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Errorf("unknown status: got %v, want precondition failure", err)
	}
	// Statuses with dedicated commands cannot be set generically.
	for _, status := range []models.OrderStatus{models.StatusPending, models.StatusPaid, models.StatusCancelled} {
		if _, err := svc.SetStatus(context.Background(), "o1", status, "kitchen"); !errors.Is(err, models.ErrPreconditionFailed) {
			t.Errorf("generic set to %s: got %v, want precondition failure", status, err)
		}
	}
}

func TestAddItem(t *testing.T) {
	store := newFakeStore()
	store.rules = []models.ChargeRule{taxRule(10)}
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPending)

	o, err := svc.AddItem(context.Background(), "o1", NewItemRequest{MenuItemID: "soda", Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if len(o.Items) != 3 {
		t.Fatalf("order has %d items, want 3", len(o.Items))
	}
	if o.Subtotal != 25.00 || o.Tax != 2.50 || o.Total != 27.50 {
		t.Errorf("totals not recomputed: subtotal=%.2f tax=%.2f total=%.2f", o.Subtotal, o.Tax, o.Total)
	}

	seedDineIn(store, "o2", "t2", models.StatusPaid)
	if _, err := svc.AddItem(context.Background(), "o2", NewItemRequest{MenuItemID: "soda", Quantity: 1}); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Errorf("adding to paid order: got %v, want precondition failure", err)
	}
}

func TestUpdateItem(t *testing.T) {
	store := newFakeStore()
	store.rules = []models.ChargeRule{taxRule(10)}
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPending)

	o, err := svc.UpdateItem(context.Background(), "o1", 0, 3, "no onions")
	if err != nil {
		t.Fatalf("UpdateItem returned error: %v", err)
	}
	if o.Items[0].Quantity != 3 || o.Items[0].SpecialInstructions != "no onions" {
		t.Errorf("item not updated: %+v", o.Items[0])
	}
	// Burger 10.00 x3 + fries 5.00 x2 = 40.00, 10% tax.
	if o.Subtotal != 40.00 || o.Tax != 4.00 || o.Total != 44.00 {
		t.Errorf("totals not recomputed: subtotal=%.2f tax=%.2f total=%.2f", o.Subtotal, o.Tax, o.Total)
	}

	if _, err := svc.UpdateItem(context.Background(), "o1", 9, 1, ""); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("out-of-range index: got %v, want not found", err)
	}
	if _, err := svc.UpdateItem(context.Background(), "o1", 0, 0, ""); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Errorf("zero quantity: got %v, want precondition failure", err)
	}
}

func TestConcurrentCommitConflict(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	seedDineIn(store, "o1", "t1", models.StatusPending)

	// Simulate an interleaved writer bumping the stored version between this
	// command's read and its write.
	read, _ := store.Get(context.Background(), "o1")
	store.orders["o1"].Version++

	err := store.CommitOrderAndTables(context.Background(), read)
	if !errors.Is(err, models.ErrConcurrencyConflict) {
		t.Errorf("stale write: got %v, want concurrency conflict", err)
	}

	// The command retried from a fresh read succeeds.
	if _, err := svc.SetStatus(context.Background(), "o1", models.StatusConfirmed, "kitchen"); err != nil {
		t.Errorf("retry from fresh read failed: %v", err)
	}
}
