package orders

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"resto-pos/internal/catalog"
)

// fakeStore keeps the whole "database" in memory and mimics transaction
// semantics: state is snapshotted before the callback runs and restored if
// it errors, so nothing partial ever survives a failed placement.
type fakeStore struct {
	products  map[string]*catalog.Product
	orders    []*Order
	movements []*StockMovement

	appendErr error // forced failure for the rollback tests
}

func newFakeStore(products ...*catalog.Product) *fakeStore {
	s := &fakeStore{products: map[string]*catalog.Product{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	snapProducts := map[string]*catalog.Product{}
	for id, p := range s.products {
		cp := *p
		cp.Components = append([]catalog.ComboComponent(nil), p.Components...)
		snapProducts[id] = &cp
	}
	snapOrders := append([]*Order(nil), s.orders...)
	snapMovements := append([]*StockMovement(nil), s.movements...)

	if err := fn(ctx, &fakeTx{s: s}); err != nil {
		s.products = snapProducts
		s.orders = snapOrders
		s.movements = snapMovements
		return err
	}
	return nil
}

type fakeTx struct{ s *fakeStore }

func (t *fakeTx) InsertOrder(ctx context.Context, o *Order) error {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	t.s.orders = append(t.s.orders, &cp)
	return nil
}

func (t *fakeTx) ProductForSale(ctx context.Context, productID string) (*catalog.Product, error) {
	p, ok := t.s.products[productID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	cp.Components = append([]catalog.ComboComponent(nil), p.Components...)
	return &cp, nil
}

func (t *fakeTx) DecrementStock(ctx context.Context, productID string, qty int) (*catalog.Product, error) {
	p, ok := t.s.products[productID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	p.Stock -= qty
	cp := *p
	return &cp, nil
}

func (t *fakeTx) DeactivateProduct(ctx context.Context, productID string) error {
	p, ok := t.s.products[productID]
	if !ok {
		return catalog.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (t *fakeTx) AppendMovement(ctx context.Context, m *StockMovement) error {
	if t.s.appendErr != nil {
		return t.s.appendErr
	}
	t.s.movements = append(t.s.movements, m)
	return nil
}

type fakeNotifier struct {
	orderCompleted   int
	inventoryChanged int
}

func (n *fakeNotifier) OrderCompleted(ctx context.Context, o *Order) { n.orderCompleted++ }

func (n *fakeNotifier) InventoryChanged(ctx context.Context, orderID string) { n.inventoryChanged++ }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func regular(id, name string, stock int) *catalog.Product {
	return &catalog.Product{ID: id, Name: name, Stock: stock, MinStock: 5, IsActive: true}
}

func TestPlaceOrderTotalExact(t *testing.T) {
	store := newFakeStore(regular("p1", "Empanada", 50), regular("p2", "Bandeja", 20))
	svc := &Service{Store: store}

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentCash,
		Items: []ItemInput{
			{ProductID: "p1", Quantity: 2, Price: dec("2.50")},
			{ProductID: "p2", Quantity: 1, Price: dec("8.00")},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !o.Total.Equal(dec("13.00")) {
		t.Errorf("total = %s, want 13.00", o.Total)
	}
	if o.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", o.Status)
	}
	if len(o.Items) != 2 {
		t.Errorf("items = %d, want 2", len(o.Items))
	}
}

func TestPlaceOrderComboExpansion(t *testing.T) {
	combo := &catalog.Product{
		ID: "combo-1", Name: "Combo Familiar", IsCombo: true, IsActive: true,
		Components: []catalog.ComboComponent{
			{ProductID: "a", Quantity: 3},
			{ProductID: "b", Quantity: 1},
		},
	}
	store := newFakeStore(regular("a", "Alitas", 30), regular("b", "Gaseosa", 12), combo)
	svc := &Service{Store: store}

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentCard,
		Items:         []ItemInput{{ProductID: "combo-1", Quantity: 2, Price: dec("25.00")}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if len(store.movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(store.movements))
	}
	if m := store.movements[0]; m.ProductID != "a" || m.Quantity != -6 {
		t.Errorf("movement[0] = %s %d, want a -6", m.ProductID, m.Quantity)
	}
	if m := store.movements[1]; m.ProductID != "b" || m.Quantity != -2 {
		t.Errorf("movement[1] = %s %d, want b -2", m.ProductID, m.Quantity)
	}
	for _, m := range store.movements {
		if m.Type != MovementSale {
			t.Errorf("movement type = %s, want SALE", m.Type)
		}
		if !strings.Contains(m.Reason, "(Combo Combo Familiar)") {
			t.Errorf("reason should name the combo, got %q", m.Reason)
		}
	}
	if store.products["a"].Stock != 24 || store.products["b"].Stock != 10 {
		t.Errorf("component stock = %d/%d, want 24/10",
			store.products["a"].Stock, store.products["b"].Stock)
	}
	// the combo's own nominal stock is untouched
	if store.products["combo-1"].Stock != 0 {
		t.Errorf("combo stock = %d, want 0", store.products["combo-1"].Stock)
	}
}

func TestPlaceOrderAutoDeactivation(t *testing.T) {
	store := newFakeStore(regular("last-one", "Postre", 1))
	svc := &Service{Store: store}

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentCash,
		Items:         []ItemInput{{ProductID: "last-one", Quantity: 1, Price: dec("4.00")}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	p := store.products["last-one"]
	if p.Stock != 0 {
		t.Errorf("stock = %d, want 0", p.Stock)
	}
	if p.IsActive {
		t.Error("product should be deactivated at stock 0")
	}
}

func TestPlaceOrderComboNeverDeactivated(t *testing.T) {
	combo := &catalog.Product{
		ID: "combo-1", Name: "Combo", IsCombo: true, IsActive: true,
		Components: []catalog.ComboComponent{{ProductID: "a", Quantity: 1}},
	}
	store := newFakeStore(regular("a", "Alitas", 1), combo)
	svc := &Service{Store: store}

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentCash,
		Items:         []ItemInput{{ProductID: "combo-1", Quantity: 1, Price: dec("10.00")}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if store.products["a"].IsActive {
		t.Error("depleted component should be deactivated")
	}
	if !store.products["combo-1"].IsActive {
		t.Error("combo must never be auto-deactivated")
	}
}

func TestPlaceOrderRollsBackOnFailure(t *testing.T) {
	store := newFakeStore(regular("p1", "Empanada", 10))
	store.appendErr = errors.New("ledger write failed")
	svc := &Service{Store: store}
	notif := &fakeNotifier{}
	svc.Notifier = notif

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentCash,
		Items:         []ItemInput{{ProductID: "p1", Quantity: 2, Price: dec("2.50")}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.orders) != 0 {
		t.Errorf("orders = %d, want 0 after rollback", len(store.orders))
	}
	if len(store.movements) != 0 {
		t.Errorf("movements = %d, want 0 after rollback", len(store.movements))
	}
	if store.products["p1"].Stock != 10 {
		t.Errorf("stock = %d, want unchanged 10", store.products["p1"].Stock)
	}
	if notif.orderCompleted != 0 || notif.inventoryChanged != 0 {
		t.Error("no signals may be emitted for a failed placement")
	}
}

func TestPlaceOrderSkipsMissingProduct(t *testing.T) {
	store := newFakeStore(regular("p1", "Empanada", 10))
	svc := &Service{Store: store}

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentCash,
		Items: []ItemInput{
			{ProductID: "ghost", Quantity: 1, Price: dec("5.00")},
			{ProductID: "p1", Quantity: 1, Price: dec("2.50")},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	// the missing line still counts toward the total and is persisted,
	// it just deducts nothing
	if !o.Total.Equal(dec("7.50")) {
		t.Errorf("total = %s, want 7.50", o.Total)
	}
	if len(store.movements) != 1 || store.movements[0].ProductID != "p1" {
		t.Errorf("movements = %+v, want single p1 deduction", store.movements)
	}
}

func TestPlaceOrderNotIdempotent(t *testing.T) {
	store := newFakeStore(regular("p1", "Empanada", 10))
	svc := &Service{Store: store}

	in := PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentCash,
		Items:         []ItemInput{{ProductID: "p1", Quantity: 2, Price: dec("2.50")}},
	}
	o1, err := svc.PlaceOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("first PlaceOrder: %v", err)
	}
	o2, err := svc.PlaceOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("second PlaceOrder: %v", err)
	}
	if o1.ID == o2.ID {
		t.Error("resubmission must create a distinct order")
	}
	if len(store.orders) != 2 {
		t.Errorf("orders = %d, want 2", len(store.orders))
	}
	if store.products["p1"].Stock != 6 {
		t.Errorf("stock = %d, want 6 (double deduction)", store.products["p1"].Stock)
	}
}

func TestPlaceOrderOversellTolerated(t *testing.T) {
	store := newFakeStore(regular("p1", "Empanada", 1))
	svc := &Service{Store: store}

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentCash,
		Items:         []ItemInput{{ProductID: "p1", Quantity: 3, Price: dec("2.50")}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if store.products["p1"].Stock != -2 {
		t.Errorf("stock = %d, want -2 (unconditional decrement)", store.products["p1"].Stock)
	}
	if store.products["p1"].IsActive {
		t.Error("negative stock should deactivate the product")
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	store := newFakeStore(regular("p1", "Empanada", 10))
	svc := &Service{Store: store}
	ctx := context.Background()

	if _, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: "w", PaymentMethod: PaymentCash,
	}); !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("empty cart: got %v, want ErrEmptyOrder", err)
	}

	if _, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: "w", PaymentMethod: "CHEQUE",
		Items: []ItemInput{{ProductID: "p1", Quantity: 1, Price: dec("1")}},
	}); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("bad method: got %v, want ErrInvalidPayment", err)
	}

	if _, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: "w", PaymentMethod: PaymentSplit,
		Items: []ItemInput{{ProductID: "p1", Quantity: 1, Price: dec("1")}},
	}); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("split without portions: got %v, want ErrInvalidPayment", err)
	}

	if _, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: "w", PaymentMethod: PaymentCash,
		Items: []ItemInput{{ProductID: "p1", Quantity: 0, Price: dec("1")}},
	}); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("zero quantity: got %v, want ErrInvalidItem", err)
	}

	// validation failures never touch the store
	if len(store.orders) != 0 || len(store.movements) != 0 {
		t.Error("validation errors must not write anything")
	}
}

func TestPlaceOrderEmitsSignals(t *testing.T) {
	store := newFakeStore(regular("p1", "Empanada", 10))
	notif := &fakeNotifier{}
	svc := &Service{Store: store, Notifier: notif}

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        "waiter-1",
		PaymentMethod: PaymentSplit,
		Items:         []ItemInput{{ProductID: "p1", Quantity: 1, Price: dec("10.00")}},
		PaymentDetails: PaymentDetails{
			CashAmount: decp("4.00"),
			CardAmount: decp("6.00"),
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if notif.orderCompleted != 1 {
		t.Errorf("orderCompleted signals = %d, want 1", notif.orderCompleted)
	}
	if notif.inventoryChanged != 1 {
		t.Errorf("inventoryChanged signals = %d, want 1", notif.inventoryChanged)
	}
}
