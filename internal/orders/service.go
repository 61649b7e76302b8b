package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"resto-pos/internal/catalog"
)

var (
	ErrEmptyOrder     = errors.New("order has no items")
	ErrInvalidPayment = errors.New("invalid payment")
	ErrInvalidItem    = errors.New("invalid order item")
)

// Tx is the narrow store contract order placement runs against. Every call
// belongs to the same transaction; if any of them errors the whole
// placement rolls back.
type Tx interface {
	// InsertOrder persists the order header and all its items as one write.
	InsertOrder(ctx context.Context, o *Order) error
	// ProductForSale reads a product with its combo components, in
	// declaration order. Returns catalog.ErrNotFound when it does not exist.
	ProductForSale(ctx context.Context, productID string) (*catalog.Product, error)
	// DecrementStock unconditionally takes qty out of stock and returns the
	// post-decrement product state. May drive stock negative.
	DecrementStock(ctx context.Context, productID string, qty int) (*catalog.Product, error)
	DeactivateProduct(ctx context.Context, productID string) error
	// AppendMovement writes one immutable ledger row.
	AppendMovement(ctx context.Context, m *StockMovement) error
}

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Notifier receives the post-commit invalidation signals. The core only
// emits; reacting (cache drops, view refreshes) happens elsewhere.
type Notifier interface {
	OrderCompleted(ctx context.Context, o *Order)
	InventoryChanged(ctx context.Context, orderID string)
}

type ItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type PlaceOrderInput struct {
	UserID        string        `json:"user_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Items         []ItemInput   `json:"items"`
	PaymentDetails
}

type Service struct {
	Store    Store
	Notifier Notifier
}

// PlaceOrder creates the order, expands combos, decrements stock and writes
// the ledger, all inside one bounded transaction. On any failure nothing
// persists. Not idempotent: calling twice with the same input creates two
// orders and deducts stock twice.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := ValidatePayment(in.PaymentMethod, in.PaymentDetails); err != nil {
		return nil, err
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be >= 1 for product %s", ErrInvalidItem, it.ProductID)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: negative price for product %s", ErrInvalidItem, it.ProductID)
		}
	}

	// Total from caller-supplied prices, decimal all the way.
	total := decimal.Zero
	for _, it := range in.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	order := &Order{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Total:         total,
		PaymentMethod: in.PaymentMethod,
		Status:        StatusCompleted,
		CashReceived:  in.CashReceived,
		ChangeGiven:   in.ChangeGiven,
		CashAmount:    in.CashAmount,
		CardAmount:    in.CardAmount,
		CreatedAt:     time.Now().UTC(),
	}
	for _, it := range in.Items {
		order.Items = append(order.Items, OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	err := s.Store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, it := range in.Items {
			p, err := tx.ProductForSale(ctx, it.ProductID)
			if errors.Is(err, catalog.ErrNotFound) {
				// Tolerated: the line contributes nothing to stock.
				log.Printf("order %s: product %s not found, line skipped", order.ID, it.ProductID)
				continue
			}
			if err != nil {
				return err
			}
			for _, d := range catalog.ResolveDeductions(p, it.Quantity) {
				post, err := tx.DecrementStock(ctx, d.ProductID, d.Quantity)
				if err != nil {
					return err
				}
				// Combos keep their nominal 0 stock and are never
				// deactivated by depletion.
				if !post.IsCombo && post.Stock <= 0 {
					if err := tx.DeactivateProduct(ctx, d.ProductID); err != nil {
						return err
					}
				}
				if err := tx.AppendMovement(ctx, &StockMovement{
					ID:        uuid.NewString(),
					ProductID: d.ProductID,
					Quantity:  -d.Quantity,
					Type:      MovementSale,
					Reason:    movementReason(order.ID, p, d.ProductID),
					CreatedAt: time.Now().UTC(),
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.OrderCompleted(ctx, order)
		s.Notifier.InventoryChanged(ctx, order.ID)
	}
	return order, nil
}

func movementReason(orderID string, sold *catalog.Product, deductedID string) string {
	if sold.ID != deductedID {
		return fmt.Sprintf("Venta #%s (Combo %s)", orderID, sold.Name)
	}
	return fmt.Sprintf("Venta #%s", orderID)
}
