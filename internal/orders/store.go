package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resto-pos/internal/catalog"
	"resto-pos/internal/postgres"
)

// PgStore runs order placements against Postgres inside a bounded
// transaction (max connection wait + max execution time).
type PgStore struct {
	DB     *pgxpool.Pool
	Limits postgres.Limits
}

func (s *PgStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return postgres.RunInTx(ctx, s.DB, s.Limits, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx})
	})
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, total, payment_method, status,
		                   cash_received, change_given, cash_amount, card_amount, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.UserID, o.Total, o.PaymentMethod, o.Status,
		o.CashReceived, o.ChangeGiven, o.CashAmount, o.CardAmount, o.CreatedAt)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity, price)
			VALUES ($1,$2,$3,$4,$5)`,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) ProductForSale(ctx context.Context, productID string) (*catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, stock, is_combo, is_active FROM products WHERE id=$1`,
		productID).Scan(&p.ID, &p.Name, &p.Stock, &p.IsCombo, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.IsCombo {
		return &p, nil
	}
	rows, err := t.tx.Query(ctx, `
		SELECT product_id, quantity FROM combo_items
		WHERE combo_id=$1 ORDER BY position`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c catalog.ComboComponent
		if err := rows.Scan(&c.ProductID, &c.Quantity); err != nil {
			return nil, err
		}
		p.Components = append(p.Components, c)
	}
	return &p, rows.Err()
}

// DecrementStock is a single unconditional UPDATE; no row lock, no floor.
// Concurrent sales of the same product can drive stock negative, which the
// business tolerates (availability is checked at display time).
func (t *pgTx) DecrementStock(ctx context.Context, productID string, qty int) (*catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id=$1
		RETURNING id, name, stock, is_combo, is_active`,
		productID, qty).Scan(&p.ID, &p.Name, &p.Stock, &p.IsCombo, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) DeactivateProduct(ctx context.Context, productID string) error {
	_, err := t.tx.Exec(ctx, `UPDATE products SET is_active=false, updated_at=now() WHERE id=$1`, productID)
	return err
}

func (t *pgTx) AppendMovement(ctx context.Context, m *StockMovement) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements(id, product_id, quantity, type, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		m.ID, m.ProductID, m.Quantity, m.Type, m.Reason, m.CreatedAt)
	return err
}

// List returns orders newest first, optionally filtered by waiter.
func (s *PgStore) List(ctx context.Context, userID string) ([]Order, error) {
	q := `SELECT id, user_id, total, payment_method, status,
	             cash_received, change_given, cash_amount, card_amount, created_at
	      FROM orders`
	args := []any{}
	if userID != "" {
		q += ` WHERE user_id=$1`
		args = append(args, userID)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	byID := map[string]*Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.PaymentMethod, &o.Status,
			&o.CashReceived, &o.ChangeGiven, &o.CashAmount, &o.CardAmount, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
		byID[o.ID] = &out[len(out)-1]
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for i := range out {
		ids = append(ids, out[i].ID)
	}
	irows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var it OrderItem
		if err := irows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return out, irows.Err()
}
