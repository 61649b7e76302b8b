package sales

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"resto-pos/internal/orders"
)

// OrderRow is one completed sale as the history view needs it: payment
// breakdown plus the waiter's name and the line items.
type OrderRow struct {
	ID            string               `json:"id"`
	Total         decimal.Decimal      `json:"total"`
	PaymentMethod orders.PaymentMethod `json:"payment_method"`
	CashReceived  *decimal.Decimal     `json:"cash_received,omitempty"`
	ChangeGiven   *decimal.Decimal     `json:"change_given,omitempty"`
	CashAmount    *decimal.Decimal     `json:"cash_amount,omitempty"`
	CardAmount    *decimal.Decimal     `json:"card_amount,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	WaiterName    string               `json:"waiter_name"`
	Items         []LineRow            `json:"items"`
}

type LineRow struct {
	ID          string          `json:"id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type Summary struct {
	Total decimal.Decimal `json:"total"`
	Cash  decimal.Decimal `json:"cash"`
	Card  decimal.Decimal `json:"card"`
	Count int             `json:"count"`
}

// Summarize buckets every order into cash and card exactly once: EFECTIVO
// counts fully as cash, TARJETA fully as card, MIXTO is split by its stored
// portions (never double-counted as both).
func Summarize(rows []OrderRow) Summary {
	s := Summary{Total: decimal.Zero, Cash: decimal.Zero, Card: decimal.Zero}
	for _, r := range rows {
		s.Count++
		s.Total = s.Total.Add(r.Total)
		switch r.PaymentMethod {
		case orders.PaymentCash:
			s.Cash = s.Cash.Add(r.Total)
		case orders.PaymentCard:
			s.Card = s.Card.Add(r.Total)
		case orders.PaymentSplit:
			if r.CashAmount != nil {
				s.Cash = s.Cash.Add(*r.CashAmount)
			}
			if r.CardAmount != nil {
				s.Card = s.Card.Add(*r.CardAmount)
			}
		}
	}
	return s
}

type Repo struct{ DB *pgxpool.Pool }

// History returns completed orders between from and to (both widened to
// whole days), newest first.
func (r *Repo) History(ctx context.Context, from, to time.Time) ([]OrderRow, error) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)

	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.total, o.payment_method,
		       o.cash_received, o.change_given, o.cash_amount, o.card_amount,
		       o.created_at, COALESCE(u.name,'')
		FROM orders o LEFT JOIN users u ON u.id = o.user_id
		WHERE o.created_at >= $1 AND o.created_at < $2 AND o.status = $3
		ORDER BY o.created_at DESC`, start, end, orders.StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRow
	byID := map[string]*OrderRow{}
	for rows.Next() {
		var o OrderRow
		if err := rows.Scan(&o.ID, &o.Total, &o.PaymentMethod,
			&o.CashReceived, &o.ChangeGiven, &o.CashAmount, &o.CardAmount,
			&o.CreatedAt, &o.WaiterName); err != nil {
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
	irows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, COALESCE(p.name,''), oi.quantity, oi.price
		FROM order_items oi LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var orderID string
		var it LineRow
		if err := irows.Scan(&it.ID, &orderID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		if o := byID[orderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return out, irows.Err()
}
