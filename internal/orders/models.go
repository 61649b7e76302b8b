package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

// Orders are completed the moment they are placed; there is no pending or
// cancelled state in this flow.
const StatusCompleted Status = "COMPLETED"

type Order struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	Status        Status           `json:"status"`
	CashReceived  *decimal.Decimal `json:"cash_received,omitempty"`
	ChangeGiven   *decimal.Decimal `json:"change_given,omitempty"`
	CashAmount    *decimal.Decimal `json:"cash_amount,omitempty"`
	CardAmount    *decimal.Decimal `json:"card_amount,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Items         []OrderItem      `json:"items"`
}

// OrderItem records quantity and unit price at time of sale. Immutable once
// written.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type MovementType string

const MovementSale MovementType = "SALE"

// StockMovement is one row of the append-only inventory ledger. Quantity is
// signed: sales are negative. Never updated or deleted.
type StockMovement struct {
	ID        string       `json:"id"`
	ProductID string       `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Type      MovementType `json:"type"`
	Reason    string       `json:"reason"`
	CreatedAt time.Time    `json:"created_at"`
}
