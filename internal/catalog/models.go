package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrNestedCombo = errors.New("combo component cannot be a combo")
)

// Product is a sellable catalog entry. A combo stores a nominal stock of 0;
// its real availability is derived from its components (see EffectiveStock).
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	IsActive    bool            `json:"is_active"`
	IsCombo     bool            `json:"is_combo"`
	CategoryID  string          `json:"category_id"`
	Category    string          `json:"category,omitempty"`
	Components  []ComboComponent `json:"combo_items,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ComboComponent links a combo to one constituent product. Quantity is the
// multiplier consumed per combo unit sold. The component's own stock/active
// state rides along for availability math.
type ComboComponent struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name,omitempty"`
	Stock     int    `json:"stock,omitempty"`
	IsActive  bool   `json:"is_active,omitempty"`
	IsCombo   bool   `json:"-"`
}
