package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

type ComponentInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ProductInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Stock       int              `json:"stock"`
	MinStock    int              `json:"min_stock"`
	IsActive    bool             `json:"is_active"`
	IsCombo     bool             `json:"is_combo"`
	CategoryID  string           `json:"category_id"`
	Components  []ComponentInput `json:"combo_items"`
}

const productCols = `p.id, p.name, COALESCE(p.description,''), p.price, p.stock, p.min_stock,
	p.is_active, p.is_combo, p.category_id, COALESCE(c.name,''), p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.MinStock,
		&p.IsActive, &p.IsCombo, &p.CategoryID, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context, activeOnly bool) ([]Product, error) {
	q := `SELECT ` + productCols + `
	      FROM products p LEFT JOIN categories c ON c.id = p.category_id`
	if activeOnly {
		q += ` WHERE p.is_active`
	}
	q += ` ORDER BY p.name`

	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	byID := map[string]*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
		byID[p.ID] = &out[len(out)-1]
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	comboIDs := make([]string, 0)
	for i := range out {
		if out[i].IsCombo {
			comboIDs = append(comboIDs, out[i].ID)
		}
	}
	if len(comboIDs) == 0 {
		return out, nil
	}

	crows, err := r.DB.Query(ctx, `
		SELECT ci.combo_id, ci.product_id, ci.quantity, p.name, p.stock, p.is_active, p.is_combo
		FROM combo_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.combo_id = ANY($1)
		ORDER BY ci.combo_id, ci.position`, comboIDs)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var comboID string
		var c ComboComponent
		if err := crows.Scan(&comboID, &c.ProductID, &c.Quantity, &c.Name, &c.Stock, &c.IsActive, &c.IsCombo); err != nil {
			return nil, err
		}
		if p := byID[comboID]; p != nil {
			p.Components = append(p.Components, c)
		}
	}
	return out, crows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		SELECT `+productCols+`
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.IsCombo {
		if p.Components, err = r.components(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (r *Repo) components(ctx context.Context, comboID string) ([]ComboComponent, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.product_id, ci.quantity, p.name, p.stock, p.is_active, p.is_combo
		FROM combo_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.combo_id = $1
		ORDER BY ci.position`, comboID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ComboComponent
	for rows.Next() {
		var c ComboComponent
		if err := rows.Scan(&c.ProductID, &c.Quantity, &c.Name, &c.Stock, &c.IsActive, &c.IsCombo); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// validateComponents enforces the edit-time rule: every component must exist
// and must not itself be a combo (resolution is single-level).
func (r *Repo) validateComponents(ctx context.Context, tx pgx.Tx, comps []ComponentInput) error {
	ids := make([]string, 0, len(comps))
	for _, c := range comps {
		if c.Quantity < 1 {
			return fmt.Errorf("component %s: quantity must be >= 1", c.ProductID)
		}
		ids = append(ids, c.ProductID)
	}
	rows, err := tx.Query(ctx, `SELECT id, is_combo FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	isCombo := map[string]bool{}
	for rows.Next() {
		var id string
		var combo bool
		if err := rows.Scan(&id, &combo); err != nil {
			return err
		}
		isCombo[id] = combo
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, c := range comps {
		combo, ok := isCombo[c.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, c.ProductID)
		}
		if combo {
			return fmt.Errorf("%w: %s", ErrNestedCombo, c.ProductID)
		}
	}
	return nil
}

// Create inserts a product and, for combos, its component list. A combo
// always stores nominal stock 0; availability is derived when reading.
func (r *Repo) Create(ctx context.Context, in ProductInput) (*Product, error) {
	id := uuid.NewString()
	stock := in.Stock
	if in.IsCombo {
		stock = 0
	}
	minStock := in.MinStock
	if minStock == 0 {
		minStock = 5
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO products(id, name, description, price, stock, min_stock, is_active, is_combo, category_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		id, in.Name, in.Description, in.Price, stock, minStock, in.IsActive, in.IsCombo, in.CategoryID)
	if err != nil {
		return nil, err
	}

	if in.IsCombo && len(in.Components) > 0 {
		if err := r.validateComponents(ctx, tx, in.Components); err != nil {
			return nil, err
		}
		if err := insertComponents(ctx, tx, id, in.Components); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update rewrites the product row; when the product is a combo and a
// component list is supplied, the composition is replaced wholesale.
func (r *Repo) Update(ctx context.Context, id string, in ProductInput) (*Product, error) {
	stock := in.Stock
	if in.IsCombo {
		stock = 0
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4, stock=$5, min_stock=$6,
		    is_active=$7, is_combo=$8, category_id=$9, updated_at=now()
		WHERE id=$1`,
		id, in.Name, in.Description, in.Price, stock, in.MinStock, in.IsActive, in.IsCombo, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if in.IsCombo && in.Components != nil {
		if err := r.validateComponents(ctx, tx, in.Components); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM combo_items WHERE combo_id=$1`, id); err != nil {
			return nil, err
		}
		if err := insertComponents(ctx, tx, id, in.Components); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func insertComponents(ctx context.Context, tx pgx.Tx, comboID string, comps []ComponentInput) error {
	for i, c := range comps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO combo_items(id, combo_id, product_id, quantity, position)
			VALUES ($1,$2,$3,$4,$5)`,
			uuid.NewString(), comboID, c.ProductID, c.Quantity, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
