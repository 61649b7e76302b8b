package catalog

// Deduction is one (product, quantity) pair to take out of stock.
type Deduction struct {
	ProductID string
	Quantity  int
}

// ResolveDeductions expands a cart line into its effective deduction set.
// A combo with at least one component yields one deduction per component,
// multiplied by the line quantity and preserving declaration order. Anything
// else (regular product, or a combo with no components) deducts itself.
// Resolution is single-level: components are never expanded further; a combo
// of combos is rejected when the composition is edited (see Repo).
func ResolveDeductions(p *Product, qty int) []Deduction {
	if p.IsCombo && len(p.Components) > 0 {
		out := make([]Deduction, 0, len(p.Components))
		for _, c := range p.Components {
			out = append(out, Deduction{ProductID: c.ProductID, Quantity: c.Quantity * qty})
		}
		return out
	}
	return []Deduction{{ProductID: p.ID, Quantity: qty}}
}

// EffectiveStock is the sellable quantity of a product. For a regular product
// that is its stored stock. For a combo it is derived at display time: the
// minimum over components of floor(component stock / multiplier), and 0 if
// any component is inactive or the combo has no components. Not
// transactionally enforced; oversell between display and sale is tolerated.
func EffectiveStock(p *Product) int {
	if !p.IsCombo {
		return p.Stock
	}
	if len(p.Components) == 0 {
		return 0
	}
	min := -1
	for _, c := range p.Components {
		if !c.IsActive || c.Stock <= 0 || c.Quantity <= 0 {
			return 0
		}
		n := c.Stock / c.Quantity
		if min < 0 || n < min {
			min = n
		}
	}
	if min < 0 {
		return 0
	}
	return min
}
