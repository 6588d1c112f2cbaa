package catalog

// Product is a normalized catalog record. Products are rebuilt from the raw
// dataset on every load and never mutated in place afterward; stock changes
// are written as overrides and show up after the overrides are re-applied.
type Product struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Stock          int     `json:"stock"`
	ShelfStock     int     `json:"shelfStock"`
	WarehouseStock int     `json:"warehouseStock"`
	Category       string  `json:"category"`
	Image          string  `json:"image"`
	Index          int     `json:"index"`
}

// Patch is a partial product override. Only set fields are merged; today
// checkout writes stock, but the merge accepts any of these.
type Patch struct {
	Name     *string  `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Stock    *int     `json:"stock,omitempty"`
	Category *string  `json:"category,omitempty"`
	Image    *string  `json:"image,omitempty"`
}

// Overrides maps product id to its persisted patch. Entries accumulate for
// the lifetime of the store; nothing ever deletes them.
type Overrides map[string]Patch

// OverrideStore persists the override mapping between catalog loads.
type OverrideStore interface {
	Load() (Overrides, error)
	Save(Overrides) error
}

// withPatch returns a copy of p with the patch fields merged over it.
// The patched stock is clamped at zero.
func (p Product) withPatch(patch Patch) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
	return p
}

// ApplyOverrides merges persisted patches over freshly normalized products.
// Products without an override pass through unchanged. Pure: the input slice
// is not modified.
func ApplyOverrides(products []Product, overrides Overrides) []Product {
	if len(products) == 0 {
		return products
	}

	merged := make([]Product, len(products))
	for i, p := range products {
		if patch, ok := overrides[p.ID]; ok {
			merged[i] = p.withPatch(patch)
		} else {
			merged[i] = p
		}
	}
	return merged
}
