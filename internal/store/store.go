// Package store provides an interface for product storage operations.
package store

import "context"

// Product is the canonical inventory/sales record. Monetary amounts are
// minor-unit UGX integers; ProfitMargin is derived from the cost fields and
// is never accepted from callers directly.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	WholesaleCost int64   `json:"wholesaleCost"`
	RetailCost    int64   `json:"retailCost"`
	Stock         int64   `json:"stock"`
	Sold          int64   `json:"sold"`
	ProfitMargin  float64 `json:"profitMargin"`
	SKU           string  `json:"sku,omitempty"`
	Supplier      string  `json:"supplier,omitempty"`
	Description   string  `json:"description,omitempty"`
	LastRestock   string  `json:"lastRestock,omitempty"`
	ReorderPoint  int64   `json:"reorderPoint,omitempty"`
}

// ProductPatch carries a partial update. Nil fields are left untouched.
// ProfitMargin is intentionally absent: it is recomputed whenever a cost
// field changes.
type ProductPatch struct {
	Name          *string `json:"name,omitempty"`
	Category      *string `json:"category,omitempty"`
	WholesaleCost *int64  `json:"wholesaleCost,omitempty"`
	RetailCost    *int64  `json:"retailCost,omitempty"`
	Stock         *int64  `json:"stock,omitempty"`
	Sold          *int64  `json:"sold,omitempty"`
	SKU           *string `json:"sku,omitempty"`
	Supplier      *string `json:"supplier,omitempty"`
	Description   *string `json:"description,omitempty"`
	LastRestock   *string `json:"lastRestock,omitempty"`
	ReorderPoint  *int64  `json:"reorderPoint,omitempty"`
}

// AdjustReason distinguishes the two stock-adjustment flows.
type AdjustReason string

const (
	ReasonRestock AdjustReason = "restock"
	ReasonSale    AdjustReason = "sale"
)

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different
// implementations (e.g., JSON file, database).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// List returns a snapshot of all products in insertion order.
	// Returns an empty slice if no products exist.
	List(ctx context.Context) ([]Product, error)

	// Create assigns a fresh ID to the product, persists it and returns
	// the stored record.
	Create(ctx context.Context, product Product) (*Product, error)

	// Update merges the patch onto the existing record (the ID is never
	// overwritten), recomputing the profit margin when a cost field changed.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, patch ProductPatch) (*Product, error)

	// Delete removes and returns the record.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Delete(ctx context.Context, id int64) (*Product, error)

	// AdjustStock applies a restock (stock += |delta|) or a sale
	// (stock -= delta; sold += delta) as a single step. A sale exceeding the
	// available stock fails with ErrInsufficientStock and leaves the record
	// unchanged.
	AdjustStock(ctx context.Context, id int64, delta int64, reason AdjustReason) (*Product, error)
}

// Margin computes the profit margin percentage for a pair of cost fields.
// A zero retail cost yields 0 rather than a division error.
func Margin(wholesale, retail int64) float64 {
	if retail <= 0 {
		return 0
	}
	return float64(retail-wholesale) / float64(retail) * 100
}

// applyPatch merges patch fields onto p and recomputes the margin when
// either cost field changed. Shared by the store implementations so the
// merge semantics cannot drift between them.
func applyPatch(p *Product, patch ProductPatch) {
	costChanged := false
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.WholesaleCost != nil {
		p.WholesaleCost = *patch.WholesaleCost
		costChanged = true
	}
	if patch.RetailCost != nil {
		p.RetailCost = *patch.RetailCost
		costChanged = true
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Sold != nil {
		p.Sold = *patch.Sold
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Supplier != nil {
		p.Supplier = *patch.Supplier
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.LastRestock != nil {
		p.LastRestock = *patch.LastRestock
	}
	if patch.ReorderPoint != nil {
		p.ReorderPoint = *patch.ReorderPoint
	}
	if costChanged {
		p.ProfitMargin = Margin(p.WholesaleCost, p.RetailCost)
	}
}
