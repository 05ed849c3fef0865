// Package catalog holds the product entity backing inventory tracking.
package catalog

import (
	"strings"

	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Defaults applied when a product is created without explicit values.
const (
	DefaultReorderThreshold = int64(10)
	DefaultUnit             = "each"
)

// Product is a stocked item. Quantity is the on-hand count; it is only
// ever changed through guarded ledger writes, never by blind overwrite
// on the sale path.
type Product struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Category         string           `json:"category,omitempty"`
	Quantity         int64            `json:"quantity"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	ReorderThreshold int64            `json:"reorder_threshold"`
	Unit             string           `json:"unit"`
	SKU              string           `json:"sku,omitempty"`
	SupplierID       string           `json:"supplier_id,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at,omitempty"`
}

// NewProduct creates a product with defaults applied and an assigned ID.
func NewProduct(name string, quantity int64) (*Product, error) {
	p := &Product{
		ID:               shared.NewID(),
		Name:             strings.TrimSpace(name),
		Quantity:         quantity,
		ReorderThreshold: DefaultReorderThreshold,
		Unit:             DefaultUnit,
		CreatedAt:        shared.NowISO(),
	}
	p.UpdatedAt = p.CreatedAt
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the product invariants.
func (p *Product) Validate() error {
	if p.ID == "" {
		return shared.NewValidationError("id", "is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return shared.NewValidationError("name", "is required")
	}
	if p.Quantity < 0 {
		return shared.NewValidationError("quantity", "cannot be negative")
	}
	if p.ReorderThreshold < 0 {
		return shared.NewValidationError("reorder_threshold", "cannot be negative")
	}
	if p.UnitCost != nil && p.UnitCost.IsNegative() {
		return shared.NewValidationError("unit_cost", "cannot be negative")
	}
	return nil
}

// IsLowStock reports whether the on-hand quantity has reached the
// reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.ReorderThreshold
}

// StockValue returns quantity times unit cost, zero when no cost is set.
func (p *Product) StockValue() decimal.Decimal {
	if p.UnitCost == nil {
		return decimal.Zero
	}
	return p.UnitCost.Mul(decimal.NewFromInt(p.Quantity))
}

func (p *Product) GetID() string        { return p.ID }
func (p *Product) GetCreatedAt() string { return p.CreatedAt }
