package catalog

import (
	"context"

	"github.com/crmhub/backend/internal/domain/shared"
)

// ProductRepository persists products within one tenant's partition.
type ProductRepository interface {
	// Save creates or replaces the product record.
	Save(ctx context.Context, tenantID string, product *Product) error

	// Get returns the product or shared.ErrNotFound.
	Get(ctx context.Context, tenantID, productID string) (*Product, error)

	// Delete removes the product or returns shared.ErrNotFound.
	Delete(ctx context.Context, tenantID, productID string) error

	// List pages through the tenant's products in sort-key order.
	List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*Product], error)

	// ListByCategory returns all products filed under a category.
	ListByCategory(ctx context.Context, tenantID, category string) ([]*Product, error)

	// ListAll walks every product of the tenant. Used by aggregate
	// reports; pages internally.
	ListAll(ctx context.Context, tenantID string) ([]*Product, error)

	// AddQuantity adjusts on-hand stock without a guard. A missing
	// product returns shared.ErrNotFound.
	AddQuantity(ctx context.Context, tenantID, productID string, delta int64) error
}
