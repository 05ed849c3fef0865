// Package inventory implements product catalog and stock use cases.
package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/crmhub/backend/internal/domain/catalog"
	"github.com/crmhub/backend/internal/domain/shared"
)

// CreateProductInput carries a new product definition.
type CreateProductInput struct {
	Name             string
	Category         string
	Quantity         int64
	UnitCost         *decimal.Decimal
	ReorderThreshold *int64
	Unit             string
	SKU              string
	SupplierID       string
	Notes            string
}

// UpdateProductInput patches product fields. Nil pointers leave the
// field untouched.
type UpdateProductInput struct {
	Name             *string
	Category         *string
	Quantity         *int64
	UnitCost         *decimal.Decimal
	ReorderThreshold *int64
	Unit             *string
	SKU              *string
	SupplierID       *string
	Notes            *string
}

// Service handles product catalog operations.
type Service struct {
	products catalog.ProductRepository
}

// NewService creates the inventory service.
func NewService(products catalog.ProductRepository) *Service {
	return &Service{products: products}
}

// CreateProduct adds a product to the tenant's catalog.
func (s *Service) CreateProduct(ctx context.Context, tenantID string, input CreateProductInput) (*catalog.Product, error) {
	product, err := catalog.NewProduct(input.Name, input.Quantity)
	if err != nil {
		return nil, err
	}
	product.Category = input.Category
	product.UnitCost = input.UnitCost
	if input.ReorderThreshold != nil {
		product.ReorderThreshold = *input.ReorderThreshold
	}
	if input.Unit != "" {
		product.Unit = input.Unit
	}
	product.SKU = input.SKU
	product.SupplierID = input.SupplierID
	product.Notes = input.Notes
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, tenantID, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct returns one product or shared.ErrNotFound.
func (s *Service) GetProduct(ctx context.Context, tenantID, productID string) (*catalog.Product, error) {
	return s.products.Get(ctx, tenantID, productID)
}

// UpdateProduct patches a product. Quantity set through here is an
// absolute overwrite for corrections; sales go through the ledger's
// guarded decrements instead.
func (s *Service) UpdateProduct(ctx context.Context, tenantID, productID string, input UpdateProductInput) (*catalog.Product, error) {
	product, err := s.products.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.UnitCost != nil {
		product.UnitCost = input.UnitCost
	}
	if input.ReorderThreshold != nil {
		product.ReorderThreshold = *input.ReorderThreshold
	}
	if input.Unit != nil {
		product.Unit = *input.Unit
	}
	if input.SKU != nil {
		product.SKU = *input.SKU
	}
	if input.SupplierID != nil {
		product.SupplierID = *input.SupplierID
	}
	if input.Notes != nil {
		product.Notes = *input.Notes
	}
	product.UpdatedAt = shared.NowISO()
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, tenantID, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog.
func (s *Service) DeleteProduct(ctx context.Context, tenantID, productID string) error {
	return s.products.Delete(ctx, tenantID, productID)
}

// ListProducts pages the tenant's catalog.
func (s *Service) ListProducts(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*catalog.Product], error) {
	return s.products.List(ctx, tenantID, limit, cursor)
}

// ListByCategory returns the products in one category.
func (s *Service) ListByCategory(ctx context.Context, tenantID, category string) ([]*catalog.Product, error) {
	if category == "" {
		return nil, shared.NewValidationError("category", "is required")
	}
	return s.products.ListByCategory(ctx, tenantID, category)
}

// AdjustQuantity applies a signed stock correction.
func (s *Service) AdjustQuantity(ctx context.Context, tenantID, productID string, delta int64) (*catalog.Product, error) {
	if delta == 0 {
		return nil, shared.NewValidationError("delta", "must not be zero")
	}
	if err := s.products.AddQuantity(ctx, tenantID, productID, delta); err != nil {
		return nil, err
	}
	return s.products.Get(ctx, tenantID, productID)
}

// LowStock returns the products at or below their reorder threshold.
func (s *Service) LowStock(ctx context.Context, tenantID string) ([]*catalog.Product, error) {
	all, err := s.products.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	low := make([]*catalog.Product, 0)
	for _, p := range all {
		if p.IsLowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}
