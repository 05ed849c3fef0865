// Package purchasing implements purchase order use cases, including
// the stock credit on receipt.
package purchasing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crmhub/backend/internal/domain/catalog"
	"github.com/crmhub/backend/internal/domain/purchasing"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/logger"
)

// OrderItemInput is one requested line on a new purchase order.
type OrderItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreateOrderInput carries a new purchase order.
type CreateOrderInput struct {
	SupplierName string
	Items        []OrderItemInput
	TotalCost    *decimal.Decimal
	Notes        string
}

// UpdateOrderInput patches the mutable purchase order fields.
type UpdateOrderInput struct {
	Status *string
	Notes  *string
}

// Service handles purchase order lifecycle operations.
type Service struct {
	orders   purchasing.Repository
	products catalog.ProductRepository
}

// NewService creates the purchasing service.
func NewService(orders purchasing.Repository, products catalog.ProductRepository) *Service {
	return &Service{orders: orders, products: products}
}

// CreateOrder opens a draft purchase order.
func (s *Service) CreateOrder(ctx context.Context, tenantID string, input CreateOrderInput) (*purchasing.PurchaseOrder, error) {
	items := make([]purchasing.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, purchasing.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
	}
	po, err := purchasing.NewPurchaseOrder(input.SupplierName, items, input.TotalCost)
	if err != nil {
		return nil, err
	}
	po.Notes = input.Notes

	if err := s.orders.Save(ctx, tenantID, po); err != nil {
		return nil, err
	}
	return po, nil
}

// GetOrder returns one purchase order or shared.ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, tenantID, orderID string) (*purchasing.PurchaseOrder, error) {
	return s.orders.Get(ctx, tenantID, orderID)
}

// ListOrders pages the tenant's purchase orders, optionally filtered by
// status. The filter applies within the fetched page, so filtered pages
// can run short; the cursor stays valid regardless.
func (s *Service) ListOrders(ctx context.Context, tenantID, status string, limit int, cursor string) (shared.Page[*purchasing.PurchaseOrder], error) {
	page, err := s.orders.List(ctx, tenantID, limit, cursor)
	if err != nil {
		return shared.Page[*purchasing.PurchaseOrder]{}, err
	}
	if status == "" {
		return page, nil
	}
	filtered := make([]*purchasing.PurchaseOrder, 0, len(page.Items))
	for _, po := range page.Items {
		if string(po.Status) == status {
			filtered = append(filtered, po)
		}
	}
	page.Items = filtered
	return page, nil
}

// UpdateOrder patches notes and moves the order through its status
// machine. Entering received credits each line's quantity back to
// stock; the credits are best-effort and independent, a failed line is
// logged and skipped while the order still becomes received.
func (s *Service) UpdateOrder(ctx context.Context, tenantID, orderID string, input UpdateOrderInput) (*purchasing.PurchaseOrder, error) {
	po, err := s.orders.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	creditStock := false
	if input.Status != nil {
		target := purchasing.Status(*input.Status)
		if err := po.TransitionTo(target); err != nil {
			return nil, err
		}
		// only the transition itself credits, never a re-application
		creditStock = target == purchasing.StatusReceived
	}
	if input.Notes != nil {
		po.Notes = *input.Notes
		po.UpdatedAt = shared.NowISO()
	}

	if err := s.orders.Save(ctx, tenantID, po); err != nil {
		return nil, err
	}

	if creditStock {
		s.creditReceivedStock(ctx, tenantID, po)
	}
	return po, nil
}

func (s *Service) creditReceivedStock(ctx context.Context, tenantID string, po *purchasing.PurchaseOrder) {
	for _, item := range po.Items {
		if err := s.products.AddQuantity(ctx, tenantID, item.ProductID, item.Quantity); err != nil {
			logger.L(ctx).Warn("stock credit for received purchase order failed",
				zap.String("purchase_order_id", po.ID),
				zap.String("product_id", item.ProductID),
				zap.Int64("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}
