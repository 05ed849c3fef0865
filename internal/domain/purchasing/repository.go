package purchasing

import (
	"context"

	"github.com/crmhub/backend/internal/domain/shared"
)

// Repository persists purchase orders within one tenant's partition.
type Repository interface {
	// Save creates or replaces the purchase order record.
	Save(ctx context.Context, tenantID string, po *PurchaseOrder) error

	// Get returns the purchase order or shared.ErrNotFound.
	Get(ctx context.Context, tenantID, orderID string) (*PurchaseOrder, error)

	// List pages through the tenant's purchase orders.
	List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*PurchaseOrder], error)
}
