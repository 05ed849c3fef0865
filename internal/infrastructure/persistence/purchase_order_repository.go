package persistence

import (
	"context"

	"github.com/crmhub/backend/internal/domain/purchasing"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// StorePurchaseOrderRepository implements purchasing.Repository.
type StorePurchaseOrderRepository struct {
	store store.Store
}

// NewStorePurchaseOrderRepository creates a purchase order repository.
func NewStorePurchaseOrderRepository(s store.Store) *StorePurchaseOrderRepository {
	return &StorePurchaseOrderRepository{store: s}
}

var _ purchasing.Repository = (*StorePurchaseOrderRepository)(nil)

func (r *StorePurchaseOrderRepository) Save(ctx context.Context, tenantID string, po *purchasing.PurchaseOrder) error {
	attrs, err := encodeAttributes(po)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.Put(ctx, &store.Item{
		PK:         tenantPK(tenantID),
		SK:         orderSK(po.ID),
		EntityType: typePurchaseOrder,
		Attributes: attrs,
	}))
}

func (r *StorePurchaseOrderRepository) Get(ctx context.Context, tenantID, orderID string) (*purchasing.PurchaseOrder, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), orderSK(orderID))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[purchasing.PurchaseOrder](item)
}

func (r *StorePurchaseOrderRepository) List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*purchasing.PurchaseOrder], error) {
	items, next, err := r.store.Query(ctx, tenantPK(tenantID), store.QueryOptions{
		Prefix: orderPrefix,
		Limit:  shared.ClampPageSize(limit),
		Cursor: cursor,
	})
	if err != nil {
		return shared.Page[*purchasing.PurchaseOrder]{}, mapStoreErr(err)
	}
	orders := make([]*purchasing.PurchaseOrder, 0, len(items))
	for i := range items {
		po, err := decodeAttributes[purchasing.PurchaseOrder](&items[i])
		if err != nil {
			return shared.Page[*purchasing.PurchaseOrder]{}, err
		}
		orders = append(orders, po)
	}
	return shared.Page[*purchasing.PurchaseOrder]{Items: orders, NextCursor: next}, nil
}
