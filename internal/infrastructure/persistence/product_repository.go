package persistence

import (
	"context"

	"github.com/crmhub/backend/internal/domain/catalog"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// StoreProductRepository implements catalog.ProductRepository on the
// keyed store. The on-hand quantity is promoted into the quantity
// column so ledger writes can guard it.
type StoreProductRepository struct {
	store store.Store
}

// NewStoreProductRepository creates a product repository.
func NewStoreProductRepository(s store.Store) *StoreProductRepository {
	return &StoreProductRepository{store: s}
}

var _ catalog.ProductRepository = (*StoreProductRepository)(nil)

func (r *StoreProductRepository) Save(ctx context.Context, tenantID string, product *catalog.Product) error {
	item, err := encodeProduct(tenantID, product)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.Put(ctx, item))
}

func (r *StoreProductRepository) Get(ctx context.Context, tenantID, productID string) (*catalog.Product, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), productSK(productID))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeProduct(item)
}

func (r *StoreProductRepository) Delete(ctx context.Context, tenantID, productID string) error {
	return mapStoreErr(r.store.Delete(ctx, tenantPK(tenantID), productSK(productID)))
}

func (r *StoreProductRepository) List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*catalog.Product], error) {
	items, next, err := r.store.Query(ctx, tenantPK(tenantID), store.QueryOptions{
		Prefix: productPrefix,
		Limit:  shared.ClampPageSize(limit),
		Cursor: cursor,
	})
	if err != nil {
		return shared.Page[*catalog.Product]{}, mapStoreErr(err)
	}
	products := make([]*catalog.Product, 0, len(items))
	for i := range items {
		p, err := decodeProduct(&items[i])
		if err != nil {
			return shared.Page[*catalog.Product]{}, err
		}
		products = append(products, p)
	}
	return shared.Page[*catalog.Product]{Items: products, NextCursor: next}, nil
}

func (r *StoreProductRepository) ListByCategory(ctx context.Context, tenantID, category string) ([]*catalog.Product, error) {
	items, err := r.store.QueryIndex(ctx, tenantPK(tenantID), categoryIndexSK(category))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	products := make([]*catalog.Product, 0, len(items))
	for i := range items {
		p, err := decodeProduct(&items[i])
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *StoreProductRepository) ListAll(ctx context.Context, tenantID string) ([]*catalog.Product, error) {
	var all []*catalog.Product
	cursor := ""
	for {
		page, err := r.List(ctx, tenantID, shared.MaxPageSize, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

func (r *StoreProductRepository) AddQuantity(ctx context.Context, tenantID, productID string, delta int64) error {
	add := &store.ConditionalAdd{
		PK:    tenantPK(tenantID),
		SK:    productSK(productID),
		Delta: delta,
	}
	// negative corrections are guarded so stock never crosses zero
	if delta < 0 {
		need := -delta
		add.Require = &need
	}
	err := mapStoreErr(r.store.AtomicWrite(ctx, []store.WriteOp{{ConditionalAdd: add}}))
	if err == shared.ErrPreconditionFailed {
		// the guard cannot tell a missing row from short stock
		if _, getErr := r.Get(ctx, tenantID, productID); getErr != nil {
			return getErr
		}
		return shared.ErrInsufficientStock
	}
	return err
}

func encodeProduct(tenantID string, product *catalog.Product) (*store.Item, error) {
	attrs, err := encodeAttributes(product)
	if err != nil {
		return nil, err
	}
	qty := product.Quantity
	item := &store.Item{
		PK:         tenantPK(tenantID),
		SK:         productSK(product.ID),
		EntityType: typeProduct,
		Quantity:   &qty,
		Attributes: attrs,
	}
	if product.Category != "" {
		item.IndexPK = tenantPK(tenantID)
		item.IndexSK = categoryIndexSK(product.Category)
	}
	return item, nil
}

func decodeProduct(item *store.Item) (*catalog.Product, error) {
	product, err := decodeAttributes[catalog.Product](item)
	if err != nil {
		return nil, err
	}
	// the promoted column is authoritative for stock
	if item.Quantity != nil {
		product.Quantity = *item.Quantity
	}
	return product, nil
}
