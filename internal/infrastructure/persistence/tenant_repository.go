package persistence

import (
	"context"

	"github.com/crmhub/backend/internal/domain/identity"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// StoreTenantRepository implements identity.TenantRepository. The
// tenant record sits at the root of its own partition (pk == sk).
type StoreTenantRepository struct {
	store store.Store
}

// NewStoreTenantRepository creates a tenant repository.
func NewStoreTenantRepository(s store.Store) *StoreTenantRepository {
	return &StoreTenantRepository{store: s}
}

var _ identity.TenantRepository = (*StoreTenantRepository)(nil)

func (r *StoreTenantRepository) Create(ctx context.Context, tenant *identity.Tenant) error {
	attrs, err := encodeAttributes(tenant)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.PutIfAbsent(ctx, &store.Item{
		PK:         tenantPK(tenant.ID),
		SK:         tenantSK(tenant.ID),
		EntityType: typeTenant,
		Attributes: attrs,
	}))
}

func (r *StoreTenantRepository) Get(ctx context.Context, tenantID string) (*identity.Tenant, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), tenantSK(tenantID))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[identity.Tenant](item)
}

func (r *StoreTenantRepository) UpdateSettings(ctx context.Context, tenantID string, updates map[string]any) (*identity.Tenant, error) {
	if len(updates) == 0 {
		return r.Get(ctx, tenantID)
	}
	attrs := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		attrs[k] = v
	}
	attrs["updated_at"] = shared.NowISO()

	item, err := r.store.Update(ctx, tenantPK(tenantID), tenantSK(tenantID), store.Patch{
		Attributes: attrs,
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[identity.Tenant](item)
}
