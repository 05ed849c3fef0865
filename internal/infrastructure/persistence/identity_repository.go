package persistence

import (
	"context"

	"github.com/crmhub/backend/internal/domain/identity"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// StoreUserRepository implements identity.UserRepository.
type StoreUserRepository struct {
	store store.Store
}

// NewStoreUserRepository creates a user repository.
func NewStoreUserRepository(s store.Store) *StoreUserRepository {
	return &StoreUserRepository{store: s}
}

var _ identity.UserRepository = (*StoreUserRepository)(nil)

func (r *StoreUserRepository) Save(ctx context.Context, tenantID string, user *identity.User) error {
	attrs, err := encodeAttributes(user)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.Put(ctx, &store.Item{
		PK:         tenantPK(tenantID),
		SK:         userSK(user.ID),
		EntityType: typeUser,
		Attributes: attrs,
	}))
}

func (r *StoreUserRepository) Get(ctx context.Context, tenantID, userID string) (*identity.User, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), userSK(userID))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[identity.User](item)
}

func (r *StoreUserRepository) List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*identity.User], error) {
	items, next, err := r.store.Query(ctx, tenantPK(tenantID), store.QueryOptions{
		Prefix: userPrefix,
		Limit:  shared.ClampPageSize(limit),
		Cursor: cursor,
	})
	if err != nil {
		return shared.Page[*identity.User]{}, mapStoreErr(err)
	}
	users := make([]*identity.User, 0, len(items))
	for i := range items {
		u, err := decodeAttributes[identity.User](&items[i])
		if err != nil {
			return shared.Page[*identity.User]{}, err
		}
		users = append(users, u)
	}
	return shared.Page[*identity.User]{Items: users, NextCursor: next}, nil
}

// StoreGatewayConnectionRepository implements
// identity.GatewayConnectionRepository. Connections project onto the
// secondary index by merchant id so webhook handlers can resolve the
// owning tenant.
type StoreGatewayConnectionRepository struct {
	store store.Store
}

// NewStoreGatewayConnectionRepository creates a gateway connection
// repository.
func NewStoreGatewayConnectionRepository(s store.Store) *StoreGatewayConnectionRepository {
	return &StoreGatewayConnectionRepository{store: s}
}

var _ identity.GatewayConnectionRepository = (*StoreGatewayConnectionRepository)(nil)

func (r *StoreGatewayConnectionRepository) Save(ctx context.Context, conn *identity.GatewayConnection) error {
	attrs, err := encodeAttributes(conn)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.Put(ctx, &store.Item{
		PK:         tenantPK(conn.TenantID),
		SK:         gatewaySK(conn.TenantID),
		EntityType: typeGateway,
		IndexPK:    merchantIndexPK(conn.MerchantID),
		IndexSK:    tenantPK(conn.TenantID),
		Attributes: attrs,
	}))
}

func (r *StoreGatewayConnectionRepository) Get(ctx context.Context, tenantID string) (*identity.GatewayConnection, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), gatewaySK(tenantID))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[identity.GatewayConnection](item)
}

func (r *StoreGatewayConnectionRepository) Delete(ctx context.Context, tenantID string) error {
	return mapStoreErr(r.store.Delete(ctx, tenantPK(tenantID), gatewaySK(tenantID)))
}
