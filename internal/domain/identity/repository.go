package identity

import (
	"context"

	"github.com/crmhub/backend/internal/domain/shared"
)

// TenantRepository persists tenant records.
type TenantRepository interface {
	// Create stores a new tenant, or returns shared.ErrConflict when
	// the id is already provisioned.
	Create(ctx context.Context, tenant *Tenant) error

	// Get returns the tenant or shared.ErrNotFound.
	Get(ctx context.Context, tenantID string) (*Tenant, error)

	// UpdateSettings patches only the provided setup fields.
	UpdateSettings(ctx context.Context, tenantID string, updates map[string]any) (*Tenant, error)
}

// UserRepository persists staff accounts within one tenant's partition.
type UserRepository interface {
	Save(ctx context.Context, tenantID string, user *User) error
	Get(ctx context.Context, tenantID, userID string) (*User, error)
	List(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*User], error)
}

// GatewayConnectionRepository persists the per-tenant payment gateway
// connection.
type GatewayConnectionRepository interface {
	Save(ctx context.Context, conn *GatewayConnection) error
	Get(ctx context.Context, tenantID string) (*GatewayConnection, error)
	Delete(ctx context.Context, tenantID string) error
}
