// Package identity implements tenant onboarding and staff management.
package identity

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crmhub/backend/internal/domain/catalog"
	"github.com/crmhub/backend/internal/domain/identity"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/logger"
)

// ProvisionTenantInput carries a new tenant signup.
type ProvisionTenantInput struct {
	TenantID     string
	BusinessName string
	BusinessType string
	OwnerEmail   string
}

// CompleteSetupInput patches the tenant's setup fields. Nil pointers
// leave the field untouched.
type CompleteSetupInput struct {
	Currency      *string
	Timezone      *string
	BusinessHours map[string]any
	Settings      map[string]any
}

// OnboardingService provisions tenants and finishes their setup.
type OnboardingService struct {
	tenants  identity.TenantRepository
	products catalog.ProductRepository
}

// NewOnboardingService creates the onboarding service.
func NewOnboardingService(tenants identity.TenantRepository, products catalog.ProductRepository) *OnboardingService {
	return &OnboardingService{tenants: tenants, products: products}
}

// ProvisionTenant creates the tenant record. Provisioning the same id
// twice returns shared.ErrConflict with nothing overwritten.
func (s *OnboardingService) ProvisionTenant(ctx context.Context, input ProvisionTenantInput) (*identity.Tenant, error) {
	tenant, err := identity.NewTenant(input.BusinessName, identity.BusinessType(input.BusinessType), input.OwnerEmail)
	if err != nil {
		return nil, err
	}
	if input.TenantID != "" {
		tenant.ID = input.TenantID
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// GetTenant returns the tenant record or shared.ErrNotFound.
func (s *OnboardingService) GetTenant(ctx context.Context, tenantID string) (*identity.Tenant, error) {
	return s.tenants.Get(ctx, tenantID)
}

// UpdateSettings patches arbitrary tenant settings fields.
func (s *OnboardingService) UpdateSettings(ctx context.Context, tenantID string, updates map[string]any) (*identity.Tenant, error) {
	return s.tenants.UpdateSettings(ctx, tenantID, updates)
}

// CompleteSetup patches the provided setup fields and then seeds the
// catalog with sample products for the tenant's business type. Seeding
// is best-effort: a failed seed write is logged and setup still
// succeeds.
func (s *OnboardingService) CompleteSetup(ctx context.Context, tenantID string, input CompleteSetupInput) (*identity.Tenant, error) {
	updates := map[string]any{}
	if input.Currency != nil {
		updates["currency"] = *input.Currency
	}
	if input.Timezone != nil {
		updates["timezone"] = *input.Timezone
	}
	if input.BusinessHours != nil {
		updates["business_hours"] = input.BusinessHours
	}
	if input.Settings != nil {
		updates["settings"] = input.Settings
	}

	tenant, err := s.tenants.UpdateSettings(ctx, tenantID, updates)
	if err != nil {
		return nil, err
	}

	s.seedProducts(ctx, tenantID, tenant.BusinessType)
	return tenant, nil
}

func (s *OnboardingService) seedProducts(ctx context.Context, tenantID string, businessType identity.BusinessType) {
	for _, seed := range seedProductsFor(businessType) {
		product, err := catalog.NewProduct(seed.name, seedQuantity)
		if err != nil {
			logger.L(ctx).Warn("invalid seed product skipped",
				zap.String("name", seed.name), zap.Error(err))
			continue
		}
		cost := seed.unitCost
		product.UnitCost = &cost
		product.ReorderThreshold = seedReorderThreshold
		if err := s.products.Save(ctx, tenantID, product); err != nil {
			logger.L(ctx).Warn("seeding sample product failed",
				zap.String("name", seed.name), zap.Error(err))
		}
	}
}

// UserService manages staff accounts under the role hierarchy.
type UserService struct {
	users identity.UserRepository
}

// NewUserService creates the user service.
func NewUserService(users identity.UserRepository) *UserService {
	return &UserService{users: users}
}

// InviteUser creates a staff account. The acting role may only assign
// roles at or below its own level.
func (s *UserService) InviteUser(ctx context.Context, tenantID string, actor identity.Role, email, name string, role identity.Role) (*identity.User, error) {
	if role == "" {
		role = identity.RoleStaff
	}
	if !actor.CanManage(role) {
		return nil, shared.ErrForbidden
	}
	user, err := identity.NewUser(email, role)
	if err != nil {
		return nil, err
	}
	user.Name = name

	if err := s.users.Save(ctx, tenantID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns one staff account or shared.ErrNotFound.
func (s *UserService) GetUser(ctx context.Context, tenantID, userID string) (*identity.User, error) {
	return s.users.Get(ctx, tenantID, userID)
}

// ListUsers pages the tenant's staff accounts.
func (s *UserService) ListUsers(ctx context.Context, tenantID string, limit int, cursor string) (shared.Page[*identity.User], error) {
	return s.users.List(ctx, tenantID, limit, cursor)
}

// UpdateUserRole reassigns a user's role. The actor must outrank (or
// match) both the user's current role and the new one.
func (s *UserService) UpdateUserRole(ctx context.Context, tenantID string, actor identity.Role, userID string, role identity.Role) (*identity.User, error) {
	if !role.IsValid() {
		return nil, shared.NewValidationError("role", "must be one of: owner, manager, staff")
	}
	user, err := s.users.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(user.Role) || !actor.CanManage(role) {
		return nil, shared.ErrForbidden
	}

	user.Role = role
	user.UpdatedAt = shared.NowISO()
	if err := s.users.Save(ctx, tenantID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeactivateUser disables sign-in for a staff account.
func (s *UserService) DeactivateUser(ctx context.Context, tenantID string, actor identity.Role, userID string) (*identity.User, error) {
	user, err := s.users.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(user.Role) {
		return nil, shared.ErrForbidden
	}

	user.Status = identity.UserStatusInactive
	user.UpdatedAt = shared.NowISO()
	if err := s.users.Save(ctx, tenantID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Sample products seeded when setup completes.
const (
	seedQuantity         = int64(100)
	seedReorderThreshold = int64(20)
)

type seedProduct struct {
	name     string
	unitCost decimal.Decimal
}

func seedProductsFor(businessType identity.BusinessType) []seedProduct {
	switch businessType {
	case identity.BusinessTypeRestaurant:
		return []seedProduct{
			{"Chicken Breast", decimal.RequireFromString("4.50")},
			{"Rice", decimal.RequireFromString("1.20")},
			{"Cooking Oil", decimal.RequireFromString("3.00")},
			{"Lettuce", decimal.RequireFromString("2.00")},
			{"Tomatoes", decimal.RequireFromString("1.80")},
		}
	case identity.BusinessTypeRetail:
		return []seedProduct{
			{"Widget A", decimal.RequireFromString("5.99")},
			{"Widget B", decimal.RequireFromString("8.50")},
			{"Packaging Supplies", decimal.RequireFromString("12.00")},
		}
	case identity.BusinessTypeBar:
		return []seedProduct{
			{"Vodka", decimal.RequireFromString("18.00")},
			{"Rum", decimal.RequireFromString("22.00")},
			{"Beer Keg", decimal.RequireFromString("85.00")},
			{"Limes", decimal.RequireFromString("3.50")},
			{"Ice", decimal.RequireFromString("0.10")},
		}
	default:
		return []seedProduct{
			{"Sample Product A", decimal.RequireFromString("10.00")},
			{"Sample Product B", decimal.RequireFromString("15.00")},
		}
	}
}
