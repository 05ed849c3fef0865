package identity

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/crmhub/backend/internal/domain/identity"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/persistence"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

func newServices(t *testing.T) (*OnboardingService, *UserService, *persistence.StoreProductRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&store.Item{}))
	s := store.NewGormStore(db)
	products := persistence.NewStoreProductRepository(s)
	return NewOnboardingService(persistence.NewStoreTenantRepository(s), products),
		NewUserService(persistence.NewStoreUserRepository(s)),
		products
}

func TestOnboardingService_ProvisionTenant(t *testing.T) {
	ctx := context.Background()
	onboarding, _, _ := newServices(t)

	tenant, err := onboarding.ProvisionTenant(ctx, ProvisionTenantInput{
		TenantID:     "t1",
		BusinessName: "Maria's Tacos",
		BusinessType: "restaurant",
		OwnerEmail:   "Maria@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", tenant.ID)
	assert.Equal(t, "maria@example.com", tenant.OwnerEmail)
	assert.Equal(t, "free", tenant.Plan)

	t.Run("re-provisioning the same id conflicts", func(t *testing.T) {
		_, err := onboarding.ProvisionTenant(ctx, ProvisionTenantInput{
			TenantID:     "t1",
			BusinessName: "Another Shop",
			BusinessType: "retail",
			OwnerEmail:   "other@example.com",
		})
		assert.ErrorIs(t, err, shared.ErrConflict)

		// original record untouched
		got, err := onboarding.GetTenant(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "Maria's Tacos", got.BusinessName)
	})

	t.Run("rejects an invalid email", func(t *testing.T) {
		_, err := onboarding.ProvisionTenant(ctx, ProvisionTenantInput{
			BusinessName: "Shop",
			OwnerEmail:   "not-an-email",
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodeValidation, derr.Code)
	})
}

func TestOnboardingService_CompleteSetup(t *testing.T) {
	ctx := context.Background()

	seedCase := func(businessType string, wantCount int, wantName string) func(*testing.T) {
		return func(t *testing.T) {
			onboarding, _, products := newServices(t)
			_, err := onboarding.ProvisionTenant(ctx, ProvisionTenantInput{
				TenantID:     "t1",
				BusinessName: "Shop",
				BusinessType: businessType,
				OwnerEmail:   "owner@example.com",
			})
			require.NoError(t, err)

			currency := "USD"
			tenant, err := onboarding.CompleteSetup(ctx, "t1", CompleteSetupInput{Currency: &currency})
			require.NoError(t, err)
			assert.Equal(t, "USD", tenant.Currency)

			all, err := products.ListAll(ctx, "t1")
			require.NoError(t, err)
			require.Len(t, all, wantCount)

			names := map[string]bool{}
			for _, p := range all {
				names[p.Name] = true
				assert.Equal(t, int64(100), p.Quantity)
				assert.Equal(t, int64(20), p.ReorderThreshold)
				assert.Equal(t, "each", p.Unit)
				require.NotNil(t, p.UnitCost)
			}
			assert.True(t, names[wantName])
		}
	}

	t.Run("restaurant seeds its sample pantry", seedCase("restaurant", 5, "Chicken Breast"))
	t.Run("retail seeds widgets", seedCase("retail", 3, "Widget A"))
	t.Run("bar seeds the bar list", seedCase("bar", 5, "Beer Keg"))
	t.Run("other gets generic samples", seedCase("other", 2, "Sample Product A"))

	t.Run("seed costs stay decimal exact", func(t *testing.T) {
		onboarding, _, products := newServices(t)
		_, err := onboarding.ProvisionTenant(ctx, ProvisionTenantInput{
			TenantID:     "t1",
			BusinessName: "Shop",
			BusinessType: "restaurant",
			OwnerEmail:   "owner@example.com",
		})
		require.NoError(t, err)
		_, err = onboarding.CompleteSetup(ctx, "t1", CompleteSetupInput{})
		require.NoError(t, err)

		all, err := products.ListAll(ctx, "t1")
		require.NoError(t, err)
		for _, p := range all {
			if p.Name == "Chicken Breast" {
				assert.True(t, p.UnitCost.Equal(decimal.RequireFromString("4.50")))
			}
		}
	})

	t.Run("setup on a missing tenant is not found", func(t *testing.T) {
		onboarding, _, _ := newServices(t)
		_, err := onboarding.CompleteSetup(ctx, "ghost", CompleteSetupInput{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestUserService_RoleHierarchy(t *testing.T) {
	ctx := context.Background()
	_, users, _ := newServices(t)

	t.Run("a manager cannot invite an owner", func(t *testing.T) {
		_, err := users.InviteUser(ctx, "t1", identity.RoleManager, "boss@example.com", "Boss", identity.RoleOwner)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("an owner invites and later deactivates a manager", func(t *testing.T) {
		user, err := users.InviteUser(ctx, "t1", identity.RoleOwner, "mgr@example.com", "Manager", identity.RoleManager)
		require.NoError(t, err)
		assert.Equal(t, identity.RoleManager, user.Role)
		assert.Equal(t, identity.UserStatusActive, user.Status)

		deactivated, err := users.DeactivateUser(ctx, "t1", identity.RoleOwner, user.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.UserStatusInactive, deactivated.Status)
	})

	t.Run("staff cannot demote a manager", func(t *testing.T) {
		user, err := users.InviteUser(ctx, "t1", identity.RoleOwner, "mgr2@example.com", "", identity.RoleManager)
		require.NoError(t, err)

		_, err = users.UpdateUserRole(ctx, "t1", identity.RoleStaff, user.ID, identity.RoleStaff)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("invite defaults to the staff role", func(t *testing.T) {
		user, err := users.InviteUser(ctx, "t1", identity.RoleManager, "new@example.com", "", "")
		require.NoError(t, err)
		assert.Equal(t, identity.RoleStaff, user.Role)
	})
}
