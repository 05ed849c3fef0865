// Package identity holds tenants, users and the gateway connection.
package identity

import (
	"regexp"
	"strings"

	"github.com/crmhub/backend/internal/domain/shared"
)

// BusinessType drives which sample products a new tenant is seeded with.
type BusinessType string

const (
	BusinessTypeRestaurant BusinessType = "restaurant"
	BusinessTypeRetail     BusinessType = "retail"
	BusinessTypeBar        BusinessType = "bar"
	BusinessTypeOther      BusinessType = "other"
)

func (b BusinessType) IsValid() bool {
	switch b {
	case BusinessTypeRestaurant, BusinessTypeRetail, BusinessTypeBar, BusinessTypeOther:
		return true
	}
	return false
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Tenant is the root of every partition. Its record shares the tenant's
// own partition so a single Get resolves it.
type Tenant struct {
	ID                string         `json:"id"`
	BusinessName      string         `json:"business_name"`
	BusinessType      BusinessType   `json:"business_type"`
	OwnerEmail        string         `json:"owner_email"`
	Plan              string         `json:"plan"`
	Currency          string         `json:"currency,omitempty"`
	Timezone          string         `json:"timezone,omitempty"`
	BusinessHours     map[string]any `json:"business_hours,omitempty"`
	Settings          map[string]any `json:"settings,omitempty"`
	PaymentsConnected bool           `json:"payments_connected,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at,omitempty"`
}

// NewTenant creates a tenant on the free plan.
func NewTenant(businessName string, businessType BusinessType, ownerEmail string) (*Tenant, error) {
	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		return nil, shared.NewValidationError("business_name", "is required")
	}
	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))
	if ownerEmail == "" {
		return nil, shared.NewValidationError("owner_email", "is required")
	}
	if !emailRegex.MatchString(ownerEmail) {
		return nil, shared.NewValidationError("owner_email", "must be a valid email address")
	}
	if businessType == "" {
		businessType = BusinessTypeOther
	}
	if !businessType.IsValid() {
		return nil, shared.NewValidationError("business_type", "must be one of: restaurant, retail, bar, other")
	}

	return &Tenant{
		ID:           shared.NewID(),
		BusinessName: businessName,
		BusinessType: businessType,
		OwnerEmail:   ownerEmail,
		Plan:         "free",
		CreatedAt:    shared.NowISO(),
	}, nil
}

func (t *Tenant) GetID() string        { return t.ID }
func (t *Tenant) GetCreatedAt() string { return t.CreatedAt }
