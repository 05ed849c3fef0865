package identity

import (
	"github.com/crmhub/backend/internal/domain/shared"
)

// GatewayConnection stores the payment gateway credentials for one
// tenant. At most one connection exists per tenant; card charges and
// status webhooks both require it.
type GatewayConnection struct {
	TenantID     string `json:"tenant_id"`
	MerchantID   string `json:"merchant_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	LocationID   string `json:"location_id,omitempty"`
	ConnectedAt  string `json:"connected_at"`
	UpdatedAt    string `json:"updated_at"`
}

// NewGatewayConnection records a completed OAuth exchange.
func NewGatewayConnection(tenantID, merchantID, accessToken string) (*GatewayConnection, error) {
	if tenantID == "" {
		return nil, shared.NewValidationError("tenant_id", "is required")
	}
	if merchantID == "" {
		return nil, shared.NewValidationError("merchant_id", "is required")
	}
	if accessToken == "" {
		return nil, shared.NewValidationError("access_token", "is required")
	}
	now := shared.NowISO()
	return &GatewayConnection{
		TenantID:    tenantID,
		MerchantID:  merchantID,
		AccessToken: accessToken,
		ConnectedAt: now,
		UpdatedAt:   now,
	}, nil
}
