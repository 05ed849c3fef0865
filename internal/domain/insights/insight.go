// Package insights holds the stored daily insight snapshot.
package insights

import (
	"github.com/crmhub/backend/internal/domain/shared"
)

// Insight is a generated business summary for one tenant and day. One
// record exists per date; regeneration overwrites it.
type Insight struct {
	TenantID           string         `json:"tenant_id"`
	Date               string         `json:"date"` // YYYY-MM-DD
	Summary            string         `json:"summary"`
	Forecasts          map[string]any `json:"forecasts,omitempty"`
	ReorderSuggestions []string       `json:"reorder_suggestions,omitempty"`
	SpendingTrends     map[string]any `json:"spending_trends,omitempty"`
	RevenueInsights    map[string]any `json:"revenue_insights,omitempty"`
	GeneratedAt        string         `json:"generated_at"`
}

// NewInsight creates a snapshot stamped with the generation time.
func NewInsight(tenantID, date, summary string) (*Insight, error) {
	if tenantID == "" {
		return nil, shared.NewValidationError("tenant_id", "is required")
	}
	if date == "" {
		return nil, shared.NewValidationError("date", "is required")
	}
	return &Insight{
		TenantID:    tenantID,
		Date:        date,
		Summary:     summary,
		GeneratedAt: shared.NowISO(),
	}, nil
}
