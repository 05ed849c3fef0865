package gateway

import (
	"context"
	"fmt"
	"strings"

	appinsights "github.com/crmhub/backend/internal/application/insights"
	"github.com/crmhub/backend/internal/domain/insights"
)

// RuleBasedGenerator derives insight narratives from the snapshot with
// fixed heuristics. It keeps the insight surface working without an
// external model; swap in a model-backed implementation behind the
// same interface when one is available.
type RuleBasedGenerator struct{}

// NewRuleBasedGenerator creates the heuristic generator.
func NewRuleBasedGenerator() *RuleBasedGenerator {
	return &RuleBasedGenerator{}
}

// Generate builds a deterministic narrative from the day's aggregates.
func (g *RuleBasedGenerator) Generate(_ context.Context, snapshot appinsights.BusinessSnapshot) (*insights.Insight, error) {
	var b strings.Builder
	if snapshot.Sales != nil && snapshot.Sales.TransactionCount > 0 {
		fmt.Fprintf(&b, "Recorded %d transactions totaling %.2f in revenue.",
			snapshot.Sales.TransactionCount, snapshot.Sales.TotalRevenue)
	} else {
		b.WriteString("No sales recorded.")
	}
	fmt.Fprintf(&b, " Inventory holds %d products valued at %.2f.",
		snapshot.ProductCount, snapshot.TotalInventoryValue)
	if n := len(snapshot.LowStock); n > 0 {
		fmt.Fprintf(&b, " %d products are at or below their reorder threshold.", n)
	}

	insight := &insights.Insight{
		Date:    snapshot.Date,
		Summary: b.String(),
	}
	for _, p := range snapshot.LowStock {
		insight.ReorderSuggestions = append(insight.ReorderSuggestions, p.Name)
	}
	if snapshot.Sales != nil && len(snapshot.Sales.RevenueByPaymentMethod) > 0 {
		byMethod := make(map[string]any, len(snapshot.Sales.RevenueByPaymentMethod))
		for method, revenue := range snapshot.Sales.RevenueByPaymentMethod {
			byMethod[method] = revenue
		}
		insight.RevenueInsights = map[string]any{"revenue_by_payment_method": byMethod}
	}
	return insight, nil
}
