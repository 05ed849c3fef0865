package persistence

import (
	"context"

	"github.com/crmhub/backend/internal/domain/insights"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// StoreInsightRepository implements insights.Repository. Snapshots are
// keyed by date, one per tenant per day.
type StoreInsightRepository struct {
	store store.Store
}

// NewStoreInsightRepository creates an insight repository.
func NewStoreInsightRepository(s store.Store) *StoreInsightRepository {
	return &StoreInsightRepository{store: s}
}

var _ insights.Repository = (*StoreInsightRepository)(nil)

func (r *StoreInsightRepository) Save(ctx context.Context, tenantID string, insight *insights.Insight) error {
	attrs, err := encodeAttributes(insight)
	if err != nil {
		return err
	}
	return mapStoreErr(r.store.Put(ctx, &store.Item{
		PK:         tenantPK(tenantID),
		SK:         insightSK(insight.Date),
		EntityType: typeInsight,
		Attributes: attrs,
	}))
}

func (r *StoreInsightRepository) Get(ctx context.Context, tenantID, date string) (*insights.Insight, error) {
	item, err := r.store.Get(ctx, tenantPK(tenantID), insightSK(date))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return decodeAttributes[insights.Insight](item)
}
