package insights

import "context"

// Repository persists generated insight snapshots.
type Repository interface {
	Save(ctx context.Context, tenantID string, insight *Insight) error

	// Get returns the snapshot for a date or shared.ErrNotFound.
	Get(ctx context.Context, tenantID, date string) (*Insight, error)
}
