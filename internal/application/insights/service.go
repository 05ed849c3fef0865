// Package insights implements read-only business aggregates and the
// generated daily insight snapshot.
package insights

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appledger "github.com/crmhub/backend/internal/application/ledger"
	"github.com/crmhub/backend/internal/domain/catalog"
	"github.com/crmhub/backend/internal/domain/insights"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/logger"
)

// BusinessSnapshot is the raw aggregate handed to the Generator.
type BusinessSnapshot struct {
	Date                string                  `json:"date"`
	TotalInventoryValue float64                 `json:"total_inventory_value"`
	ProductCount        int                     `json:"product_count"`
	LowStock            []*catalog.Product      `json:"low_stock"`
	Sales               *appledger.DailySummary `json:"sales"`
}

// Generator turns a business snapshot into narrative insight content.
// Implementations call an external model; the service treats it as a
// black box.
type Generator interface {
	Generate(ctx context.Context, snapshot BusinessSnapshot) (*insights.Insight, error)
}

// Cache is a read-through cache over stored insight records.
type Cache interface {
	GetInsight(ctx context.Context, tenantID, date string) (*insights.Insight, bool)
	SetInsight(ctx context.Context, tenantID string, insight *insights.Insight)
}

// Service builds aggregates and insight snapshots.
type Service struct {
	products  catalog.ProductRepository
	ledger    *appledger.Service
	snapshots insights.Repository
	generator Generator
	cache     Cache
}

// NewService creates the insights service. cache may be nil when redis
// is disabled.
func NewService(
	products catalog.ProductRepository,
	ledger *appledger.Service,
	snapshots insights.Repository,
	generator Generator,
	cache Cache,
) *Service {
	return &Service{
		products:  products,
		ledger:    ledger,
		snapshots: snapshots,
		generator: generator,
		cache:     cache,
	}
}

// Snapshot aggregates the tenant's current inventory position and the
// given day's sales.
func (s *Service) Snapshot(ctx context.Context, tenantID, date string) (*BusinessSnapshot, error) {
	if date == "" {
		return nil, shared.NewValidationError("date", "is required")
	}

	all, err := s.products.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	snapshot := &BusinessSnapshot{Date: date, ProductCount: len(all), LowStock: []*catalog.Product{}}
	value := 0.0
	for _, p := range all {
		value += p.StockValue().InexactFloat64()
		if p.IsLowStock() {
			snapshot.LowStock = append(snapshot.LowStock, p)
		}
	}
	snapshot.TotalInventoryValue = value

	sales, err := s.ledger.Summarize(ctx, tenantID, date)
	if err != nil {
		return nil, err
	}
	snapshot.Sales = sales
	return snapshot, nil
}

// Get returns the stored insight for a date, through the cache when one
// is wired.
func (s *Service) Get(ctx context.Context, tenantID, date string) (*insights.Insight, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetInsight(ctx, tenantID, date); ok {
			return cached, nil
		}
	}
	insight, err := s.snapshots.Get(ctx, tenantID, date)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetInsight(ctx, tenantID, insight)
	}
	return insight, nil
}

// Generate builds the day's aggregate, asks the generator for the
// narrative and stores the result, overwriting any previous snapshot
// for that date.
func (s *Service) Generate(ctx context.Context, tenantID, date string) (*insights.Insight, error) {
	snapshot, err := s.Snapshot(ctx, tenantID, date)
	if err != nil {
		return nil, err
	}

	insight, err := s.generator.Generate(ctx, *snapshot)
	if err != nil {
		return nil, shared.NewExternalServiceError("insight generator", err.Error())
	}
	insight.TenantID = tenantID
	insight.Date = date
	if insight.GeneratedAt == "" {
		insight.GeneratedAt = shared.NowISO()
	}

	if err := s.snapshots.Save(ctx, tenantID, insight); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetInsight(ctx, tenantID, insight)
	}
	return insight, nil
}

// GetOrGenerate returns the stored insight, generating one on a miss.
func (s *Service) GetOrGenerate(ctx context.Context, tenantID, date string) (*insights.Insight, error) {
	insight, err := s.Get(ctx, tenantID, date)
	if err == nil {
		return insight, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	logger.L(ctx).Debug("no stored insight, generating", zap.String("date", date))
	return s.Generate(ctx, tenantID, date)
}
