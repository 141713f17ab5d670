package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/metrics"
)

type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts []*domain.StockAlert
}

func (r *fakeAlertRepo) Upsert(ctx context.Context, alert *domain.StockAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *fakeAlertRepo) FindActive(ctx context.Context) ([]*domain.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StockAlert
	for _, alert := range r.alerts {
		if alert.Status == domain.AlertStatusActive {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) FindActiveByProduct(ctx context.Context, productID string, alertType domain.AlertType) (*domain.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.alerts {
		if alert.ProductID == productID && alert.AlertType == alertType && alert.Status == domain.AlertStatusActive {
			return alert, nil
		}
	}
	return nil, nil
}

func (r *fakeAlertRepo) ResolveForProduct(ctx context.Context, productID string, alertType domain.AlertType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, alert := range r.alerts {
		if alert.ProductID == productID && alert.AlertType == alertType && alert.Status == domain.AlertStatusActive {
			alert.Resolve()
			count++
		}
	}
	return count, nil
}

func (r *fakeAlertRepo) Stats(ctx context.Context) (*domain.AlertStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.AlertStats{Total: len(r.alerts)}
	for _, alert := range r.alerts {
		switch alert.Status {
		case domain.AlertStatusActive:
			stats.Active++
			if alert.IsCritical() {
				stats.Critical++
			}
		case domain.AlertStatusResolved:
			stats.Resolved++
		case domain.AlertStatusIgnored:
			stats.Ignored++
		}
	}
	return stats, nil
}

// fakeResolver resolves products from a static map, falling back like
// the catalog client does when a product is unknown.
type fakeResolver struct {
	products map[string]domain.ProductInfo
}

func (r *fakeResolver) ResolveName(ctx context.Context, productID string) string {
	if product, ok := r.products[productID]; ok {
		return product.Name
	}
	return "Unknown Product"
}

func (r *fakeResolver) ResolveProducts(ctx context.Context, productIDs []string) map[string]domain.ProductInfo {
	out := make(map[string]domain.ProductInfo, len(productIDs))
	for _, id := range productIDs {
		if product, ok := r.products[id]; ok {
			out[id] = product
			continue
		}
		out[id] = domain.ProductInfo{ID: id, Name: "Unknown Product"}
	}
	return out
}

func newTestAlertService(stocks *fakeStockRepo, alerts *fakeAlertRepo, resolver *fakeResolver) *AlertApplicationService {
	if resolver == nil {
		resolver = &fakeResolver{}
	}
	return NewAlertApplicationService(stocks, alerts, resolver, nil, nil, "inventory.alerts",
		metrics.New(metrics.DefaultConfig("inventory-service-test")), testLogger())
}

func seedLowStock(t *testing.T, repo *fakeStockRepo, productID string, quantity int) *domain.StockRecord {
	t.Helper()
	record := seedStock(t, repo, productID, quantity, 0)
	require.True(t, record.IsLowStock())
	return record
}

func TestScanLowStock(t *testing.T) {
	stocks := newFakeStockRepo()
	seedLowStock(t, stocks, "prod-low", 3)
	seedLowStock(t, stocks, "prod-out", 0)
	seedStock(t, stocks, "prod-ok", 100, 0)

	resolver := &fakeResolver{products: map[string]domain.ProductInfo{
		"prod-low": {ID: "prod-low", Name: "Blue Widget", SKU: "BW-001", UnitPrice: 12.5},
	}}
	service := newTestAlertService(stocks, &fakeAlertRepo{}, resolver)

	items, err := service.ScanLowStock(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)

	byProduct := make(map[string]*LowStockItemDTO)
	for _, item := range items {
		byProduct[item.ProductID] = item
	}

	low := byProduct["prod-low"]
	require.NotNil(t, low)
	assert.Equal(t, "Blue Widget", low.ProductName)
	assert.Equal(t, "BW-001", low.SKU)
	assert.Equal(t, 12.5, low.UnitPrice)
	assert.False(t, low.IsOutOfStock)

	// Catalog misses keep the record's own SKU and a zero price
	out := byProduct["prod-out"]
	require.NotNil(t, out)
	assert.Equal(t, "Unknown Product", out.ProductName)
	assert.Equal(t, "SKU-prod-out", out.SKU)
	assert.Zero(t, out.UnitPrice)
	assert.True(t, out.IsOutOfStock)
}

func TestCheckLowStockCreatesAlerts(t *testing.T) {
	stocks := newFakeStockRepo()
	seedLowStock(t, stocks, "prod-low", 3)
	seedLowStock(t, stocks, "prod-out", 0)

	alerts := &fakeAlertRepo{}
	service := newTestAlertService(stocks, alerts, nil)

	summary, err := service.CheckLowStock(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 2, summary.AlertsCreated)
	assert.Equal(t, 0, summary.AlertsResolved)

	lowAlert, err := alerts.FindActiveByProduct(context.Background(), "prod-low", domain.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, lowAlert)
	assert.Equal(t, "Unknown Product", lowAlert.ProductName)

	outAlert, err := alerts.FindActiveByProduct(context.Background(), "prod-out", domain.AlertOutOfStock)
	require.NoError(t, err)
	require.NotNil(t, outAlert)
	assert.True(t, outAlert.IsCritical())
}

func TestCheckLowStockIsIdempotent(t *testing.T) {
	stocks := newFakeStockRepo()
	seedLowStock(t, stocks, "prod-low", 3)

	alerts := &fakeAlertRepo{}
	service := newTestAlertService(stocks, alerts, nil)

	first, err := service.CheckLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.AlertsCreated)

	second, err := service.CheckLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.AlertsCreated)

	active, err := alerts.FindActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCheckLowStockResolvesRecovered(t *testing.T) {
	stocks := newFakeStockRepo()
	seedStock(t, stocks, "prod-recovered", 100, 0)

	stale, err := domain.NewStockAlert("prod-recovered", "", domain.AlertLowStock, 3, 10)
	require.NoError(t, err)
	alerts := &fakeAlertRepo{alerts: []*domain.StockAlert{stale}}
	service := newTestAlertService(stocks, alerts, nil)

	summary, err := service.CheckLowStock(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.AlertsCreated)
	assert.Equal(t, 1, summary.AlertsResolved)

	active, err := alerts.FindActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Equal(t, domain.AlertStatusResolved, stale.Status)
}

func TestCheckLowStockEscalatesToOutOfStock(t *testing.T) {
	stocks := newFakeStockRepo()
	seedLowStock(t, stocks, "prod-1", 0)

	stale, err := domain.NewStockAlert("prod-1", "", domain.AlertLowStock, 3, 10)
	require.NoError(t, err)
	alerts := &fakeAlertRepo{alerts: []*domain.StockAlert{stale}}
	service := newTestAlertService(stocks, alerts, nil)

	summary, err := service.CheckLowStock(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsCreated)
	assert.Equal(t, domain.AlertStatusResolved, stale.Status)

	outAlert, err := alerts.FindActiveByProduct(context.Background(), "prod-1", domain.AlertOutOfStock)
	require.NoError(t, err)
	require.NotNil(t, outAlert)
}

func TestGetActiveAlerts(t *testing.T) {
	active, err := domain.NewStockAlert("prod-1", "Blue Widget", domain.AlertLowStock, 3, 10)
	require.NoError(t, err)
	resolved, err := domain.NewStockAlert("prod-2", "", domain.AlertLowStock, 4, 10)
	require.NoError(t, err)
	resolved.Resolve()

	alerts := &fakeAlertRepo{alerts: []*domain.StockAlert{active, resolved}}
	service := newTestAlertService(newFakeStockRepo(), alerts, nil)

	dtos, err := service.GetActiveAlerts(context.Background())

	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "prod-1", dtos[0].ProductID)
	assert.Equal(t, "Blue Widget", dtos[0].ProductName)
	assert.Equal(t, string(domain.AlertLowStock), dtos[0].AlertType)
	assert.Equal(t, string(domain.AlertStatusActive), dtos[0].Status)
}

func TestGetAlertStats(t *testing.T) {
	active, err := domain.NewStockAlert("prod-1", "", domain.AlertLowStock, 3, 10)
	require.NoError(t, err)
	critical, err := domain.NewStockAlert("prod-2", "", domain.AlertOutOfStock, 0, 10)
	require.NoError(t, err)
	resolved, err := domain.NewStockAlert("prod-3", "", domain.AlertLowStock, 3, 10)
	require.NoError(t, err)
	resolved.Resolve()

	alerts := &fakeAlertRepo{alerts: []*domain.StockAlert{active, critical, resolved}}
	service := newTestAlertService(newFakeStockRepo(), alerts, nil)

	stats, err := service.GetAlertStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Critical)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 0, stats.Ignored)
	assert.Equal(t, 3, stats.Total)
}

func TestGetReorderSuggestions(t *testing.T) {
	stocks := newFakeStockRepo()
	record := seedLowStock(t, stocks, "prod-low", 3)
	record.MaxStockLevel = 120

	resolver := &fakeResolver{products: map[string]domain.ProductInfo{
		"prod-low": {ID: "prod-low", Name: "Blue Widget"},
	}}
	service := newTestAlertService(stocks, &fakeAlertRepo{}, resolver)

	suggestions, err := service.GetReorderSuggestions(context.Background())

	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	suggestion := suggestions[0]
	assert.Equal(t, "prod-low", suggestion.ProductID)
	assert.Equal(t, "Blue Widget", suggestion.ProductName)
	assert.Equal(t, 3, suggestion.AvailableQuantity)
	assert.Equal(t, 117, suggestion.SuggestedQuantity)
	assert.Equal(t, string(domain.SuggestionPending), suggestion.Status)
}
