package application

import (
	"context"
	"fmt"
	"time"

	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/cloudevents"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/logging"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/metrics"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
)

// ReorderSuggestionLimit caps how many suggestions a single call returns
const ReorderSuggestionLimit = 50

// EventPublisher publishes CloudEvents to a Kafka topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.StockCloudEvent) error
}

// AlertApplicationService handles stock alerting and reorder use cases
type AlertApplicationService struct {
	stocks       domain.StockRepository
	alerts       domain.AlertRepository
	resolver     domain.ProductResolver
	producer     EventPublisher
	eventFactory *cloudevents.EventFactory
	alertTopic   string
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewAlertApplicationService creates a new AlertApplicationService
func NewAlertApplicationService(
	stocks domain.StockRepository,
	alerts domain.AlertRepository,
	resolver domain.ProductResolver,
	producer EventPublisher,
	eventFactory *cloudevents.EventFactory,
	alertTopic string,
	m *metrics.Metrics,
	logger *logging.Logger,
) *AlertApplicationService {
	return &AlertApplicationService{
		stocks:       stocks,
		alerts:       alerts,
		resolver:     resolver,
		producer:     producer,
		eventFactory: eventFactory,
		alertTopic:   alertTopic,
		metrics:      m,
		logger:       logger,
	}
}

// ScanLowStock lists products at or below their reorder level,
// out-of-stock first, enriched with product names from the catalog
func (s *AlertApplicationService) ScanLowStock(ctx context.Context) ([]*LowStockItemDTO, error) {
	records, err := s.stocks.FindLowStock(ctx)
	if err != nil {
		s.logger.Error("Failed to scan low stock", "error", err)
		return nil, fmt.Errorf("failed to scan low stock: %w", err)
	}

	productIDs := make([]string, len(records))
	for i, record := range records {
		productIDs[i] = record.ProductID
	}
	products := s.resolver.ResolveProducts(ctx, productIDs)

	items := make([]*LowStockItemDTO, len(records))
	for i, record := range records {
		product := products[record.ProductID]
		sku := product.SKU
		if sku == "" {
			sku = record.SKU
		}
		items[i] = &LowStockItemDTO{
			ProductID:         record.ProductID,
			ProductName:       product.Name,
			SKU:               sku,
			UnitPrice:         product.UnitPrice,
			AvailableQuantity: record.AvailableQuantity,
			ReorderLevel:      record.ReorderLevel,
			IsOutOfStock:      record.IsOutOfStock(),
		}
	}

	return items, nil
}

// CheckLowStock sweeps current stock positions, persisting alerts for
// low and out-of-stock products and resolving alerts for products
// that have recovered
func (s *AlertApplicationService) CheckLowStock(ctx context.Context) (*SweepSummaryDTO, error) {
	start := time.Now()

	lowRecords, err := s.stocks.FindLowStock(ctx)
	if err != nil {
		s.logger.Error("Failed to load low stock records for sweep", "error", err)
		return nil, fmt.Errorf("failed to load low stock records: %w", err)
	}

	productIDs := make([]string, len(lowRecords))
	for i, record := range lowRecords {
		productIDs[i] = record.ProductID
	}
	products := s.resolver.ResolveProducts(ctx, productIDs)

	var created, outOfStock int
	lowSet := make(map[string]bool, len(lowRecords))

	for _, record := range lowRecords {
		lowSet[record.ProductID] = true

		alertType := domain.AlertLowStock
		threshold := record.ReorderLevel
		if record.IsOutOfStock() {
			alertType = domain.AlertOutOfStock
			outOfStock++
		}

		// A product holds at most one active alert per type; when
		// the type flips the stale one gets resolved first.
		other := domain.AlertLowStock
		if alertType == domain.AlertLowStock {
			other = domain.AlertOutOfStock
		}
		if _, err := s.alerts.ResolveForProduct(ctx, record.ProductID, other); err != nil {
			s.logger.Error("Failed to resolve stale alert", "productId", record.ProductID, "error", err)
		}

		existing, err := s.alerts.FindActiveByProduct(ctx, record.ProductID, alertType)
		if err != nil {
			s.logger.Error("Failed to look up active alert", "productId", record.ProductID, "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		alert, err := domain.NewStockAlert(record.ProductID, products[record.ProductID].Name, alertType,
			record.AvailableQuantity, threshold)
		if err != nil {
			continue
		}

		if err := s.alerts.Upsert(ctx, alert); err != nil {
			s.logger.Error("Failed to persist alert", "productId", record.ProductID, "error", err)
			continue
		}
		created++

		s.publishAlertEvent(ctx, record, alert)
	}

	resolved, err := s.resolveRecovered(ctx, lowSet)
	if err != nil {
		s.logger.Error("Failed to resolve recovered alerts", "error", err)
	}

	s.metrics.SetLowStockProducts(len(lowRecords) - outOfStock)
	s.metrics.SetOutOfStockProducts(outOfStock)
	s.updateAlertGauges(ctx)

	duration := time.Since(start)
	s.logger.AlertSweep(ctx, created, resolved, duration)

	return &SweepSummaryDTO{
		Checked:        len(lowRecords),
		AlertsCreated:  created,
		AlertsResolved: resolved,
		SweptAt:        time.Now().UTC(),
	}, nil
}

// GetActiveAlerts lists currently active alerts, newest first
func (s *AlertApplicationService) GetActiveAlerts(ctx context.Context) ([]*AlertDTO, error) {
	alerts, err := s.alerts.FindActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active alerts", "error", err)
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}

	return ToAlertDTOs(alerts), nil
}

// GetAlertStats summarizes the alert collection
func (s *AlertApplicationService) GetAlertStats(ctx context.Context) (*AlertStatsDTO, error) {
	stats, err := s.alerts.Stats(ctx)
	if err != nil {
		s.logger.Error("Failed to compute alert stats", "error", err)
		return nil, fmt.Errorf("failed to compute alert stats: %w", err)
	}

	return ToAlertStatsDTO(stats), nil
}

// GetReorderSuggestions computes restock suggestions ordered by
// shortfall, largest first
func (s *AlertApplicationService) GetReorderSuggestions(ctx context.Context) ([]*ReorderSuggestionDTO, error) {
	records, err := s.stocks.FindReorderCandidates(ctx, ReorderSuggestionLimit)
	if err != nil {
		s.logger.Error("Failed to load reorder candidates", "error", err)
		return nil, fmt.Errorf("failed to load reorder candidates: %w", err)
	}

	productIDs := make([]string, len(records))
	for i, record := range records {
		productIDs[i] = record.ProductID
	}
	products := s.resolver.ResolveProducts(ctx, productIDs)

	suggestions := make([]*ReorderSuggestionDTO, len(records))
	for i, record := range records {
		suggestions[i] = ToReorderSuggestionDTO(domain.NewReorderSuggestion(record, products[record.ProductID].Name))
	}

	s.metrics.SetReorderSuggestions(len(suggestions))
	return suggestions, nil
}

// resolveRecovered resolves active alerts for products no longer below
// their thresholds and returns how many were resolved
func (s *AlertApplicationService) resolveRecovered(ctx context.Context, lowSet map[string]bool) (int, error) {
	active, err := s.alerts.FindActive(ctx)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, alert := range active {
		if alert.AlertType == domain.AlertOverstock || lowSet[alert.ProductID] {
			continue
		}
		count, err := s.alerts.ResolveForProduct(ctx, alert.ProductID, alert.AlertType)
		if err != nil {
			s.logger.Error("Failed to resolve alert", "productId", alert.ProductID, "error", err)
			continue
		}
		resolved += int(count)
	}

	return resolved, nil
}

func (s *AlertApplicationService) publishAlertEvent(ctx context.Context, record *domain.StockRecord, alert *domain.StockAlert) {
	if s.producer == nil || s.eventFactory == nil {
		return
	}

	event := s.eventFactory.CreateLowStockAlertEvent(ctx, record.ProductID, record.SKU,
		record.AvailableQuantity, record.ReorderLevel, string(alert.AlertType))

	if err := s.producer.PublishEvent(ctx, s.alertTopic, event); err != nil {
		s.logger.WithError(err).Error("Failed to publish alert event", "productId", record.ProductID)
	}
}

func (s *AlertApplicationService) updateAlertGauges(ctx context.Context) {
	stats, err := s.alerts.Stats(ctx)
	if err != nil {
		return
	}
	s.metrics.SetActiveAlerts(string(domain.AlertOutOfStock), stats.Critical)
	s.metrics.SetActiveAlerts(string(domain.AlertLowStock), stats.Active-stats.Critical)
}
