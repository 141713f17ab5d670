package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/logging"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/metrics"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/resilience"
)

// UnknownProductName is returned when the catalog cannot be reached
// or does not know the product. Lookups are best-effort: alerting and
// reorder suggestions degrade to a placeholder name instead of failing.
const UnknownProductName = "Unknown Product"

const defaultRequestTimeout = 5 * time.Second

// Client resolves product display names from the catalog service.
// Calls go through a circuit breaker so a down catalog does not slow
// every alert sweep to its timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryConfig
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

var _ domain.ProductResolver = (*Client)(nil)

type productResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	UnitPrice float64 `json:"unit_price"`
}

func (p *productResponse) toInfo() domain.ProductInfo {
	info := domain.ProductInfo{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		UnitPrice: p.UnitPrice,
	}
	if info.Name == "" {
		info.Name = UnknownProductName
	}
	return info
}

func NewClient(baseURL string, m *metrics.Metrics, logger *logging.Logger) *Client {
	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("catalog-service"), logger.Logger)

	// One retry on transport errors and 5xx; 404 resolves cleanly and
	// never gets here
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = 2
	retry.RetryableErrors = func(err error) bool { return true }

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		breaker:    breaker,
		retry:      retry,
		metrics:    m,
		logger:     logger,
	}
}

// ResolveName returns the product's display name, or the placeholder
// when the catalog is unreachable or the product is unknown
func (c *Client) ResolveName(ctx context.Context, productID string) string {
	start := time.Now()

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, c.retry, func() (*productResponse, error) {
			return c.fetchProduct(ctx, productID)
		})
	})

	duration := time.Since(start)
	c.metrics.RecordExternalRequest("catalog-service", "get_product", err == nil, duration)
	c.logger.ExternalCall(ctx, "catalog-service", "get_product", duration, err == nil)

	if err != nil {
		c.logger.Debug("Product name lookup failed", "productId", productID, "error", err)
		return UnknownProductName
	}

	product := result.(*productResponse)
	if product.Name == "" {
		return UnknownProductName
	}
	return product.Name
}

// ResolveProducts resolves a batch of product IDs in one catalog call.
// Every requested ID is present in the result; misses map to the
// placeholder name so callers never have to nil-check.
func (c *Client) ResolveProducts(ctx context.Context, productIDs []string) map[string]domain.ProductInfo {
	products := make(map[string]domain.ProductInfo, len(productIDs))
	for _, productID := range productIDs {
		products[productID] = domain.ProductInfo{ID: productID, Name: UnknownProductName}
	}
	if len(products) == 0 {
		return products
	}

	start := time.Now()

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, c.retry, func() ([]productResponse, error) {
			return c.fetchProducts(ctx, productIDs)
		})
	})

	duration := time.Since(start)
	c.metrics.RecordExternalRequest("catalog-service", "get_products_batch", err == nil, duration)
	c.logger.ExternalCall(ctx, "catalog-service", "get_products_batch", duration, err == nil)

	if err != nil {
		c.logger.Debug("Product batch lookup failed", "products", len(products), "error", err)
		return products
	}

	for _, product := range result.([]productResponse) {
		if _, wanted := products[product.ID]; !wanted {
			continue
		}
		products[product.ID] = product.toInfo()
	}
	return products
}

func (c *Client) fetchProducts(ctx context.Context, productIDs []string) ([]productResponse, error) {
	body, err := json.Marshal(map[string][]string{"ids": productIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/products/batch", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var products []productResponse
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return products, nil
}

func (c *Client) fetchProduct(ctx context.Context, productID string) (*productResponse, error) {
	endpoint := fmt.Sprintf("%s/api/products/%s", c.baseURL, url.PathEscape(productID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Not an outage; don't count unknown products against the breaker
		return &productResponse{ID: productID}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var product productResponse
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return &product, nil
}
