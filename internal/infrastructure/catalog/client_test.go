package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/logging"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/metrics"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := logging.DefaultConfig("catalog-test")
	config.Output = io.Discard

	return NewClient(server.URL, metrics.New(metrics.DefaultConfig("catalog-test")), logging.New(config))
}

func TestResolveName(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/prod-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"prod-1","name":"Blue Widget"}`))
	}))

	name := client.ResolveName(context.Background(), "prod-1")
	assert.Equal(t, "Blue Widget", name)
}

func TestResolveNameUnknownProduct(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	name := client.ResolveName(context.Background(), "ghost")
	assert.Equal(t, UnknownProductName, name)
}

func TestResolveNameCatalogError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	name := client.ResolveName(context.Background(), "prod-1")
	assert.Equal(t, UnknownProductName, name)
}

func TestResolveNameCatalogDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	config := logging.DefaultConfig("catalog-test")
	config.Output = io.Discard
	client := NewClient(server.URL, metrics.New(metrics.DefaultConfig("catalog-test")), logging.New(config))

	name := client.ResolveName(context.Background(), "prod-1")
	assert.Equal(t, UnknownProductName, name)
}

func TestResolveProducts(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/products/batch", r.URL.Path)

		var body struct {
			IDs []string `json:"ids"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.ElementsMatch(t, []string{"prod-1", "ghost"}, body.IDs)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"prod-1","name":"Blue Widget","sku":"BW-001","unit_price":12.5}]`))
	}))

	products := client.ResolveProducts(context.Background(), []string{"prod-1", "ghost", "prod-1"})

	// One catalog call covers the whole batch
	assert.Equal(t, 1, calls)
	assert.Len(t, products, 2)
	assert.Equal(t, "Blue Widget", products["prod-1"].Name)
	assert.Equal(t, "BW-001", products["prod-1"].SKU)
	assert.Equal(t, 12.5, products["prod-1"].UnitPrice)
	assert.Equal(t, UnknownProductName, products["ghost"].Name)
}

func TestResolveProductsEmpty(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	products := client.ResolveProducts(context.Background(), nil)

	assert.Empty(t, products)
	assert.Zero(t, calls)
}

func TestResolveProductsCatalogError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	products := client.ResolveProducts(context.Background(), []string{"prod-1"})

	assert.Len(t, products, 1)
	assert.Equal(t, UnknownProductName, products["prod-1"].Name)
}

func TestResolveNameBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	// Enough consecutive failures to trip the breaker; later lookups
	// short-circuit without reaching the server
	for i := 0; i < 10; i++ {
		client.ResolveName(context.Background(), "prod-1")
	}
	served := calls

	for i := 0; i < 5; i++ {
		assert.Equal(t, UnknownProductName, client.ResolveName(context.Background(), "prod-1"))
	}
	assert.Equal(t, served, calls)
}
