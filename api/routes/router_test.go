package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/cartstore"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	checkoutsvc "github.com/angelmondragon/storefront-cart/internal/checkout"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalog struct {
	products map[string]catalog.ProductSnapshot
}

func (s stubCatalog) FetchProductsByIDs(ctx context.Context, ids []string) ([]catalog.ProductSnapshot, error) {
	out := make([]catalog.ProductSnapshot, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s stubCatalog) FetchProduct(ctx context.Context, id string) (catalog.ProductSnapshot, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return catalog.ProductSnapshot{}, pkgerrors.New(pkgerrors.CodeProductUnresolved, "product not found")
}

type stubCheckout struct {
	lastTenant  string
	lastSurface string
}

func (s *stubCheckout) QuoteCheckout(ctx context.Context, tenantID, surfaceID string, req checkoutsvc.QuoteRequest) (checkoutsvc.SurfaceView, error) {
	s.lastTenant, s.lastSurface = tenantID, surfaceID
	return checkoutsvc.SurfaceView{TenantID: tenantID, SurfaceID: surfaceID}, nil
}

func (s *stubCheckout) BuildAndSubmitDraft(ctx context.Context, tenantID, surfaceID string, req checkoutsvc.SubmitRequest) (checkoutsvc.SubmitOutcome, error) {
	return checkoutsvc.SubmitOutcome{}, pkgerrors.New(pkgerrors.CodeStateConflict, "a successful quote is required before submitting")
}

func (s *stubCheckout) Surface(tenantID, surfaceID string) (checkoutsvc.SurfaceView, error) {
	s.lastTenant, s.lastSurface = tenantID, surfaceID
	return checkoutsvc.SurfaceView{TenantID: tenantID, SurfaceID: surfaceID}, nil
}

func (s *stubCheckout) Abandon(tenantID, surfaceID string) bool {
	return false
}

func (s *stubCheckout) AbandonTenant(ctx context.Context, tenantID string) int {
	s.lastTenant = tenantID
	return 2
}

func newTestRouter(t *testing.T, checkout checkoutsvc.Service) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewCartMetrics(reg)

	hydrator, err := catalog.NewHydrator(stubCatalog{products: map[string]catalog.ProductSnapshot{
		"mug": {ID: "mug", Name: "Mug", PriceCents: 1200, StockCeiling: 3, Physical: true, Active: true},
	}}, logger.Nop(), m)
	require.NoError(t, err)

	cartSvc, err := cart.NewService(cartstore.NewMemoryStore(), hydrator, hydrator, logger.Nop())
	require.NoError(t, err)

	cfg := &config.Config{
		App:  config.AppConfig{Env: "test"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	return NewRouter(Deps{
		Config:          cfg,
		Logger:          logger.Nop(),
		Pingers:         map[string]controllers.Pinger{"db": stubPinger{}},
		Gatherer:        reg,
		CartService:     cartSvc,
		CheckoutService: checkout,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, &stubCheckout{})

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health/ready", "").Code)
}

func TestRequestIDEchoed(t *testing.T) {
	router := newTestRouter(t, &stubCheckout{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, "req-123", resp.Header().Get("X-Request-Id"))
}

func TestCartRoutesRoundTrip(t *testing.T) {
	router := newTestRouter(t, &stubCheckout{})

	resp := do(t, router, http.MethodPost, "/api/v1/stores/shop-a/cart/lines", `{"productId":"mug","quantity":2}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = do(t, router, http.MethodPost, "/api/v1/stores/shop-a/cart/lines", `{"productId":"mug","quantity":5}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var mutation struct {
		Data cart.Mutation `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&mutation))
	require.Len(t, mutation.Data.Lines, 1)
	assert.Equal(t, 3, mutation.Data.Lines[0].Quantity)
	assert.NotEmpty(t, mutation.Data.Notices)

	resp = do(t, router, http.MethodGet, "/api/v1/stores/shop-a/cart", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var view struct {
		Data cart.View `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view.Data.Lines, 1)
	assert.Equal(t, "Mug", view.Data.Lines[0].Product.Name)

	resp = do(t, router, http.MethodGet, "/api/v1/stores/shop-b/cart", "")
	require.Equal(t, http.StatusOK, resp.Code)
	view.Data = cart.View{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Empty(t, view.Data.Lines)

	resp = do(t, router, http.MethodDelete, "/api/v1/stores/shop-a/cart", "")
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestCartRouteUnknownProduct(t *testing.T) {
	router := newTestRouter(t, &stubCheckout{})

	resp := do(t, router, http.MethodPost, "/api/v1/stores/shop-a/cart/lines", `{"productId":"ghost","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCheckoutRoutesCarryIDs(t *testing.T) {
	checkout := &stubCheckout{}
	router := newTestRouter(t, checkout)

	resp := do(t, router, http.MethodPost, "/api/v1/stores/shop-a/checkout/tab-9/quote", `{"deliveryType":"pickup"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "shop-a", checkout.lastTenant)
	assert.Equal(t, "tab-9", checkout.lastSurface)

	resp = do(t, router, http.MethodPost, "/api/v1/stores/shop-a/checkout/tab-9/submit",
		`{"deliveryType":"pickup","customer":{"name":"Ana","phone":"555-0100"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = do(t, router, http.MethodDelete, "/api/v1/stores/shop-a/checkout/tab-9", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, router, http.MethodDelete, "/api/v1/stores/shop-b/checkout", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "shop-b", checkout.lastTenant)
	assert.JSONEq(t, `{"data":{"closed":2}}`, resp.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t, &stubCheckout{})

	do(t, router, http.MethodGet, "/api/v1/stores/shop-a/cart", "")
	resp := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "checkout_quotes_issued_total")
}
