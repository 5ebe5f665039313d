package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	checkoutsvc "github.com/angelmondragon/storefront-cart/internal/checkout"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

type stubCheckoutService struct {
	view    checkoutsvc.SurfaceView
	outcome checkoutsvc.SubmitOutcome
	err     error
	found   bool
	closed  int

	lastTenant  string
	lastSurface string
	lastQuote   checkoutsvc.QuoteRequest
	lastSubmit  checkoutsvc.SubmitRequest
}

func (s *stubCheckoutService) QuoteCheckout(ctx context.Context, tenantID, surfaceID string, req checkoutsvc.QuoteRequest) (checkoutsvc.SurfaceView, error) {
	s.lastTenant, s.lastSurface, s.lastQuote = tenantID, surfaceID, req
	return s.view, s.err
}

func (s *stubCheckoutService) BuildAndSubmitDraft(ctx context.Context, tenantID, surfaceID string, req checkoutsvc.SubmitRequest) (checkoutsvc.SubmitOutcome, error) {
	s.lastTenant, s.lastSurface, s.lastSubmit = tenantID, surfaceID, req
	return s.outcome, s.err
}

func (s *stubCheckoutService) Surface(tenantID, surfaceID string) (checkoutsvc.SurfaceView, error) {
	s.lastTenant, s.lastSurface = tenantID, surfaceID
	return s.view, s.err
}

func (s *stubCheckoutService) Abandon(tenantID, surfaceID string) bool {
	s.lastTenant, s.lastSurface = tenantID, surfaceID
	return s.found
}

func (s *stubCheckoutService) AbandonTenant(ctx context.Context, tenantID string) int {
	s.lastTenant = tenantID
	return s.closed
}

func surfaceRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/stores/shop-a/checkout/tab-1/quote", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(surfaceIDParam, "tab-1")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithTenantID(ctx, "shop-a"))
}

func TestCheckoutQuoteDefaultsToCartAndHome(t *testing.T) {
	svc := &stubCheckoutService{view: checkoutsvc.SurfaceView{State: enums.SurfaceStateQuoted, CanSubmit: true}}
	handler := CheckoutQuote(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, `{"destination":{"line1":"1 Main St","city":"Austin"}}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastTenant != "shop-a" || svc.lastSurface != "tab-1" {
		t.Fatalf("unexpected ids %s/%s", svc.lastTenant, svc.lastSurface)
	}
	if svc.lastQuote.Mode != enums.CheckoutModeCart {
		t.Fatalf("expected cart mode, got %s", svc.lastQuote.Mode)
	}
	if svc.lastQuote.DeliveryType != enums.DeliveryTypeHome {
		t.Fatalf("expected home delivery, got %s", svc.lastQuote.DeliveryType)
	}
	if svc.lastQuote.Item != nil {
		t.Fatalf("cart mode should not carry an item")
	}

	var envelope struct {
		Data checkoutsvc.SurfaceView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.CanSubmit {
		t.Fatalf("expected canSubmit in response")
	}
}

func TestCheckoutQuoteBuyNowRequiresItem(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := CheckoutQuote(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, `{"mode":"buy_now","deliveryType":"pickup"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastTenant != "" {
		t.Fatalf("service should not be called")
	}
}

func TestCheckoutQuoteBuyNowRejectsOversizedQuantity(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := CheckoutQuote(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, `{"mode":"buy_now","deliveryType":"pickup","item":{"productId":"p1","quantity":10001}}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastTenant != "" {
		t.Fatalf("service should not be called")
	}
}

func TestCheckoutQuoteBuyNowMapsItem(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := CheckoutQuote(svc, nil)

	body := `{"mode":"buy_now","deliveryType":"pickup","item":{"productId":"p1","size":"L","quantity":2}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	item := svc.lastQuote.Item
	if item == nil || item.ProductID != "p1" || item.Quantity != 2 {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.Variant.Color != nil || item.Variant.Size == nil || *item.Variant.Size != "L" {
		t.Fatalf("unexpected variant %+v", item.Variant)
	}
}

func TestCheckoutQuoteRejectsUnknownDeliveryType(t *testing.T) {
	handler := CheckoutQuote(&stubCheckoutService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, `{"deliveryType":"drone"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutQuoteFailureStatus(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeQuoteFailure, "pricing unavailable")}
	handler := CheckoutQuote(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, `{"deliveryType":"pickup"}`))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", resp.Code)
	}
}

func TestCheckoutSubmitRequiresCustomer(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := CheckoutSubmit(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, `{"deliveryType":"pickup","customer":{"name":"Ana"}}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastTenant != "" {
		t.Fatalf("service should not be called")
	}
}

func TestCheckoutSubmitCreated(t *testing.T) {
	svc := &stubCheckoutService{outcome: checkoutsvc.SubmitOutcome{
		Order: checkoutsvc.SubmitResult{OrderID: "ord-1"},
	}}
	handler := CheckoutSubmit(svc, nil)

	body := `{"deliveryType":"pickup","couponCode":" save10 ","customer":{"name":"Ana","phone":"555-0100"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastSubmit.Customer.Name != "Ana" {
		t.Fatalf("customer not forwarded: %+v", svc.lastSubmit.Customer)
	}
	if svc.lastSubmit.CouponCode != "save10" {
		t.Fatalf("expected trimmed coupon, got %q", svc.lastSubmit.CouponCode)
	}
}

func TestCheckoutSubmitStaleQuote(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "quote is stale")}
	handler := CheckoutSubmit(svc, nil)

	body := `{"deliveryType":"pickup","customer":{"name":"Ana","phone":"555-0100"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodPost, body))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCheckoutSurfaceNotFound(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")}
	handler := CheckoutSurface(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodGet, ""))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCheckoutAbandon(t *testing.T) {
	svc := &stubCheckoutService{found: true}
	handler := CheckoutAbandon(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodDelete, ""))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}

	svc.found = false
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodDelete, ""))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCheckoutLeaveStore(t *testing.T) {
	svc := &stubCheckoutService{closed: 3}
	handler := CheckoutLeaveStore(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, surfaceRequest(http.MethodDelete, ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastTenant != "shop-a" {
		t.Fatalf("service called with tenant %q", svc.lastTenant)
	}
	if !strings.Contains(resp.Body.String(), `"closed":3`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/stores//checkout", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
