package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	cartsvc "github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/types"
)

type stubCartService struct {
	mutation cartsvc.Mutation
	view     cartsvc.View
	err      error

	lastTenant   string
	lastProduct  string
	lastVariant  lineitem.Variant
	lastQuantity int
}

func (s *stubCartService) AddOrIncrement(ctx context.Context, tenantID, productID string, variant lineitem.Variant, quantity int) (cartsvc.Mutation, error) {
	s.lastTenant, s.lastProduct, s.lastVariant, s.lastQuantity = tenantID, productID, variant, quantity
	return s.mutation, s.err
}

func (s *stubCartService) SetLineQuantity(ctx context.Context, tenantID, productID string, variant lineitem.Variant, quantity int) (cartsvc.Mutation, error) {
	s.lastTenant, s.lastProduct, s.lastVariant, s.lastQuantity = tenantID, productID, variant, quantity
	return s.mutation, s.err
}

func (s *stubCartService) RemoveLine(ctx context.Context, tenantID, productID string, variant lineitem.Variant) (cartsvc.Mutation, error) {
	s.lastTenant, s.lastProduct, s.lastVariant = tenantID, productID, variant
	return s.mutation, s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, tenantID string) (cartsvc.Mutation, error) {
	s.lastTenant = tenantID
	return s.mutation, s.err
}

func (s *stubCartService) ClearLines(ctx context.Context, tenantID string, keys []lineitem.Key) error {
	return s.err
}

func (s *stubCartService) GetHydratedCart(ctx context.Context, tenantID string) (cartsvc.View, error) {
	s.lastTenant = tenantID
	return s.view, s.err
}

func (s *stubCartService) PruneUnresolved(ctx context.Context, tenantID string) (cartsvc.Mutation, error) {
	s.lastTenant = tenantID
	return s.mutation, s.err
}

func (s *stubCartService) Lines(ctx context.Context, tenantID string) ([]lineitem.LineIntent, error) {
	return s.mutation.Lines, s.err
}

func newTenantRequest(method, body, tenant string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/stores/"+tenant+"/cart/lines", strings.NewReader(body))
	return req.WithContext(middleware.WithTenantID(req.Context(), tenant))
}

func TestCartFetchSuccess(t *testing.T) {
	svc := &stubCartService{view: cartsvc.View{TenantID: "shop-a"}}
	handler := CartFetch(svc, nil)

	req := newTenantRequest(http.MethodGet, "", "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TenantID != "shop-a" {
		t.Fatalf("unexpected tenant: %s", envelope.Data.TenantID)
	}
	if svc.lastTenant != "shop-a" {
		t.Fatalf("service called with tenant %q", svc.lastTenant)
	}
}

func TestCartFetchMissingTenant(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores//cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddLinePassesVariant(t *testing.T) {
	svc := &stubCartService{mutation: cartsvc.Mutation{
		Lines: []lineitem.LineIntent{{ProductID: "p1", Variant: lineitem.NewVariant("red", "M"), Quantity: 2}},
	}}
	handler := CartAddLine(svc, nil)

	req := newTenantRequest(http.MethodPost, `{"productId":"p1","color":"red","size":"M","quantity":2}`, "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastProduct != "p1" || svc.lastQuantity != 2 {
		t.Fatalf("unexpected call: %s x%d", svc.lastProduct, svc.lastQuantity)
	}
	if svc.lastVariant.Color == nil || *svc.lastVariant.Color != "red" {
		t.Fatalf("expected color red, got %+v", svc.lastVariant)
	}
	if svc.lastVariant.Size == nil || *svc.lastVariant.Size != "M" {
		t.Fatalf("expected size M, got %+v", svc.lastVariant)
	}
}

func TestCartAddLineRejectsZeroQuantity(t *testing.T) {
	svc := &stubCartService{}
	handler := CartAddLine(svc, nil)

	req := newTenantRequest(http.MethodPost, `{"productId":"p1","quantity":0}`, "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastProduct != "" {
		t.Fatalf("service should not be called")
	}
}

func TestCartAddLineRejectsOversizedQuantity(t *testing.T) {
	svc := &stubCartService{}
	handler := CartAddLine(svc, nil)

	req := newTenantRequest(http.MethodPost, `{"productId":"p1","quantity":9223372036854775807}`, "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastProduct != "" {
		t.Fatalf("service should not be called")
	}
}

func TestCartAddLineRejectsUnknownFields(t *testing.T) {
	handler := CartAddLine(&stubCartService{}, nil)

	req := newTenantRequest(http.MethodPost, `{"productId":"p1","quantity":1,"price":1}`, "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddLineSurfacesNotices(t *testing.T) {
	svc := &stubCartService{mutation: cartsvc.Mutation{
		Lines: []lineitem.LineIntent{{ProductID: "p1", Quantity: 3}},
		Notices: []types.Notice{{
			Type: enums.NoticeTypeStockExceeded, ProductID: "p1", Requested: 5, Applied: 3,
		}},
	}}
	handler := CartAddLine(svc, nil)

	req := newTenantRequest(http.MethodPost, `{"productId":"p1","quantity":5}`, "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var envelope struct {
		Data cartsvc.Mutation `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Notices) != 1 || envelope.Data.Notices[0].Applied != 3 {
		t.Fatalf("expected clamp notice, got %+v", envelope.Data.Notices)
	}
}

func TestCartSetLineQuantityNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")}
	handler := CartSetLineQuantity(svc, nil)

	req := newTenantRequest(http.MethodPut, `{"productId":"p9","quantity":3}`, "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartRemoveLineWithoutVariant(t *testing.T) {
	svc := &stubCartService{}
	handler := CartRemoveLine(svc, nil)

	req := newTenantRequest(http.MethodDelete, `{"productId":"p1"}`, "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastVariant.Color != nil || svc.lastVariant.Size != nil {
		t.Fatalf("expected empty variant, got %+v", svc.lastVariant)
	}
}

func TestCartClearAndPrune(t *testing.T) {
	svc := &stubCartService{}
	for name, handler := range map[string]http.HandlerFunc{
		"clear": CartClear(svc, nil),
		"prune": CartPrune(svc, nil),
	} {
		svc.lastTenant = ""
		req := newTenantRequest(http.MethodPost, "", "shop-b")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", name, resp.Code)
		}
		if svc.lastTenant != "shop-b" {
			t.Fatalf("%s: unexpected tenant %q", name, svc.lastTenant)
		}
	}
}

func TestCartHandlersNilService(t *testing.T) {
	handler := CartFetch(nil, nil)
	req := newTenantRequest(http.MethodGet, "", "shop-a")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
