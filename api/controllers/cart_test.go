package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pmorrison-au/teashop-backend/api/middleware"
	cartsvc "github.com/pmorrison-au/teashop-backend/internal/cart"
	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
	"github.com/pmorrison-au/teashop-backend/pkg/session"
)

type stubCartService struct {
	dto      *cartsvc.DTO
	err      error
	lastSlug string
	lastQty  int
	lastSet  bool
}

func (s *stubCartService) Resolve(ctx context.Context, identity cartsvc.Identity, create bool) (*models.Cart, error) {
	return nil, s.err
}

func (s *stubCartService) Get(ctx context.Context, identity cartsvc.Identity) (*cartsvc.DTO, error) {
	return s.dto, s.err
}

func (s *stubCartService) AddProduct(ctx context.Context, identity cartsvc.Identity, slug string, quantity int, setQuantity bool) (*cartsvc.DTO, error) {
	s.lastSlug = slug
	s.lastQty = quantity
	s.lastSet = setQuantity
	return s.dto, s.err
}

func (s *stubCartService) RemoveProduct(ctx context.Context, identity cartsvc.Identity, slug string) (*cartsvc.DTO, error) {
	s.lastSlug = slug
	return s.dto, s.err
}

func withShopperContext(req *http.Request, state *session.State) *http.Request {
	ctx := middleware.WithSessionToken(req.Context(), "visitor-token")
	ctx = middleware.WithSessionState(ctx, state)
	return req.WithContext(ctx)
}

func TestGetCartSyncsSessionState(t *testing.T) {
	cartID := uuid.New()
	svc := &stubCartService{dto: &cartsvc.DTO{
		ID:         &cartID,
		Items:      []cartsvc.ItemDTO{},
		TotalPrice: "0.00",
		Currency:   "AUD",
	}}
	handler := GetCart(svc, nil)

	state := &session.State{}
	req := withShopperContext(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), state)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if state.CartID == nil || *state.CartID != cartID {
		t.Fatal("expected session cart pointer updated")
	}
}

func TestGetCartMissingSessionContext(t *testing.T) {
	handler := GetCart(&stubCartService{dto: cartsvc.EmptyDTO()}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestCartAddItemForwardsPayload(t *testing.T) {
	cartID := uuid.New()
	svc := &stubCartService{dto: &cartsvc.DTO{ID: &cartID, Items: []cartsvc.ItemDTO{}, TotalPrice: "25.00", Currency: "AUD"}}
	handler := CartAddItem(svc, nil)

	body := `{"slug":"golden-oolong","quantity":3,"set_quantity":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withShopperContext(req, &session.State{})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.lastSlug != "golden-oolong" || svc.lastQty != 3 || !svc.lastSet {
		t.Fatalf("payload not forwarded: %q %d %v", svc.lastSlug, svc.lastQty, svc.lastSet)
	}

	var envelope struct {
		Data cartsvc.DTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalPrice != "25.00" {
		t.Fatalf("unexpected total %q", envelope.Data.TotalPrice)
	}
}

func TestCartAddItemRejectsUnknownFields(t *testing.T) {
	handler := CartAddItem(&stubCartService{dto: cartsvc.EmptyDTO()}, nil)

	body := `{"slug":"golden-oolong","quantity":1,"bogus":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withShopperContext(req, &session.State{})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemClearsSessionOnEmpty(t *testing.T) {
	svc := &stubCartService{dto: cartsvc.EmptyDTO()}
	handler := CartRemoveItem(svc, nil)

	cartID := uuid.New()
	state := &session.State{}
	state.SetCart(cartID)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/golden-oolong", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("slug", "golden-oolong")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = withShopperContext(req, state)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastSlug != "golden-oolong" {
		t.Fatalf("slug not forwarded: %q", svc.lastSlug)
	}
	if state.CartID != nil {
		t.Fatal("expected session cart pointer cleared")
	}
}

func TestCartAddItemNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := CartAddItem(svc, nil)

	body := `{"slug":"missing","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withShopperContext(req, &session.State{})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
