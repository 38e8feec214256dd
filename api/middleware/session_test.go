package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pmorrison-au/teashop-backend/pkg/config"
	"github.com/pmorrison-au/teashop-backend/pkg/session"
)

type stubSessionStore struct {
	states map[string]*session.State
	saved  map[string]*session.State
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{
		states: map[string]*session.State{},
		saved:  map[string]*session.State{},
	}
}

func (s *stubSessionStore) Load(ctx context.Context, token string) (*session.State, error) {
	if state, ok := s.states[token]; ok {
		return state, nil
	}
	return &session.State{}, nil
}

func (s *stubSessionStore) Save(ctx context.Context, token string, state *session.State) error {
	s.saved[token] = state
	return nil
}

func sessionTestConfig() config.SessionConfig {
	return config.SessionConfig{
		CookieName:   "teashop_session",
		TTL:          336 * time.Hour,
		CookieSecure: true,
	}
}

func TestSessionIssuesCookieForNewVisitor(t *testing.T) {
	store := newStubSessionStore()
	cfg := sessionTestConfig()

	var captured string
	handler := Session(store, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = SessionTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured == "" {
		t.Fatal("expected session token in context")
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != cfg.CookieName || cookie.Value != captured {
		t.Fatalf("cookie does not match context token")
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatal("cookie attributes not applied")
	}
	if _, ok := store.saved[captured]; !ok {
		t.Fatal("expected state persisted for new token")
	}
}

func TestSessionReusesExistingCookie(t *testing.T) {
	store := newStubSessionStore()
	cartID := uuid.New()
	state := &session.State{}
	state.SetCart(cartID)
	store.states["existing-token"] = state

	var captured *session.State
	handler := Session(store, sessionTestConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = SessionStateFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "teashop_session", Value: "existing-token"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("expected no new cookie for returning visitor")
	}
	if captured == nil || captured.CartID == nil || *captured.CartID != cartID {
		t.Fatal("expected stored state loaded into context")
	}
}

func TestSessionPersistsHandlerMutations(t *testing.T) {
	store := newStubSessionStore()
	orderID := uuid.New()

	handler := Session(store, sessionTestConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SessionStateFromContext(r.Context()).RememberOrder(orderID, 10)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "teashop_session", Value: "existing-token"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	saved, ok := store.saved["existing-token"]
	if !ok {
		t.Fatal("expected state saved after handler")
	}
	if saved.OrderID == nil || *saved.OrderID != orderID {
		t.Fatal("handler mutation not persisted")
	}
}
