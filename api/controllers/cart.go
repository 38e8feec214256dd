package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pmorrison-au/teashop-backend/api/middleware"
	"github.com/pmorrison-au/teashop-backend/api/responses"
	"github.com/pmorrison-au/teashop-backend/api/validators"
	cartsvc "github.com/pmorrison-au/teashop-backend/internal/cart"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
	"github.com/pmorrison-au/teashop-backend/pkg/logger"
	"github.com/pmorrison-au/teashop-backend/pkg/session"
)

// identityFromRequest assembles the shopper identity seeded by the session
// and optional-auth middleware.
func identityFromRequest(r *http.Request) (cartsvc.Identity, error) {
	token := middleware.SessionTokenFromContext(r.Context())
	if token == "" {
		return cartsvc.Identity{}, pkgerrors.New(pkgerrors.CodeInternal, "session context missing")
	}
	return cartsvc.Identity{
		SessionToken: token,
		UserID:       middleware.UserIDFromContext(r.Context()),
	}, nil
}

func sessionStateFromRequest(r *http.Request) (*session.State, error) {
	state := middleware.SessionStateFromContext(r.Context())
	if state == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session context missing")
	}
	return state, nil
}

// syncCartState keeps the session's cart pointer aligned with what the cart
// service rendered: a cart id when one exists, cleared when it does not.
func syncCartState(state *session.State, dto *cartsvc.DTO) {
	if dto != nil && dto.ID != nil {
		state.SetCart(*dto.ID)
		return
	}
	state.ClearCart()
}

// GetCart returns the shopper's current cart, empty when none exists.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		identity, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := sessionStateFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		syncCartState(state, dto)
		responses.WriteSuccess(w, dto)
	}
}

type cartItemRequest struct {
	Slug        string `json:"slug" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required"`
	SetQuantity bool   `json:"set_quantity"`
}

// CartAddItem adds a product to the cart, creating the cart on first use.
// With set_quantity the given quantity replaces the line instead of adding.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		identity, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := sessionStateFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.AddProduct(r.Context(), identity, strings.TrimSpace(payload.Slug), payload.Quantity, payload.SetQuantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		syncCartState(state, dto)
		responses.WriteSuccess(w, dto)
	}
}

// CartRemoveItem drops a product line; removing the last line deletes the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		identity, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := sessionStateFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required"))
			return
		}

		dto, err := svc.RemoveProduct(r.Context(), identity, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		syncCartState(state, dto)
		responses.WriteSuccess(w, dto)
	}
}
