package checkout

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/internal/cart"
	"github.com/pmorrison-au/teashop-backend/pkg/config"
	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	"github.com/pmorrison-au/teashop-backend/pkg/enums"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
	"github.com/pmorrison-au/teashop-backend/pkg/session"
)

// ErrCartEmpty signals there is nothing to check out; controllers send the
// caller back to the cart page.
var ErrCartEmpty = pkgerrors.New(pkgerrors.CodeConflict, "cart is empty")

// Service runs the checkout lifecycle: snapshot the cart, open a payment
// intent, collect details, and reconcile gateway webhooks.
type Service interface {
	Begin(ctx context.Context, identity cart.Identity, sess *session.State) (*View, error)
	UpdateDetails(ctx context.Context, identity cart.Identity, sess *session.State, input DetailsInput) error
	ConfirmSuccess(ctx context.Context, sess *session.State, clientSecret string) (*ConfirmResult, error)
	HandlePaymentSucceeded(ctx context.Context, paymentIntentID string) error
	HandlePaymentCanceled(ctx context.Context, paymentIntentID string) error
}

// ServiceParams collects the checkout service dependencies.
type ServiceParams struct {
	Repo              Repository
	Gateway           paymentGateway
	CartResolver      cartResolver
	CartReader        cartReader
	TransactionRunner txRunner
	Config            config.CheckoutConfig
}

type service struct {
	repo     Repository
	gateway  paymentGateway
	carts    cartResolver
	lines    cartReader
	txRunner txRunner
	cfg      config.CheckoutConfig
}

// NewService constructs a checkout service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout repository required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.CartResolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart resolver required")
	}
	if params.CartReader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart reader required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		gateway:  params.Gateway,
		carts:    params.CartResolver,
		lines:    params.CartReader,
		txRunner: params.TransactionRunner,
		cfg:      params.Config,
	}, nil
}

// stateConflict renders the same generic message no matter which check
// failed; the internal message only reaches logs.
func stateConflict(internal string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, internal)
}

func secretMatches(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}

// Begin is idempotent: reloading the payment page resumes the open order
// when the cart still matches its snapshot, reprices it when the cart
// diverged, and only otherwise opens a fresh order.
func (s *service) Begin(ctx context.Context, identity cart.Identity, sess *session.State) (*View, error) {
	liveCart, err := s.carts.Resolve(ctx, identity, false)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, ErrCartEmpty
		}
		return nil, err
	}
	items, err := s.lines.LoadItems(ctx, liveCart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	order, err := s.findResumable(ctx, identity, sess)
	if err != nil {
		return nil, err
	}
	if order != nil {
		snapshot, err := s.repo.FindFrozenCart(ctx, order.FrozenCartID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order snapshot")
		}
		if !liveCart.UpdatedAt.After(snapshot.CreatedAt) || hasSameItems(snapshot.Items, items) {
			return newView(order, snapshot), nil
		}
		return s.reprice(ctx, order, snapshot, items)
	}
	return s.open(ctx, identity, sess, liveCart, items)
}

// findResumable looks for an order still in created: first the one the
// session remembers, then the user's newest open order.
func (s *service) findResumable(ctx context.Context, identity cart.Identity, sess *session.State) (*models.Order, error) {
	if sess != nil && sess.OrderID != nil {
		order, err := s.repo.FindOrderByID(ctx, *sess.OrderID)
		switch {
		case err == nil:
			if order.Status == enums.OrderStatusCreated {
				return order, nil
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load remembered order")
		}
	}

	if identity.UserID != nil {
		order, err := s.repo.FindResumableOrderForUser(ctx, *identity.UserID)
		switch {
		case err == nil:
			if sess != nil {
				sess.RememberOrder(order.ID, s.cfg.OrderHistoryMax)
			}
			return order, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find resumable order")
		}
	}
	return nil, nil
}

func (s *service) buildSnapshot(items []models.CartItem) *models.FrozenCart {
	snapshot := &models.FrozenCart{Currency: enums.ParseCurrency(s.cfg.Currency)}
	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		productID := item.ProductID
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		snapshot.Items = append(snapshot.Items, models.FrozenCartItem{
			ProductID:   &productID,
			Name:        item.Product.Name,
			Description: item.Product.Description,
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
		})
	}
	snapshot.TotalPrice = total
	return snapshot
}

// open snapshots the cart, opens a gateway intent, and records the order,
// all or nothing.
func (s *service) open(ctx context.Context, identity cart.Identity, sess *session.State, liveCart *models.Cart, items []models.CartItem) (*View, error) {
	snapshot := s.buildSnapshot(items)
	var order *models.Order
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateFrozenCart(ctx, snapshot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create snapshot")
		}
		intent, err := s.gateway.CreateIntent(ctx, toCents(snapshot.TotalPrice), string(snapshot.Currency))
		if err != nil {
			return err
		}
		cartID := liveCart.ID
		order = &models.Order{
			PaymentIntentID:     intent.ID,
			PaymentClientSecret: intent.ClientSecret,
			Status:              enums.OrderStatusCreated,
			UserID:              identity.UserID,
			FrozenCartID:        snapshot.ID,
			CartID:              &cartID,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sess != nil {
		sess.RememberOrder(order.ID, s.cfg.OrderHistoryMax)
	}
	return newView(order, snapshot), nil
}

// reprice swaps the order onto a fresh snapshot because the live cart
// changed after the order was opened. The gateway amount is only touched
// when the total actually moved; the superseded snapshot is deleted in the
// same transaction.
func (s *service) reprice(ctx context.Context, order *models.Order, old *models.FrozenCart, items []models.CartItem) (*View, error) {
	snapshot := s.buildSnapshot(items)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateFrozenCart(ctx, snapshot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create snapshot")
		}
		if !snapshot.TotalPrice.Equal(old.TotalPrice) {
			intent, err := s.gateway.UpdateIntentAmount(ctx, order.PaymentIntentID, toCents(snapshot.TotalPrice))
			if err != nil {
				return err
			}
			if intent.ClientSecret != "" {
				order.PaymentClientSecret = intent.ClientSecret
			}
		}
		order.FrozenCartID = snapshot.ID
		if err := repo.SaveOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "repoint order")
		}
		if err := repo.DeleteFrozenCart(ctx, old.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete stale snapshot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newView(order, snapshot), nil
}

// UpdateDetails records the contact form and moves the order to pending.
// It only applies while the order is still in created and the submitted
// client secret matches; every other outcome is the same generic conflict.
func (s *service) UpdateDetails(ctx context.Context, identity cart.Identity, sess *session.State, input DetailsInput) error {
	if sess == nil || sess.OrderID == nil {
		return stateConflict("no checkout in progress")
	}
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderByIDForUpdate(ctx, *sess.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return stateConflict("remembered order missing")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order.Status != enums.OrderStatusCreated {
			return stateConflict("order already moved past created")
		}
		if !secretMatches(order.PaymentClientSecret, input.ClientSecret) {
			return stateConflict("client secret mismatch")
		}

		order.Email = input.Email
		if identity.UserID != nil {
			order.UserID = identity.UserID
		}
		order.Status = enums.OrderStatusPending
		if err := repo.SaveOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save order details")
		}
		if err := repo.UpsertOrderAddress(ctx, order.ID, input.Address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save order address")
		}
		if input.SaveToProfile && identity.UserID != nil {
			if err := repo.UpsertUserAddress(ctx, *identity.UserID, input.Address); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save profile address")
			}
		}
		return nil
	})
}

// ConfirmSuccess validates the post-payment redirect. The webhook may lag
// the redirect, so a still-pending order reports processing and the page
// polls; only a settled order clears the session's order reference.
func (s *service) ConfirmSuccess(ctx context.Context, sess *session.State, clientSecret string) (*ConfirmResult, error) {
	if sess == nil || sess.OrderID == nil {
		return nil, stateConflict("no checkout in progress")
	}
	order, err := s.repo.FindOrderByID(ctx, *sess.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stateConflict("remembered order missing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !secretMatches(order.PaymentClientSecret, clientSecret) {
		return nil, stateConflict("client secret mismatch")
	}

	switch order.Status {
	case enums.OrderStatusSuccess:
		sess.ForgetOrder()
		return &ConfirmResult{State: ConfirmStateSuccess, OrderID: order.ID}, nil
	case enums.OrderStatusPending:
		return &ConfirmResult{State: ConfirmStateProcessing, OrderID: order.ID}, nil
	default:
		return nil, stateConflict("order not paid")
	}
}

// HandlePaymentSucceeded settles the order for a gateway success event.
// Replays are harmless: an order already in success is a no-op. This is
// also the single place the live cart gets cleared.
func (s *service) HandlePaymentSucceeded(ctx context.Context, paymentIntentID string) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderByIntentIDForUpdate(ctx, paymentIntentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no order for payment intent")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by intent")
		}
		if order.Status == enums.OrderStatusSuccess {
			return nil
		}
		if !order.Status.CanTransition(enums.OrderStatusSuccess) {
			return stateConflict("order cannot settle from " + string(order.Status))
		}

		order.Status = enums.OrderStatusSuccess
		if order.CartID != nil {
			if err := repo.DeleteCart(ctx, *order.CartID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear paid cart")
			}
			order.CartID = nil
		}
		if err := repo.SaveOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle order")
		}
		return nil
	})
}

// HandlePaymentCanceled abandons an order whose intent was canceled before
// details were ever submitted. Anything further along is left alone.
func (s *service) HandlePaymentCanceled(ctx context.Context, paymentIntentID string) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderByIntentIDForUpdate(ctx, paymentIntentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no order for payment intent")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by intent")
		}
		if order.Status != enums.OrderStatusCreated {
			return nil
		}
		order.Status = enums.OrderStatusCanceled
		if err := repo.SaveOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}
		return nil
	})
}

// hasSameItems is set equality on (product, quantity). A snapshot line
// whose product has since been deleted can never match a live line.
func hasSameItems(snapshotItems []models.FrozenCartItem, cartItems []models.CartItem) bool {
	if len(snapshotItems) != len(cartItems) {
		return false
	}
	quantities := make(map[uuid.UUID]int, len(cartItems))
	for _, item := range cartItems {
		quantities[item.ProductID] = item.Quantity
	}
	for _, frozen := range snapshotItems {
		if frozen.ProductID == nil {
			return false
		}
		qty, ok := quantities[*frozen.ProductID]
		if !ok || qty != frozen.Quantity {
			return false
		}
	}
	return true
}
