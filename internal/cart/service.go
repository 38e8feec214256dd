package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
)

// Service exposes the cart engine: owner resolution with merge-on-login,
// line upserts and removals, and the read path.
type Service interface {
	Resolve(ctx context.Context, identity Identity, create bool) (*models.Cart, error)
	Get(ctx context.Context, identity Identity) (*DTO, error)
	AddProduct(ctx context.Context, identity Identity, slug string, quantity int, setQuantity bool) (*DTO, error)
	RemoveProduct(ctx context.Context, identity Identity, slug string) (*DTO, error)
}

type service struct {
	repo     Repository
	txRunner txRunner
}

// NewService constructs a cart service instance.
func NewService(repo Repository, runner txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, txRunner: runner}, nil
}

// Resolve finds the caller's cart under the ownership policy. Anonymous
// visitors get their session cart. Authenticated users get their user
// cart, after any session cart left over from before login is merged in
// or adopted. With create set, a missing cart is created lazily.
func (s *service) Resolve(ctx context.Context, identity Identity, create bool) (*models.Cart, error) {
	var resolved *models.Cart
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.resolveLocked(ctx, s.repo.WithTx(tx), identity, create)
		if err != nil {
			return err
		}
		resolved = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// resolveLocked runs the resolution policy inside the caller's transaction,
// taking FOR UPDATE locks on every cart it may mutate.
func (s *service) resolveLocked(ctx context.Context, repo Repository, identity Identity, create bool) (*models.Cart, error) {
	if identity.UserID == nil {
		return s.resolveSessionLocked(ctx, repo, identity.SessionToken, create)
	}
	return s.resolveUserLocked(ctx, repo, identity, create)
}

func (s *service) resolveSessionLocked(ctx context.Context, repo Repository, token string, create bool) (*models.Cart, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session token required")
	}
	cart, err := repo.FindBySessionTokenForUpdate(ctx, token)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find session cart")
	}
	if !create {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}

	owner, err := SessionOwner(token)
	if err != nil {
		return nil, err
	}
	return s.createCart(ctx, repo, owner)
}

func (s *service) resolveUserLocked(ctx context.Context, repo Repository, identity Identity, create bool) (*models.Cart, error) {
	userCart, err := repo.FindByUserIDForUpdate(ctx, *identity.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user cart")
	}

	var sessionCart *models.Cart
	if identity.SessionToken != "" {
		sessionCart, err = repo.FindBySessionTokenForUpdate(ctx, identity.SessionToken)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find session cart")
		}
	}

	switch {
	case userCart != nil && sessionCart != nil:
		if err := s.mergeLocked(ctx, repo, userCart, sessionCart); err != nil {
			return nil, err
		}
		return userCart, nil
	case sessionCart != nil:
		// Adopt the anonymous cart: it becomes the user's cart wholesale.
		owner, ownerErr := UserOwner(*identity.UserID)
		if ownerErr != nil {
			return nil, ownerErr
		}
		owner.apply(sessionCart)
		if err := repo.Save(ctx, sessionCart); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adopt session cart")
		}
		return sessionCart, nil
	case userCart != nil:
		return userCart, nil
	case create:
		owner, ownerErr := UserOwner(*identity.UserID)
		if ownerErr != nil {
			return nil, ownerErr
		}
		return s.createCart(ctx, repo, owner)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
}

func (s *service) createCart(ctx context.Context, repo Repository, owner Owner) (*models.Cart, error) {
	cart := &models.Cart{}
	owner.apply(cart)
	if err := repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return cart, nil
}

// mergeLocked folds source into target line by line: quantities for shared
// products sum, everything else moves over, and the source cart is deleted.
// Both carts must already be locked by the caller; any failure rolls the
// whole merge back.
func (s *service) mergeLocked(ctx context.Context, repo Repository, target, source *models.Cart) error {
	sourceItems, err := repo.LoadItems(ctx, source.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load source cart items")
	}

	for _, item := range sourceItems {
		existing, err := repo.FindLineForUpdate(ctx, target.ID, item.ProductID)
		switch {
		case err == nil:
			existing.Quantity += item.Quantity
			if err := repo.SaveLine(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart line")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			moved := &models.CartItem{
				CartID:    target.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			}
			if err := repo.SaveLine(ctx, moved); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move cart line")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find target cart line")
		}
	}

	if err := repo.Delete(ctx, source.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete merged cart")
	}
	if len(sourceItems) > 0 {
		if err := repo.Touch(ctx, target.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch merged cart")
		}
	}
	return nil
}

// Get is the read path: resolve without creating, render the cart or an
// empty view when the caller has none.
func (s *service) Get(ctx context.Context, identity Identity) (*DTO, error) {
	cart, err := s.Resolve(ctx, identity, false)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return EmptyDTO(), nil
		}
		return nil, err
	}
	items, err := s.repo.LoadItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	return NewDTO(cart, items), nil
}

// AddProduct upserts a line for the slug. setQuantity overwrites the line
// quantity, otherwise the quantity is added to whatever is there. A
// non-positive quantity is rejected either way and nothing changes.
func (s *service) AddProduct(ctx context.Context, identity Identity, slug string, quantity int, setQuantity bool) (*DTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var added *models.Cart
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.resolveLocked(ctx, repo, identity, true)
		if err != nil {
			return err
		}
		added = cart

		product, err := repo.FindProductBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
		}

		line, err := repo.FindLineForUpdate(ctx, cart.ID, product.ID)
		switch {
		case err == nil:
			if setQuantity {
				line.Quantity = quantity
			} else {
				line.Quantity += quantity
			}
			if err := repo.SaveLine(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = &models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  quantity,
			}
			if err := repo.SaveLine(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert cart line")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find cart line")
		}

		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	items, err := s.repo.LoadItems(ctx, added.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	return NewDTO(added, items), nil
}

// RemoveProduct deletes the slug's line if present. Removing the last line
// deletes the cart itself; removing from a missing cart or a line the cart
// never had is a no-op.
func (s *service) RemoveProduct(ctx context.Context, identity Identity, slug string) (*DTO, error) {
	var (
		cart        *models.Cart
		cartDeleted bool
	)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		resolved, err := s.resolveLocked(ctx, repo, identity, false)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil
			}
			return err
		}
		cart = resolved

		product, err := repo.FindProductBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
		}

		removed, err := repo.DeleteLine(ctx, cart.ID, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
		}
		if removed == 0 {
			return nil
		}

		remaining, err := repo.CountLines(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count cart lines")
		}
		if remaining == 0 {
			cartDeleted = true
			return repo.Delete(ctx, cart.ID)
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	if cart == nil || cartDeleted {
		return EmptyDTO(), nil
	}
	items, err := s.repo.LoadItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	return NewDTO(cart, items), nil
}
