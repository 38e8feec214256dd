package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/internal/cart"
	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	stripeclient "github.com/pmorrison-au/teashop-backend/pkg/stripe"
)

// Repository defines persistence operations for orders, snapshots, and
// checkout addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderByIntentIDForUpdate(ctx context.Context, intentID string) (*models.Order, error)
	FindResumableOrderForUser(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	SaveOrder(ctx context.Context, order *models.Order) error
	CreateFrozenCart(ctx context.Context, snapshot *models.FrozenCart) error
	FindFrozenCart(ctx context.Context, id uuid.UUID) (*models.FrozenCart, error)
	DeleteFrozenCart(ctx context.Context, id uuid.UUID) error
	UpsertOrderAddress(ctx context.Context, orderID uuid.UUID, input AddressInput) error
	UpsertUserAddress(ctx context.Context, userID uuid.UUID, input AddressInput) error
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}

// paymentGateway is the slice of the payment client checkout needs.
// *stripe.Client satisfies it.
type paymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (stripeclient.Intent, error)
	UpdateIntentAmount(ctx context.Context, intentID string, amountCents int64) (stripeclient.Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
}

// cartResolver resolves the caller's live cart. cart.Service satisfies it.
type cartResolver interface {
	Resolve(ctx context.Context, identity cart.Identity, create bool) (*models.Cart, error)
}

// cartReader loads cart lines with products. cart.Repository satisfies it.
type cartReader interface {
	LoadItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
