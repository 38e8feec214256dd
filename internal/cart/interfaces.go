package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
)

// Repository defines persistence operations for carts and cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBySessionToken(ctx context.Context, token string) (*models.Cart, error)
	FindBySessionTokenForUpdate(ctx context.Context, token string) (*models.Cart, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, cartID uuid.UUID) error
	Touch(ctx context.Context, cartID uuid.UUID) error
	LoadItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindLineForUpdate(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	SaveLine(ctx context.Context, item *models.CartItem) error
	DeleteLine(ctx context.Context, cartID, productID uuid.UUID) (int64, error)
	CountLines(ctx context.Context, cartID uuid.UUID) (int64, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
