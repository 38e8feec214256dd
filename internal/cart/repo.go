package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
)

// repository is the GORM-backed cart store. Mutating callers are expected
// to run inside a transaction and take row locks through the ForUpdate
// variants so concurrent requests against the same cart serialize.
type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) findOne(ctx context.Context, lock bool, cond string, args ...any) (*models.Cart, error) {
	qb := r.db.WithContext(ctx)
	if lock {
		qb = qb.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var cart models.Cart
	if err := qb.Where(cond, args...).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) FindBySessionToken(ctx context.Context, token string) (*models.Cart, error) {
	return r.findOne(ctx, false, "session_token = ?", token)
}

func (r *repository) FindBySessionTokenForUpdate(ctx context.Context, token string) (*models.Cart, error) {
	return r.findOne(ctx, true, "session_token = ?", token)
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.findOne(ctx, false, "user_id = ?", userID)
}

func (r *repository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.findOne(ctx, true, "user_id = ?", userID)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	return r.findOne(ctx, false, "id = ?", id)
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *repository) Save(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Save(cart).Error
}

// Delete removes a cart; item rows cascade at the schema level.
func (r *repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

// Touch refreshes the cart's updated_at, which checkout compares against
// the snapshot's created_at to detect divergence.
func (r *repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", gorm.Expr("now()")).
		Error
}

// LoadItems returns the cart's lines with products preloaded, stable order.
func (r *repository) LoadItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.ProductType").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).
		Error
	return items, err
}

func (r *repository) FindLineForUpdate(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "cart_id = ? AND product_id = ?", cartID, productID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) SaveLine(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteLine removes the (cart, product) line. Returns the number of rows
// deleted so callers can tell a no-op apart from a real removal.
func (r *repository) DeleteLine(ctx context.Context, cartID, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

func (r *repository) CountLines(ctx context.Context, cartID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).
		Error
	return count, err
}

// FindProductBySlug loads a published product for cart mutations.
func (r *repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		First(&product, "slug = ? AND is_published", slug).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
