package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	"github.com/pmorrison-au/teashop-backend/pkg/enums"
)

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

func (r *repository) findOrder(ctx context.Context, lock bool, cond string, args ...any) (*models.Order, error) {
	qb := r.db.WithContext(ctx)
	if lock {
		qb = qb.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := qb.Where(cond, args...).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOrder(ctx, false, "id = ?", id)
}

func (r *repository) FindOrderByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOrder(ctx, true, "id = ?", id)
}

func (r *repository) FindOrderByIntentIDForUpdate(ctx context.Context, intentID string) (*models.Order, error) {
	return r.findOrder(ctx, true, "payment_intent_id = ?", intentID)
}

// FindResumableOrderForUser returns the user's newest order still waiting
// for details, if any.
func (r *repository) FindResumableOrderForUser(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.OrderStatusCreated).
		Order("created_at DESC").
		First(&order).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// CreateFrozenCart inserts the snapshot and its item rows in one go.
func (r *repository) CreateFrozenCart(ctx context.Context, snapshot *models.FrozenCart) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *repository) FindFrozenCart(ctx context.Context, id uuid.UUID) (*models.FrozenCart, error) {
	var snapshot models.FrozenCart
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&snapshot, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// DeleteFrozenCart removes a superseded snapshot; item rows cascade.
func (r *repository) DeleteFrozenCart(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FrozenCart{}).Error
}

func (r *repository) upsertAddress(ctx context.Context, cond string, ownerCol string, ownerID uuid.UUID, input AddressInput) error {
	var existing models.Address
	err := r.db.WithContext(ctx).First(&existing, cond, ownerID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		address := models.Address{
			Street:     input.Street,
			City:       input.City,
			State:      input.State,
			PostalCode: input.PostalCode,
			Country:    input.Country,
		}
		switch ownerCol {
		case "order_id":
			address.OrderID = &ownerID
		case "user_id":
			address.UserID = &ownerID
		}
		return r.db.WithContext(ctx).Create(&address).Error
	}

	existing.Street = input.Street
	existing.City = input.City
	existing.State = input.State
	existing.PostalCode = input.PostalCode
	existing.Country = input.Country
	return r.db.WithContext(ctx).Save(&existing).Error
}

func (r *repository) UpsertOrderAddress(ctx context.Context, orderID uuid.UUID, input AddressInput) error {
	return r.upsertAddress(ctx, "order_id = ?", "order_id", orderID, input)
}

func (r *repository) UpsertUserAddress(ctx context.Context, userID uuid.UUID, input AddressInput) error {
	return r.upsertAddress(ctx, "user_id = ?", "user_id", userID, input)
}

// DeleteCart removes the live cart once payment lands; lines cascade.
func (r *repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{}).Error
}
