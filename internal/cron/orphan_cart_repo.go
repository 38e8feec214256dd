package cron

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
)

// OrphanCartRepository reads and deletes session-owned carts for the
// cleanup job. It runs against the transaction the job hands it.
type OrphanCartRepository struct{}

// NewOrphanCartRepository builds the cleanup repository.
func NewOrphanCartRepository() *OrphanCartRepository {
	return &OrphanCartRepository{}
}

// ListSessionCarts pages through carts that belong to a visitor session,
// ordered by id for stable keyset pagination.
func (r *OrphanCartRepository) ListSessionCarts(ctx context.Context, tx *gorm.DB, afterID *uuid.UUID, limit int) ([]models.Cart, error) {
	qb := tx.WithContext(ctx).
		Where("session_token IS NOT NULL").
		Order("id ASC").
		Limit(limit)
	if afterID != nil {
		qb = qb.Where("id > ?", *afterID)
	}
	var rows []models.Cart
	if err := qb.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteCarts removes the given carts; item rows cascade.
func (r *OrphanCartRepository) DeleteCarts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := tx.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Cart{})
	return result.RowsAffected, result.Error
}
