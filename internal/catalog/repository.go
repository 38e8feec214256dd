package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	"github.com/pmorrison-au/teashop-backend/pkg/pagination"
)

// Repository wires together catalog read paths.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindPublishedBySlug loads a published product by type slug and product slug.
func (r *Repository) FindPublishedBySlug(ctx context.Context, typeSlug, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN product_types pt ON pt.id = products.product_type_id").
		Preload("ProductType").
		Preload("Categories").
		Where("pt.slug = ? AND products.slug = ? AND products.is_published", typeSlug, slug).
		First(&product).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindCategoryBySlug loads a category with its published products.
func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, []models.Product, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, nil, err
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN product_categories pc ON pc.product_id = products.id").
		Preload("ProductType").
		Where("pc.category_id = ? AND products.is_published", category.ID).
		Order("products.created_at DESC").
		Find(&products).
		Error
	if err != nil {
		return nil, nil, err
	}
	return &category, products, nil
}

// FindProductTypeBySlug loads a product type with its published products.
func (r *Repository) FindProductTypeBySlug(ctx context.Context, slug string) (*models.ProductType, []models.Product, error) {
	var productType models.ProductType
	if err := r.db.WithContext(ctx).First(&productType, "slug = ?", slug).Error; err != nil {
		return nil, nil, err
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("ProductType").
		Where("product_type_id = ? AND is_published", productType.ID).
		Order("created_at DESC").
		Find(&products).
		Error
	if err != nil {
		return nil, nil, err
	}
	return &productType, products, nil
}

type productListQuery struct {
	Pagination pagination.Params
}

// ListPublished returns a cursor page of published products, newest first.
func (r *Repository) ListPublished(ctx context.Context, query productListQuery) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Preload("ProductType").
		Where("is_published")
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err = qb.Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
