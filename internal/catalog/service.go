package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
	"github.com/pmorrison-au/teashop-backend/pkg/pagination"
)

// Service exposes storefront catalog read operations.
type Service interface {
	ListProducts(ctx context.Context, params pagination.Params) (*ProductListResult, error)
	GetProduct(ctx context.Context, typeSlug, slug string) (*ProductDTO, error)
	GetCategory(ctx context.Context, slug string) (*CategoryDetailDTO, error)
	GetProductType(ctx context.Context, slug string) (*TypeDetailDTO, error)
}

type repository interface {
	ListPublished(ctx context.Context, query productListQuery) ([]models.Product, string, error)
	FindPublishedBySlug(ctx context.Context, typeSlug, slug string) (*models.Product, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, []models.Product, error)
	FindProductTypeBySlug(ctx context.Context, slug string) (*models.ProductType, []models.Product, error)
}

type service struct {
	repo repository
}

// NewService constructs a catalog service instance.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ListProducts returns a cursor page of published products.
func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ProductListResult, error) {
	rows, nextCursor, err := s.repo.ListPublished(ctx, productListQuery{Pagination: params})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return &ProductListResult{
		Products:   newProductDTOs(rows),
		NextCursor: nextCursor,
	}, nil
}

// GetProduct returns a published product by type slug and product slug.
func (s *service) GetProduct(ctx context.Context, typeSlug, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindPublishedBySlug(ctx, typeSlug, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetch product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

// GetCategory returns a category with its published products.
func (s *service) GetCategory(ctx context.Context, slug string) (*CategoryDetailDTO, error) {
	category, products, err := s.repo.FindCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetch category")
	}
	return &CategoryDetailDTO{
		Category: CategoryDTO{ID: category.ID, Name: category.Name, Slug: category.Slug},
		Products: newProductDTOs(products),
	}, nil
}

// GetProductType returns a product type with its published products.
func (s *service) GetProductType(ctx context.Context, slug string) (*TypeDetailDTO, error) {
	productType, products, err := s.repo.FindProductTypeBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetch product type")
	}
	return &TypeDetailDTO{
		ProductType: TypeDTO{ID: productType.ID, Name: productType.Name, Slug: productType.Slug},
		Products:    newProductDTOs(products),
	}, nil
}
