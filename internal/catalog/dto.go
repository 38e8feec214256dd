package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
)

// ProductDTO represents a catalog product payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Slug        string        `json:"slug"`
	Price       string        `json:"price"`
	Currency    string        `json:"currency"`
	InStock     bool          `json:"in_stock"`
	ProductType *TypeDTO      `json:"product_type,omitempty"`
	Categories  []CategoryDTO `json:"categories,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// TypeDTO surfaces product type data.
type TypeDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// CategoryDTO surfaces category data.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ProductListResult is a cursor page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CategoryDetailDTO is a category with its published products.
type CategoryDetailDTO struct {
	Category CategoryDTO  `json:"category"`
	Products []ProductDTO `json:"products"`
}

// TypeDetailDTO is a product type with its published products.
type TypeDetailDTO struct {
	ProductType TypeDTO      `json:"product_type"`
	Products    []ProductDTO `json:"products"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Slug:        product.Slug,
		Price:       product.Price.StringFixed(2),
		Currency:    string(product.Currency),
		InStock:     product.Quantity > 0,
		CreatedAt:   product.CreatedAt,
	}
	if product.ProductType != nil {
		dto.ProductType = &TypeDTO{
			ID:   product.ProductType.ID,
			Name: product.ProductType.Name,
			Slug: product.ProductType.Slug,
		}
	}
	for _, category := range product.Categories {
		dto.Categories = append(dto.Categories, CategoryDTO{
			ID:   category.ID,
			Name: category.Name,
			Slug: category.Slug,
		})
	}
	return dto
}

func newProductDTOs(products []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, NewProductDTO(&products[i]))
	}
	return dtos
}
