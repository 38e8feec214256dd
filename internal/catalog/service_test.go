package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	"github.com/pmorrison-au/teashop-backend/pkg/enums"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
	"github.com/pmorrison-au/teashop-backend/pkg/pagination"
)

type stubCatalogRepo struct {
	products    []models.Product
	nextCursor  string
	product     *models.Product
	category    *models.Category
	productType *models.ProductType
	err         error
}

func (s *stubCatalogRepo) ListPublished(_ context.Context, _ productListQuery) ([]models.Product, string, error) {
	return s.products, s.nextCursor, s.err
}

func (s *stubCatalogRepo) FindPublishedBySlug(_ context.Context, _, _ string) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func (s *stubCatalogRepo) FindCategoryBySlug(_ context.Context, _ string) (*models.Category, []models.Product, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.category, s.products, nil
}

func (s *stubCatalogRepo) FindProductTypeBySlug(_ context.Context, _ string) (*models.ProductType, []models.Product, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.productType, s.products, nil
}

func sampleProduct(name, slug string) models.Product {
	return models.Product{
		ID:       uuid.New(),
		Name:     name,
		Slug:     slug,
		Price:    decimal.RequireFromString("12.50"),
		Currency: enums.CurrencyAUD,
		Quantity: 3,
		ProductType: &models.ProductType{
			ID:   uuid.New(),
			Name: "Green Tea",
			Slug: "green-tea",
		},
	}
}

func TestListProducts(t *testing.T) {
	repo := &stubCatalogRepo{
		products:   []models.Product{sampleProduct("Sencha", "sencha"), sampleProduct("Gyokuro", "gyokuro")},
		nextCursor: "abc123",
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.ListProducts(context.Background(), pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(result.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(result.Products))
	}
	if result.NextCursor != "abc123" {
		t.Fatalf("expected cursor propagated, got %q", result.NextCursor)
	}
	if result.Products[0].Price != "12.50" {
		t.Fatalf("expected price formatted to 2dp, got %q", result.Products[0].Price)
	}
	if !result.Products[0].InStock {
		t.Fatal("expected product in stock")
	}
}

func TestGetProductNotFound(t *testing.T) {
	repo := &stubCatalogRepo{err: gorm.ErrRecordNotFound}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetProduct(context.Background(), "green-tea", "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGetProduct(t *testing.T) {
	product := sampleProduct("Sencha", "sencha")
	product.Categories = []models.Category{{ID: uuid.New(), Name: "Japanese", Slug: "japanese"}}
	repo := &stubCatalogRepo{product: &product}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.GetProduct(context.Background(), "green-tea", "sencha")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if dto.ProductType == nil || dto.ProductType.Slug != "green-tea" {
		t.Fatalf("expected product type preloaded, got %+v", dto.ProductType)
	}
	if len(dto.Categories) != 1 || dto.Categories[0].Slug != "japanese" {
		t.Fatalf("expected categories mapped, got %+v", dto.Categories)
	}
}

func TestGetCategoryNotFound(t *testing.T) {
	repo := &stubCatalogRepo{err: gorm.ErrRecordNotFound}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetCategory(context.Background(), "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGetProductType(t *testing.T) {
	repo := &stubCatalogRepo{
		productType: &models.ProductType{ID: uuid.New(), Name: "Oolong", Slug: "oolong"},
		products:    []models.Product{sampleProduct("Tieguanyin", "tieguanyin")},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	detail, err := svc.GetProductType(context.Background(), "oolong")
	if err != nil {
		t.Fatalf("get product type: %v", err)
	}
	if detail.ProductType.Slug != "oolong" {
		t.Fatalf("expected product type slug, got %q", detail.ProductType.Slug)
	}
	if len(detail.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(detail.Products))
	}
}
