package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	"github.com/pmorrison-au/teashop-backend/pkg/enums"
)

// ItemDTO is one product line in the cart view.
type ItemDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total"`
}

// DTO is the cart payload returned to clients. An empty DTO (nil ID) means
// the caller currently has no cart at all.
type DTO struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Items      []ItemDTO  `json:"items"`
	TotalPrice string     `json:"total_price"`
	Currency   string     `json:"currency"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// EmptyDTO is what a missing or just-deleted cart renders as.
func EmptyDTO() *DTO {
	return &DTO{
		Items:      []ItemDTO{},
		TotalPrice: decimal.Zero.StringFixed(2),
		Currency:   string(enums.CurrencyAUD),
	}
}

// NewDTO builds the cart view from a cart row and its loaded lines.
func NewDTO(cart *models.Cart, items []models.CartItem) *DTO {
	dto := EmptyDTO()
	if cart == nil {
		return dto
	}
	id := cart.ID
	updatedAt := cart.UpdatedAt
	dto.ID = &id
	dto.UpdatedAt = &updatedAt

	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		lineTotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)
		dto.Currency = string(item.Product.Currency)
		dto.Items = append(dto.Items, ItemDTO{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Slug:      item.Product.Slug,
			UnitPrice: item.Product.Price.StringFixed(2),
			Quantity:  item.Quantity,
			LineTotal: lineTotal.StringFixed(2),
		})
	}
	dto.TotalPrice = total.StringFixed(2)
	return dto
}
