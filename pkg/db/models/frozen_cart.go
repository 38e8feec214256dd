package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pmorrison-au/teashop-backend/pkg/enums"
)

// FrozenCart is an immutable snapshot of a live cart taken at checkout.
// Later catalog edits never change it; when the live cart diverges before
// payment, the whole snapshot is replaced, not mutated.
type FrozenCart struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TotalPrice decimal.Decimal  `gorm:"column:total_price;type:numeric(10,2);not null"`
	Currency   enums.Currency   `gorm:"column:currency;not null;default:'AUD'"`
	Items      []FrozenCartItem `gorm:"foreignKey:FrozenCartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// FrozenCartItem captures the product name, description and unit price as
// they were at snapshot time. ProductID is kept for equality checks but
// nulls out if the product is later deleted.
type FrozenCartItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FrozenCartID uuid.UUID       `gorm:"column:frozen_cart_id;type:uuid;not null"`
	ProductID    *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Name         string          `gorm:"column:name;not null"`
	Description  string          `gorm:"column:description;not null;default:''"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity     int             `gorm:"column:quantity;not null;check:quantity > 0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
