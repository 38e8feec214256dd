package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pmorrison-au/teashop-backend/pkg/enums"
)

// Product is a purchasable catalog entry. Unpublished products are hidden
// from listings but stay referenced by existing carts and snapshots.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Description   string          `gorm:"column:description;not null;default:''"`
	Slug          string          `gorm:"column:slug;uniqueIndex;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Currency      enums.Currency  `gorm:"column:currency;not null;default:'AUD'"`
	Quantity      int             `gorm:"column:quantity;not null;default:0"`
	IsPublished   bool            `gorm:"column:is_published;not null;default:false"`
	ProductTypeID uuid.UUID       `gorm:"column:product_type_id;type:uuid;not null"`
	ProductType   *ProductType    `gorm:"foreignKey:ProductTypeID"`
	Categories    []Category      `gorm:"many2many:product_categories"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
