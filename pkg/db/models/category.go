package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for browsing (e.g. "green tea", "gifts").
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductType is the general kind of product: tea, teaware, and so on.
// Products reference exactly one type; deleting a type with products is
// blocked at the schema level.
type ProductType struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
