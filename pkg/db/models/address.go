package models

import (
	"time"

	"github.com/google/uuid"
)

// Address belongs to exactly one of a user profile or an order; the
// schema enforces the mutual exclusion with a CHECK constraint. Checkout
// upserts the order copy and can duplicate it onto the user's profile.
type Address struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex"`
	OrderID    *uuid.UUID `gorm:"column:order_id;type:uuid;uniqueIndex"`
	Street     string     `gorm:"column:street;not null"`
	City       string     `gorm:"column:city;not null"`
	State      string     `gorm:"column:state;not null"`
	PostalCode string     `gorm:"column:postal_code;not null"`
	Country    string     `gorm:"column:country;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
