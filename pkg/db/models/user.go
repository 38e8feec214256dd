package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal account record the storefront needs. Registration
// and login live in a separate identity service; this table exists so
// carts, orders and saved addresses have something to hang off.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
