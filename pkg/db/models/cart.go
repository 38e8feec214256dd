package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a mutable bag of items owned by exactly one of an anonymous
// session token or an authenticated user. The one-owner rule is enforced
// by a CHECK constraint in the schema and by the cart.Owner type at the
// domain layer. Carts are created lazily on first mutation and deleted
// when their last item is removed.
type Cart struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionToken *string    `gorm:"column:session_token;uniqueIndex"`
	UserID       *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex"`
	Items        []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
