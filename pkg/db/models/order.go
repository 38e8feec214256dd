package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pmorrison-au/teashop-backend/pkg/enums"
)

// Order records a checkout attempt against one payment-gateway transaction.
// Orders are never deleted; they only move forward through OrderStatus.
// FrozenCartID always points at the current snapshot; CartID keeps the
// link to the still-live cart until the success webhook clears it.
type Order struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentIntentID     string            `gorm:"column:payment_intent_id;uniqueIndex;not null"`
	PaymentClientSecret string            `gorm:"column:payment_client_secret;not null"`
	Status              enums.OrderStatus `gorm:"column:status;not null;default:'created'"`
	UserID              *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	Email               string            `gorm:"column:email;not null;default:''"`
	FrozenCartID        uuid.UUID         `gorm:"column:frozen_cart_id;type:uuid;not null"`
	FrozenCart          *FrozenCart       `gorm:"foreignKey:FrozenCartID"`
	CartID              *uuid.UUID        `gorm:"column:cart_id;type:uuid"`
	Address             *Address          `gorm:"foreignKey:OrderID"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
