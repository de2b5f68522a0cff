package models

import (
	"time"

	"github.com/google/uuid"
)

// Promotion is a per-product withdraw discount.
type Promotion struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	WithdrawAmount int       `gorm:"column:withdraw_amount;not null;default:0"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
