package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	"github.com/orderdeskhq/orderdesk-backend/pkg/types"
)

// Order carries the full denormalized state of a customer order. Totals are
// persisted so the record stays self-contained; ComputedTotal is kept even
// when the staff member overrode the charged total.
type Order struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNo         string             `gorm:"column:order_no;not null;uniqueIndex"`
	Status          enums.OrderStatus  `gorm:"column:status;type:text;not null;default:'draft'"`
	Items           types.OrderItems   `gorm:"column:items;type:jsonb;not null"`
	Subtotal        decimal.Decimal    `gorm:"column:subtotal;type:numeric(12,2);not null"`
	VAT             decimal.Decimal    `gorm:"column:vat;type:numeric(12,2);not null"`
	ComputedTotal   decimal.Decimal    `gorm:"column:computed_total;type:numeric(12,2);not null"`
	Total           decimal.Decimal    `gorm:"column:total;type:numeric(12,2);not null"`
	TotalOverridden bool               `gorm:"column:total_overridden;not null;default:false"`
	CustomerInfo    types.CustomerInfo `gorm:"column:customer_info;type:jsonb;not null"`
	Attachments     types.Attachments  `gorm:"column:attachments;type:jsonb;not null;default:'[]'"`
	CreatedBy       uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	VerifiedBy      *uuid.UUID         `gorm:"column:verified_by;type:uuid"`
	VerifiedAt      *time.Time         `gorm:"column:verified_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
