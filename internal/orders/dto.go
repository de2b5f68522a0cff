package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	"github.com/orderdeskhq/orderdesk-backend/pkg/types"
)

// Filters narrow an order listing. Zero-valued fields are ignored.
type Filters struct {
	Status      *enums.OrderStatus
	CreatedBy   *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// OrderSummary is the listing row returned to clients.
type OrderSummary struct {
	ID           uuid.UUID         `json:"id"`
	OrderNo      string            `json:"order_no"`
	Status       enums.OrderStatus `json:"status"`
	CustomerName string            `json:"customer_name"`
	Total        decimal.Decimal   `json:"total"`
	ItemCount    int               `json:"item_count"`
	CreatedBy    uuid.UUID         `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
}

// OrderList couples a page of summaries with the next cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderDetail is the full order payload.
type OrderDetail struct {
	ID              uuid.UUID          `json:"id"`
	OrderNo         string             `json:"order_no"`
	Status          enums.OrderStatus  `json:"status"`
	Items           types.OrderItems   `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	VAT             decimal.Decimal    `json:"vat"`
	ComputedTotal   decimal.Decimal    `json:"computed_total"`
	Total           decimal.Decimal    `json:"total"`
	TotalOverridden bool               `json:"total_overridden"`
	CustomerInfo    types.CustomerInfo `json:"customer_info"`
	Attachments     types.Attachments  `json:"attachments"`
	CreatedBy       uuid.UUID          `json:"created_by"`
	VerifiedBy      *uuid.UUID         `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time         `json:"verified_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewOrderSummary maps a model row to its listing shape.
func NewOrderSummary(order models.Order) OrderSummary {
	return OrderSummary{
		ID:           order.ID,
		OrderNo:      order.OrderNo,
		Status:       order.Status,
		CustomerName: order.CustomerInfo.CustomerName,
		Total:        order.Total,
		ItemCount:    len(order.Items),
		CreatedBy:    order.CreatedBy,
		CreatedAt:    order.CreatedAt,
	}
}

// NewOrderDetail maps a model row to its detail shape.
func NewOrderDetail(order models.Order) OrderDetail {
	return OrderDetail{
		ID:              order.ID,
		OrderNo:         order.OrderNo,
		Status:          order.Status,
		Items:           order.Items,
		Subtotal:        order.Subtotal,
		VAT:             order.VAT,
		ComputedTotal:   order.ComputedTotal,
		Total:           order.Total,
		TotalOverridden: order.TotalOverridden,
		CustomerInfo:    order.CustomerInfo,
		Attachments:     order.Attachments,
		CreatedBy:       order.CreatedBy,
		VerifiedBy:      order.VerifiedBy,
		VerifiedAt:      order.VerifiedAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
