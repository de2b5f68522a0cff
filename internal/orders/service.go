package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
	pkgpagination "github.com/orderdeskhq/orderdesk-backend/pkg/pagination"
	"github.com/orderdeskhq/orderdesk-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderNoAllocator interface {
	Next(ctx context.Context, tx *gorm.DB) (string, error)
}

// ProductSource loads the catalog rows an order snapshots at creation time.
type ProductSource interface {
	FindByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Product, error)
}

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
}

// CreateOrderItem references a product and the quantity ordered.
type CreateOrderItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput captures everything needed to open an order.
type CreateOrderInput struct {
	Actor         Actor
	Items         []CreateOrderItem
	CustomerInfo  types.CustomerInfo
	TotalOverride *decimal.Decimal
	Submit        bool
}

// AttachmentInput adds a document to a draft order.
type AttachmentInput struct {
	Actor      Actor
	OrderID    uuid.UUID
	Attachment types.Attachment
}

// ListParams carries listing filters alongside the actor.
type ListParams struct {
	Actor       Actor
	Limit       int
	Cursor      string
	Status      *enums.OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)
	Submit(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error)
	Verify(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error)
	List(ctx context.Context, params ListParams) (*OrderList, error)
	Detail(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error)
	AddAttachment(ctx context.Context, input AttachmentInput) (*OrderDetail, error)
	RemoveAttachment(ctx context.Context, orderID uuid.UUID, index int, actor Actor) (*OrderDetail, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	orderNo  orderNoAllocator
	products ProductSource
	vatRate  decimal.Decimal
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, orderNo orderNoAllocator, products ProductSource, vatRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orderNo == nil {
		return nil, fmt.Errorf("order number allocator required")
	}
	if products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if vatRate.IsNegative() {
		return nil, fmt.Errorf("vat rate must not be negative")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		orderNo:  orderNo,
		products: products,
		vatRate:  vatRate,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error) {
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Actor.Role.Can(enums.CapCreateOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can create orders")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if strings.TrimSpace(input.CustomerInfo.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}

	quantities := make(map[uuid.UUID]int, len(input.Items))
	ids := make([]uuid.UUID, 0, len(input.Items))
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: product id required", i)
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: quantity must be at least 1", i)
		}
		if _, seen := quantities[item.ProductID]; seen {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: duplicate product", i)
		}
		quantities[item.ProductID] = item.Quantity
		ids = append(ids, item.ProductID)
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.products.FindByIDs(ctx, tx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(rows))
		for _, row := range rows {
			byID[row.ID] = row
		}

		items := make(types.OrderItems, 0, len(ids))
		for _, id := range ids {
			product, ok := byID[id]
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "product %s not found", id)
			}
			if !product.IsEnabled {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "product %s is disabled", id)
			}
			items = append(items, types.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  quantities[id],
				UnitPrice: product.Price,
			})
		}

		totals, err := ComputeTotals(items, s.vatRate, input.TotalOverride)
		if err != nil {
			return err
		}

		orderNo, err := s.orderNo.Next(ctx, tx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		status := enums.OrderStatusDraft
		if input.Submit {
			status = enums.OrderStatusSubmitted
		}

		order := &models.Order{
			OrderNo:         orderNo,
			Status:          status,
			Items:           items,
			Subtotal:        totals.Subtotal,
			VAT:             totals.VAT,
			ComputedTotal:   totals.ComputedTotal,
			Total:           totals.Total,
			TotalOverridden: totals.Overridden,
			CustomerInfo:    input.CustomerInfo,
			Attachments:     types.Attachments{},
			CreatedBy:       input.Actor.ID,
		}

		created, err = s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	detail := NewOrderDetail(*created)
	return &detail, nil
}

func (s *service) Submit(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error) {
	return s.transition(ctx, orderID, enums.OrderStatusSubmitted, actor)
}

func (s *service) Verify(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error) {
	return s.transition(ctx, orderID, enums.OrderStatusVerified, actor)
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error) {
	return s.transition(ctx, orderID, enums.OrderStatusCancelled, actor)
}

func (s *service) transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actor Actor) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		apply, err := ValidateTransition(TransitionRequest{
			Current:      order.Status,
			Requested:    target,
			ActorID:      actor.ID,
			ActorRole:    actor.Role,
			ActorIsOwner: order.CreatedBy == actor.ID,
			VerifiedBy:   order.VerifiedBy,
		})
		if err != nil {
			return err
		}
		if !apply {
			result = order
			return nil
		}

		updates := map[string]any{"status": target}
		if target == enums.OrderStatusVerified {
			now := time.Now().UTC()
			updates["verified_by"] = actor.ID
			updates["verified_at"] = now
			verifier := actor.ID
			order.VerifiedBy = &verifier
			order.VerifiedAt = &now
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		order.Status = target
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	detail := NewOrderDetail(*result)
	return &detail, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*OrderList, error) {
	if params.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if params.CreatedFrom != nil && params.CreatedTo != nil && params.CreatedTo.Before(*params.CreatedFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "created_to must not precede created_from")
	}

	scope := ListScope(params.Actor.Role, params.Actor.ID, params.Status)
	query := listOrdersParams{
		Limit:       params.Limit,
		Status:      scope.Status,
		CreatedBy:   scope.CreatedBy,
		CreatedFrom: params.CreatedFrom,
		CreatedTo:   params.CreatedTo,
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	summaries := make([]OrderSummary, len(rows))
	for i, row := range rows {
		summaries[i] = NewOrderSummary(row)
	}

	result := &OrderList{Orders: summaries}
	if next != nil {
		result.NextCursor = pkgpagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Detail(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := AuthorizeRead(order.CreatedBy, actor.ID, actor.Role); err != nil {
		return nil, err
	}

	detail := NewOrderDetail(*order)
	return &detail, nil
}

func (s *service) AddAttachment(ctx context.Context, input AttachmentInput) (*OrderDetail, error) {
	if !input.Attachment.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid attachment type")
	}
	if strings.TrimSpace(input.Attachment.URL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "attachment url required")
	}
	return s.mutateAttachments(ctx, input.OrderID, input.Actor, func(attachments types.Attachments) (types.Attachments, error) {
		return append(attachments, input.Attachment), nil
	})
}

func (s *service) RemoveAttachment(ctx context.Context, orderID uuid.UUID, index int, actor Actor) (*OrderDetail, error) {
	return s.mutateAttachments(ctx, orderID, actor, func(attachments types.Attachments) (types.Attachments, error) {
		if index < 0 || index >= len(attachments) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "attachment not found")
		}
		return append(attachments[:index:index], attachments[index+1:]...), nil
	})
}

func (s *service) mutateAttachments(ctx context.Context, orderID uuid.UUID, actor Actor, mutate func(types.Attachments) (types.Attachments, error)) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CreatedBy != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
		if order.Status != enums.OrderStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "attachments can only change on draft orders")
		}

		attachments, err := mutate(order.Attachments)
		if err != nil {
			return err
		}
		if attachments == nil {
			attachments = types.Attachments{}
		}
		if err := repo.Update(ctx, order.ID, map[string]any{"attachments": attachments}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update attachments")
		}

		order.Attachments = attachments
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	detail := NewOrderDetail(*result)
	return &detail, nil
}
