package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
	"github.com/orderdeskhq/orderdesk-backend/pkg/types"
)

// Totals carries every money figure computed for an order. ComputedTotal is
// retained even when the charged total was overridden.
type Totals struct {
	Subtotal      decimal.Decimal
	VAT           decimal.Decimal
	ComputedTotal decimal.Decimal
	Total         decimal.Decimal
	Overridden    bool
}

// ComputeTotals derives subtotal, VAT, and total from the item snapshot.
// An override replaces the charged total but never the computed one.
func ComputeTotals(items types.OrderItems, vatRate decimal.Decimal, override *decimal.Decimal) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if vatRate.IsNegative() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "vat rate must not be negative")
	}

	subtotal := decimal.Zero
	for i, item := range items {
		if item.Quantity < 1 {
			return Totals{}, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: quantity must be at least 1", i)
		}
		if item.UnitPrice.IsNegative() {
			return Totals{}, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: unit price must not be negative", i)
		}
		subtotal = subtotal.Add(item.LineTotal())
	}

	vat := subtotal.Mul(vatRate).Round(2)
	computed := subtotal.Add(vat)

	totals := Totals{
		Subtotal:      subtotal,
		VAT:           vat,
		ComputedTotal: computed,
		Total:         computed,
	}

	if override != nil {
		if override.IsNegative() {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "total override must not be negative")
		}
		totals.Total = *override
		totals.Overridden = true
	}

	return totals, nil
}

// TransitionRequest describes a requested status change with full actor context.
type TransitionRequest struct {
	Current      enums.OrderStatus
	Requested    enums.OrderStatus
	ActorID      uuid.UUID
	ActorRole    enums.Role
	ActorIsOwner bool
	VerifiedBy   *uuid.UUID
}

// ValidateTransition enforces the order lifecycle. It returns apply=false for
// the single idempotent case: an admin re-verifying an order they already
// verified. Every other repeat or illegal edge is a STATE_CONFLICT, and a
// legal edge attempted by the wrong actor is FORBIDDEN.
func ValidateTransition(req TransitionRequest) (apply bool, err error) {
	if !req.Current.IsValid() || !req.Requested.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	if req.Current == enums.OrderStatusVerified && req.Requested == enums.OrderStatusVerified {
		if req.ActorRole.Can(enums.CapDecideOrders) && req.VerifiedBy != nil && *req.VerifiedBy == req.ActorID {
			return false, nil
		}
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "order already verified")
	}

	switch {
	case req.Current == enums.OrderStatusDraft && req.Requested == enums.OrderStatusSubmitted:
		if !req.ActorRole.Can(enums.CapCreateOrders) {
			return false, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can submit orders")
		}
		if !req.ActorIsOwner {
			return false, pkgerrors.New(pkgerrors.CodeForbidden, "only the order creator can submit")
		}
		return true, nil

	case req.Current == enums.OrderStatusSubmitted && req.Requested == enums.OrderStatusVerified,
		req.Current == enums.OrderStatusSubmitted && req.Requested == enums.OrderStatusCancelled:
		if !req.ActorRole.Can(enums.CapDecideOrders) {
			return false, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can decide orders")
		}
		return true, nil

	default:
		return false, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", req.Current, req.Requested)
	}
}

// AuthorizeRead checks whether the actor may view an order.
func AuthorizeRead(createdBy uuid.UUID, actorID uuid.UUID, role enums.Role) error {
	if role.Can(enums.CapReadAllOrders) {
		return nil
	}
	if createdBy == actorID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
}

// Scope restricts order listings per role.
type Scope struct {
	CreatedBy *uuid.UUID
	Status    *enums.OrderStatus
}

// ListScope computes the listing restrictions for the actor. Staff only see
// their own orders; accounting defaults to the "to process" submitted view
// unless a status filter is supplied; admins are unrestricted.
func ListScope(role enums.Role, actorID uuid.UUID, requestedStatus *enums.OrderStatus) Scope {
	scope := Scope{Status: requestedStatus}
	switch role {
	case enums.RoleStaff:
		actor := actorID
		scope.CreatedBy = &actor
	case enums.RoleAccounting:
		if requestedStatus == nil {
			submitted := enums.OrderStatusSubmitted
			scope.Status = &submitted
		}
	}
	return scope
}
