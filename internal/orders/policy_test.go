package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
	"github.com/orderdeskhq/orderdesk-backend/pkg/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals(t *testing.T) {
	items := types.OrderItems{
		{ProductID: uuid.New(), Name: "A", Quantity: 2, UnitPrice: dec("100")},
		{ProductID: uuid.New(), Name: "B", Quantity: 1, UnitPrice: dec("50")},
	}

	totals, err := ComputeTotals(items, dec("0.07"), nil)
	if err != nil {
		t.Fatalf("compute totals: %v", err)
	}
	assert.True(t, totals.Subtotal.Equal(dec("250")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.VAT.Equal(dec("17.5")), "vat %s", totals.VAT)
	assert.True(t, totals.ComputedTotal.Equal(dec("267.5")), "computed %s", totals.ComputedTotal)
	assert.True(t, totals.Total.Equal(dec("267.5")), "total %s", totals.Total)
	assert.False(t, totals.Overridden)
}

func TestComputeTotalsOverride(t *testing.T) {
	items := types.OrderItems{
		{ProductID: uuid.New(), Name: "A", Quantity: 1, UnitPrice: dec("100")},
	}
	override := dec("95")

	totals, err := ComputeTotals(items, dec("0.07"), &override)
	if err != nil {
		t.Fatalf("compute totals: %v", err)
	}
	assert.True(t, totals.Total.Equal(dec("95")))
	assert.True(t, totals.ComputedTotal.Equal(dec("107")), "computed total must survive the override, got %s", totals.ComputedTotal)
	assert.True(t, totals.Overridden)
}

func TestComputeTotalsRejectsBadInput(t *testing.T) {
	valid := types.OrderItems{{ProductID: uuid.New(), Name: "A", Quantity: 1, UnitPrice: dec("10")}}
	negOverride := dec("-1")

	cases := []struct {
		name     string
		items    types.OrderItems
		rate     decimal.Decimal
		override *decimal.Decimal
	}{
		{"empty items", nil, dec("0.07"), nil},
		{"zero quantity", types.OrderItems{{Quantity: 0, UnitPrice: dec("10")}}, dec("0.07"), nil},
		{"negative price", types.OrderItems{{Quantity: 1, UnitPrice: dec("-10")}}, dec("0.07"), nil},
		{"negative rate", valid, dec("-0.07"), nil},
		{"negative override", valid, dec("0.07"), &negOverride},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeTotals(tc.items, tc.rate, tc.override)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "expected validation error, got %v", err)
		})
	}
}

func TestValidateTransitionTable(t *testing.T) {
	admin := uuid.New()
	all := []enums.OrderStatus{
		enums.OrderStatusDraft,
		enums.OrderStatusSubmitted,
		enums.OrderStatusVerified,
		enums.OrderStatusCancelled,
	}

	legal := map[[2]enums.OrderStatus]bool{
		{enums.OrderStatusDraft, enums.OrderStatusSubmitted}:     true,
		{enums.OrderStatusSubmitted, enums.OrderStatusVerified}:  true,
		{enums.OrderStatusSubmitted, enums.OrderStatusCancelled}: true,
	}

	for _, current := range all {
		for _, requested := range all {
			apply, err := ValidateTransition(TransitionRequest{
				Current:      current,
				Requested:    requested,
				ActorID:      admin,
				ActorRole:    enums.RoleAdmin,
				ActorIsOwner: false,
			})
			if legal[[2]enums.OrderStatus{current, requested}] {
				if current == enums.OrderStatusDraft {
					// legal edge but admin is not the creating staff member
					assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "%s->%s: %v", current, requested, err)
					continue
				}
				assert.NoError(t, err, "%s->%s", current, requested)
				assert.True(t, apply)
				continue
			}
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "%s->%s expected state conflict, got %v", current, requested, err)
		}
	}
}

func TestValidateTransitionSubmitRequiresOwnerStaff(t *testing.T) {
	actor := uuid.New()

	apply, err := ValidateTransition(TransitionRequest{
		Current:      enums.OrderStatusDraft,
		Requested:    enums.OrderStatusSubmitted,
		ActorID:      actor,
		ActorRole:    enums.RoleStaff,
		ActorIsOwner: true,
	})
	assert.NoError(t, err)
	assert.True(t, apply)

	_, err = ValidateTransition(TransitionRequest{
		Current:      enums.OrderStatusDraft,
		Requested:    enums.OrderStatusSubmitted,
		ActorID:      actor,
		ActorRole:    enums.RoleStaff,
		ActorIsOwner: false,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = ValidateTransition(TransitionRequest{
		Current:      enums.OrderStatusDraft,
		Requested:    enums.OrderStatusSubmitted,
		ActorID:      actor,
		ActorRole:    enums.RoleAccounting,
		ActorIsOwner: true,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestValidateTransitionDecisionRequiresAdmin(t *testing.T) {
	_, err := ValidateTransition(TransitionRequest{
		Current:      enums.OrderStatusSubmitted,
		Requested:    enums.OrderStatusVerified,
		ActorID:      uuid.New(),
		ActorRole:    enums.RoleStaff,
		ActorIsOwner: true,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestValidateTransitionReVerify(t *testing.T) {
	verifier := uuid.New()
	other := uuid.New()

	apply, err := ValidateTransition(TransitionRequest{
		Current:    enums.OrderStatusVerified,
		Requested:  enums.OrderStatusVerified,
		ActorID:    verifier,
		ActorRole:  enums.RoleAdmin,
		VerifiedBy: &verifier,
	})
	assert.NoError(t, err)
	assert.False(t, apply, "same-admin re-verify is a no-op")

	_, err = ValidateTransition(TransitionRequest{
		Current:    enums.OrderStatusVerified,
		Requested:  enums.OrderStatusVerified,
		ActorID:    other,
		ActorRole:  enums.RoleAdmin,
		VerifiedBy: &verifier,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "different admin re-verify must conflict, got %v", err)
}

func TestAuthorizeRead(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	assert.NoError(t, AuthorizeRead(owner, stranger, enums.RoleAdmin))
	assert.NoError(t, AuthorizeRead(owner, stranger, enums.RoleAccounting))
	assert.NoError(t, AuthorizeRead(owner, owner, enums.RoleStaff))

	err := AuthorizeRead(owner, stranger, enums.RoleStaff)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestListScope(t *testing.T) {
	actor := uuid.New()
	cancelled := enums.OrderStatusCancelled

	staff := ListScope(enums.RoleStaff, actor, nil)
	if staff.CreatedBy == nil || *staff.CreatedBy != actor {
		t.Fatalf("staff scope must pin created_by, got %+v", staff)
	}

	accounting := ListScope(enums.RoleAccounting, actor, nil)
	if accounting.Status == nil || *accounting.Status != enums.OrderStatusSubmitted {
		t.Fatalf("accounting default must be submitted, got %+v", accounting)
	}

	overridden := ListScope(enums.RoleAccounting, actor, &cancelled)
	if overridden.Status == nil || *overridden.Status != cancelled {
		t.Fatalf("accounting override ignored, got %+v", overridden)
	}

	admin := ListScope(enums.RoleAdmin, actor, nil)
	if admin.CreatedBy != nil || admin.Status != nil {
		t.Fatalf("admin scope must be unrestricted, got %+v", admin)
	}
}
