package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
)

func TestOrderItemLineTotal(t *testing.T) {
	item := OrderItem{
		ProductID: uuid.New(),
		Name:      "Espresso Beans 1kg",
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("12.50"),
	}
	if got := item.LineTotal(); got.String() != "37.5" {
		t.Fatalf("expected line total 37.5, got %s", got)
	}
}

func TestOrderItemsNilValueIsEmptyArray(t *testing.T) {
	var items OrderItems
	val, err := items.Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}
	if string(val.([]byte)) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", val)
	}
}

func TestAttachmentsScanRoundTrip(t *testing.T) {
	original := Attachments{
		{Type: enums.AttachmentTypeIDCard, URL: "https://storage.example.com/docs/id.jpg"},
		{Type: enums.AttachmentTypePaymentSlip, URL: "https://storage.example.com/docs/slip.pdf"},
	}
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	var decoded Attachments
	if err := decoded.Scan(val); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Type != enums.AttachmentTypeIDCard {
		t.Fatalf("unexpected decoded attachments: %+v", decoded)
	}

	if err := decoded.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) returned error: %v", err)
	}
	if decoded != nil {
		t.Fatalf("Scan(nil) should clear the slice")
	}
}

func TestCustomerInfoScanUnsupportedType(t *testing.T) {
	var info CustomerInfo
	if err := info.Scan(42); err == nil {
		t.Fatal("expected unsupported scan type to fail")
	}
}
