package enums

import "testing"

func TestParseRole(t *testing.T) {
	role, err := ParseRole("accounting")
	if err != nil {
		t.Fatalf("parse role: %v", err)
	}
	if role != RoleAccounting {
		t.Fatalf("expected accounting, got %s", role)
	}

	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestRoleCapabilities(t *testing.T) {
	if !RoleAdmin.Can(CapDecideOrders) {
		t.Fatal("admin should decide orders")
	}
	if RoleStaff.Can(CapDecideOrders) {
		t.Fatal("staff must not decide orders")
	}
	if !RoleStaff.Can(CapCreateOrders) {
		t.Fatal("staff should create orders")
	}
	if RoleAccounting.Can(CapManageCatalog) {
		t.Fatal("accounting must not manage the catalog")
	}
	if !RoleAccounting.Can(CapReadAllOrders) {
		t.Fatal("accounting should read all orders")
	}
}

func TestRolesWith(t *testing.T) {
	readers := RolesWith(CapReadAllOrders)
	if len(readers) != 2 {
		t.Fatalf("expected 2 roles with read_all_orders, got %d", len(readers))
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if OrderStatusDraft.IsTerminal() || OrderStatusSubmitted.IsTerminal() {
		t.Fatal("draft/submitted are not terminal")
	}
	if !OrderStatusVerified.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("verified/cancelled are terminal")
	}
}
