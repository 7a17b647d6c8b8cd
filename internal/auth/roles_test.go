package auth

import "testing"

func TestRoleValid(t *testing.T) {
	cases := []struct {
		role     UserRole
		expected bool
	}{
		{RoleAdmin, true},
		{RoleCashier, true},
		{RoleCook, true},
		{RoleWaiter, true},
		{RoleCustomer, true},
		{UserRole("MANAGER"), false},
		{UserRole(""), false},
	}

	for _, tc := range cases {
		if got := tc.role.Valid(); got != tc.expected {
			t.Fatalf("Valid(%q): expected %v, got %v", tc.role, tc.expected, got)
		}
	}
}

func TestCustomerCannotActForOthers(t *testing.T) {
	caps := RoleCustomer.Can()
	if caps.CanBookForOthers {
		t.Fatalf("customer must not book for others")
	}
	if caps.CanUpdateOrderStatus {
		t.Fatalf("customer must not update order status")
	}
	if caps.CanSettleReservations {
		t.Fatalf("customer must not settle arbitrary reservations")
	}
	if !RoleCustomer.IsCustomer() {
		t.Fatalf("expected IsCustomer for CUSTOMER role")
	}
}

func TestStaffCapabilities(t *testing.T) {
	if !RoleAdmin.Can().CanViewReports {
		t.Fatalf("admin must view reports")
	}
	if !RoleCashier.Can().CanSettleReservations {
		t.Fatalf("cashier must settle reservations")
	}
	if RoleCook.Can().CanManageCatalog {
		t.Fatalf("cook must not manage catalog")
	}
	if !RoleWaiter.Can().CanBookForOthers {
		t.Fatalf("waiter must book for customers")
	}
}
