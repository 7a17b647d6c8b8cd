package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lamesa-pos-service/internal/auth"
	"lamesa-pos-service/internal/middleware"
)

func int64Ptr(v int64) *int64 { return &v }

func TestResolveOwner(t *testing.T) {
	tests := []struct {
		name   string
		role   auth.UserRole
		userID int64
		target *int64
		want   int64
	}{
		{"customer always owns their order", auth.RoleCustomer, 7, int64Ptr(99), 7},
		{"customer without target", auth.RoleCustomer, 7, nil, 7},
		{"cashier books for a customer", auth.RoleCashier, 3, int64Ptr(42), 42},
		{"cashier without target books for self", auth.RoleCashier, 3, nil, 3},
		{"waiter books for a customer", auth.RoleWaiter, 5, int64Ptr(42), 42},
		{"cook cannot act for others", auth.RoleCook, 9, int64Ptr(42), 9},
		{"zero target falls back to self", auth.RoleAdmin, 1, int64Ptr(0), 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			authCtx := &middleware.AuthContext{UserID: tc.userID, Role: tc.role}
			if got := resolveOwner(authCtx, tc.target); got != tc.want {
				t.Fatalf("resolveOwner = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, status := range []string{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled,
	} {
		if !validOrderStatus(status) {
			t.Fatalf("%s should be valid", status)
		}
	}
	for _, status := range []string{"", "pending", "DONE", "SHIPPED"} {
		if validOrderStatus(status) {
			t.Fatalf("%s should be invalid", status)
		}
	}
}

func TestValidation(t *testing.T) {
	t.Run("hhmm", func(t *testing.T) {
		valid := []string{"00:00", "09:30", "19:45", "23:59"}
		invalid := []string{"24:00", "9:30", "12:60", "noon", "12:345", ""}
		for _, v := range valid {
			if !isValidHHMM(v) {
				t.Fatalf("%q should be valid", v)
			}
		}
		for _, v := range invalid {
			if isValidHHMM(v) {
				t.Fatalf("%q should be invalid", v)
			}
		}
	})

	t.Run("yyyymmdd", func(t *testing.T) {
		valid := []string{"2026-01-15", "2026-12-31", "2024-02-29"}
		invalid := []string{"2026-13-01", "2026-02-30", "15-01-2026", "2026/01/15", ""}
		for _, v := range valid {
			if !isValidYYYYMMDD(v) {
				t.Fatalf("%q should be valid", v)
			}
		}
		for _, v := range invalid {
			if isValidYYYYMMDD(v) {
				t.Fatalf("%q should be invalid", v)
			}
		}
	})
}

func TestValidComboType(t *testing.T) {
	for _, comboType := range []string{ComboTypeLunch, ComboTypeDinner, ComboTypeUnrestricted, ComboTypeSpecial} {
		if !validComboType(comboType) {
			t.Fatalf("%s should be valid", comboType)
		}
	}
	if validComboType("BREAKFAST") {
		t.Fatal("BREAKFAST should be invalid")
	}
}

func TestComboOrderable(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		inWindow bool
		want     bool
	}{
		{"active within window", ComboStateActive, true, true},
		{"active outside window", ComboStateActive, false, false},
		{"finished within window", ComboStateFinished, true, false},
		{"finished outside window", ComboStateFinished, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := comboOrderable(tc.state, tc.inWindow); got != tc.want {
				t.Fatalf("comboOrderable(%q, %v) = %v, want %v", tc.state, tc.inWindow, got, tc.want)
			}
		})
	}
}

func TestWriteOrderPricingErrorComboNotAvailable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeOrderPricingError(rec, errComboNotOrderable)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success {
		t.Fatal("expected success=false")
	}
	if body.Error != "COMBO_NOT_AVAILABLE" {
		t.Fatalf("error code = %q, want COMBO_NOT_AVAILABLE", body.Error)
	}
}
