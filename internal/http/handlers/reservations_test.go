package handlers

import "testing"

func TestBuildInstallmentPlan(t *testing.T) {
	tests := []struct {
		name            string
		partySize       int32
		rate            float64
		plan            string
		wantAmount      float64
		wantNum         int32
		wantInstallment float64
	}{
		{"full party of four", 4, 20, PaymentPlanFull, 80, 1, 80},
		{"installments party of four", 4, 20, PaymentPlanInstallments, 80, 2, 40},
		{"single diner full", 1, 20, PaymentPlanFull, 20, 1, 20},
		{"odd amount splits with rounding", 3, 8.33, PaymentPlanInstallments, 24.99, 2, 12.50},
		{"custom rate", 6, 15.5, PaymentPlanFull, 93, 1, 93},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := buildInstallmentPlan(tc.partySize, tc.rate, tc.plan)
			if got.Amount != tc.wantAmount {
				t.Fatalf("Amount = %v, want %v", got.Amount, tc.wantAmount)
			}
			if got.NumInstallments != tc.wantNum {
				t.Fatalf("NumInstallments = %v, want %v", got.NumInstallments, tc.wantNum)
			}
			if got.InstallmentAmount != tc.wantInstallment {
				t.Fatalf("InstallmentAmount = %v, want %v", got.InstallmentAmount, tc.wantInstallment)
			}
		})
	}
}

func TestInitialPaymentState(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		plan           installmentPlan
		wantStatus     string
		wantPaid       float64
		wantInstallNum int32
	}{
		{
			name:       "cash confirms without prepayment",
			method:     PaymentMethodCash,
			plan:       installmentPlan{Amount: 80, NumInstallments: 1, InstallmentAmount: 80},
			wantStatus: ReservationStatusConfirmed,
		},
		{
			name:       "cash with installment plan still prepays nothing",
			method:     PaymentMethodCash,
			plan:       installmentPlan{Amount: 80, NumInstallments: 2, InstallmentAmount: 40},
			wantStatus: ReservationStatusConfirmed,
		},
		{
			name:           "qr full pays everything up front",
			method:         PaymentMethodQR,
			plan:           installmentPlan{Amount: 80, NumInstallments: 1, InstallmentAmount: 80},
			wantStatus:     ReservationStatusPaid,
			wantPaid:       80,
			wantInstallNum: 1,
		},
		{
			name:           "qr installments pays the first half",
			method:         PaymentMethodQR,
			plan:           installmentPlan{Amount: 80, NumInstallments: 2, InstallmentAmount: 40},
			wantStatus:     ReservationStatusPartiallyPaid,
			wantPaid:       40,
			wantInstallNum: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, paid, installments := initialPaymentState(tc.method, tc.plan)
			if status != tc.wantStatus {
				t.Fatalf("status = %q, want %q", status, tc.wantStatus)
			}
			if paid != tc.wantPaid {
				t.Fatalf("amountPaid = %v, want %v", paid, tc.wantPaid)
			}
			if installments != tc.wantInstallNum {
				t.Fatalf("installmentsPaid = %v, want %v", installments, tc.wantInstallNum)
			}
		})
	}
}

func TestSlotOccupyingStatuses(t *testing.T) {
	occupying := map[string]bool{}
	for _, status := range slotOccupyingStatuses {
		occupying[status] = true
	}

	for _, status := range []string{
		ReservationStatusPending,
		ReservationStatusConfirmed,
		ReservationStatusPaid,
		ReservationStatusPartiallyPaid,
	} {
		if !occupying[status] {
			t.Fatalf("%s should occupy its slot", status)
		}
	}
	for _, status := range []string{ReservationStatusCancelled, ReservationStatusCompleted} {
		if occupying[status] {
			t.Fatalf("%s should free its slot", status)
		}
	}
}

func TestValidReservationStatus(t *testing.T) {
	for _, status := range []string{
		ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusPartiallyPaid,
		ReservationStatusPaid, ReservationStatusCancelled, ReservationStatusCompleted,
	} {
		if !validReservationStatus(status) {
			t.Fatalf("%s should be valid", status)
		}
	}
	for _, status := range []string{"", "paid", "DONE", "NO_SHOW"} {
		if validReservationStatus(status) {
			t.Fatalf("%s should be invalid", status)
		}
	}
}
