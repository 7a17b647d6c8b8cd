package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lamesa-pos-service/internal/pagofacil"

	"go.uber.org/zap"
)

type gatewayAck struct {
	Error   int    `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Values  bool   `json:"values"`
}

func callbackHandler() *Handler {
	return &Handler{
		Logger:   zap.NewNop(),
		Payments: pagofacil.NewPendingStore(time.Hour),
	}
}

func postCallback(t *testing.T, h *Handler, payload string) (int, gatewayAck) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payments/callback", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.PaymentCallback(rec, req)

	var ack gatewayAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return rec.Code, ack
}

func TestPaymentCallbackAcksUnknownPayment(t *testing.T) {
	code, ack := postCallback(t, callbackHandler(),
		`{"PedidoID":"ORD-404","Fecha":"2026-09-01","Hora":"12:00","MetodoPago":"QR","Estado":"COMPLETED"}`)

	if code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
	if ack.Error != 0 {
		t.Fatalf("ack error = %d, want 0", ack.Error)
	}
	if !ack.Values {
		t.Fatal("ack values should be true on a success ack")
	}
}

func TestPaymentCallbackMarksPendingPayment(t *testing.T) {
	h := callbackHandler()
	h.Payments.Put(pagofacil.PendingPayment{
		PaymentNumber: "ORD-1-0001",
		TransactionID: "tx-1",
		ClientID:      7,
		Amount:        42.50,
		Status:        "PENDING",
	})

	code, ack := postCallback(t, h,
		`{"PedidoID":"ORD-1-0001","Fecha":"2026-09-01","Hora":"12:30","MetodoPago":"QR","Estado":"COMPLETED"}`)

	if code != http.StatusOK || ack.Error != 0 {
		t.Fatalf("status=%d ack.error=%d, want 200/0", code, ack.Error)
	}

	payment, ok := h.Payments.Get("ORD-1-0001")
	if !ok {
		t.Fatal("payment should still be retrievable after the callback")
	}
	if payment.Status != "COMPLETED" {
		t.Fatalf("status = %q, want COMPLETED", payment.Status)
	}
	if payment.PaymentDate != "2026-09-01" || payment.PaymentTime != "12:30" || payment.PaymentMethod != "QR" {
		t.Fatalf("callback fields not recorded: %+v", payment)
	}
	if payment.ReceivedAt == nil {
		t.Fatal("receivedAt should be set")
	}
}

func TestPaymentCallbackRejectsMalformedBody(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"PedidoID":`},
		{"missing pedido id", `{"Fecha":"2026-09-01"}`},
		{"blank pedido id", `{"PedidoID":"   "}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, ack := postCallback(t, callbackHandler(), tc.payload)
			if code != http.StatusOK {
				t.Fatalf("status = %d, want %d", code, http.StatusOK)
			}
			if ack.Error != 1 {
				t.Fatalf("ack error = %d, want 1", ack.Error)
			}
			if ack.Values {
				t.Fatal("ack values should be false on an error ack")
			}
		})
	}
}
