package handlers

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/internal/pagofacil"
	"lamesa-pos-service/pkg/response"

	"go.uber.org/zap"
)

type generateQRRequest struct {
	Amount *float64        `json:"amount"`
	Items  json.RawMessage `json:"items"`
}

type qrCallbackRequest struct {
	PedidoID   string `json:"PedidoID"`
	Fecha      string `json:"Fecha"`
	Hora       string `json:"Hora"`
	MetodoPago string `json:"MetodoPago"`
	Estado     string `json:"Estado"`
}

// newPaymentNumber builds the gateway-facing order reference. Uniqueness comes
// from the timestamp; the random suffix disambiguates same-second requests.
func newPaymentNumber() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().Unix(), rand.Intn(10000))
}

// GenerateQR requests a payment QR from the gateway and parks the payment
// metadata until the callback arrives.
func (h *Handler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}
	if h.Gateway == nil {
		response.Error(w, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE", "Payment gateway is not configured")
		return
	}

	var body generateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if body.Amount == nil || *body.Amount <= 0 {
		response.FieldErrors(w, map[string]string{"amount": "Amount must be positive"})
		return
	}

	clientName := authCtx.Email
	if clientName == "" {
		clientName = fmt.Sprintf("client-%d", authCtx.UserID)
	}

	paymentNumber := newPaymentNumber()
	result, err := h.Gateway.GenerateQR(r.Context(), pagofacil.QRRequest{
		ClientID:      authCtx.UserID,
		ClientName:    clientName,
		Amount:        *body.Amount,
		PaymentNumber: paymentNumber,
	})
	if err != nil {
		h.Logger.Error("qr generation failed", zap.String("paymentNumber", paymentNumber), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "GATEWAY_ERROR", "Payment gateway rejected the request")
		return
	}

	h.Payments.Put(pagofacil.PendingPayment{
		PaymentNumber: paymentNumber,
		TransactionID: result.TransactionID,
		ClientID:      authCtx.UserID,
		ClientName:    clientName,
		Amount:        *body.Amount,
		Items:         body.Items,
		Status:        "PENDING",
	})

	response.Success(w, map[string]any{
		"paymentNumber":  paymentNumber,
		"transactionId":  result.TransactionID,
		"qrBase64":       result.QRBase64,
		"expirationDate": result.ExpirationDate,
		"checkoutUrl":    result.CheckoutURL,
	})
}

// Callback is the public endpoint the gateway posts to once the customer pays.
// The acknowledgement shape is fixed by the gateway contract.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var body qrCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.PedidoID) == "" {
		writeGatewayAck(w, 1, "PedidoID is required")
		return
	}

	status := body.Estado
	if status == "" {
		status = "COMPLETED"
	}

	// Always ack success once the payload parses: the gateway retries on a
	// non-zero ack, and an expired entry is not something a retry can fix.
	payment, ok := h.Payments.MarkPaid(body.PedidoID, status, body.Fecha, body.Hora, body.MetodoPago)
	if !ok {
		h.Logger.Warn("callback for unknown or expired payment", zap.String("paymentNumber", body.PedidoID))
	} else {
		h.Logger.Info("payment callback received",
			zap.String("paymentNumber", payment.PaymentNumber),
			zap.String("status", payment.Status),
			zap.Float64("amount", payment.Amount))
	}

	writeGatewayAck(w, 0, "Pago recibido correctamente")
}

// PaymentStatus lets the frontend poll whether the callback landed.
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentNumber := readPathString(r, "paymentNumber")
	if paymentNumber == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Payment number is required")
		return
	}

	payment, ok := h.Payments.Get(paymentNumber)
	if !ok {
		response.Error(w, http.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found or expired")
		return
	}

	response.Success(w, payment)
}

// QueryTransaction asks the gateway directly for a transaction's state, a
// fallback for when the callback never arrives.
func (h *Handler) QueryTransaction(w http.ResponseWriter, r *http.Request) {
	if h.Gateway == nil {
		response.Error(w, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE", "Payment gateway is not configured")
		return
	}

	var body struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.TransactionID) == "" {
		response.FieldErrors(w, map[string]string{"transactionId": "Transaction id is required"})
		return
	}

	status, err := h.Gateway.QueryTransaction(r.Context(), body.TransactionID)
	if err != nil {
		h.Logger.Error("transaction query failed", zap.String("transactionId", body.TransactionID), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "GATEWAY_ERROR", "Payment gateway rejected the request")
		return
	}

	response.Success(w, status)
}

func writeGatewayAck(w http.ResponseWriter, errCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   errCode,
		"status":  1,
		"message": message,
		"values":  errCode == 0,
	})
}
