// Package pagofacil integrates the PagoFácil QR payment gateway: an outbound
// HTTP client for QR generation and transaction queries, plus a time-bounded
// in-process store for pending payment metadata keyed by payment number.
package pagofacil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	baseURL     string
	token       string
	callbackURL string
	http        *http.Client
}

func NewClient(baseURL, token, callbackURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		token:       token,
		callbackURL: callbackURL,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

type QRRequest struct {
	ClientID      int64
	ClientName    string
	Amount        float64
	PaymentNumber string
}

type QRResult struct {
	QRBase64       string
	TransactionID  string
	ExpirationDate string
	CheckoutURL    string
}

type TransactionStatus struct {
	PaymentStatus string
	Amount        float64
	PaymentDate   string
}

type gatewayEnvelope struct {
	Error   int             `json:"error"`
	Message string          `json:"message"`
	Values  json.RawMessage `json:"values"`
}

// GenerateQR asks the gateway for a payment QR. The gateway response is
// persisted as-is; no cryptographic verification happens here.
func (c *Client) GenerateQR(ctx context.Context, req QRRequest) (*QRResult, error) {
	payload := map[string]any{
		"paymentMethod": 4,
		"clientName":    req.ClientName,
		"paymentNumber": req.PaymentNumber,
		"amount":        req.Amount,
		"currency":      2,
		"clientCode":    fmt.Sprintf("%04d", req.ClientID),
		"callbackUrl":   c.callbackURL,
		"orderDetail": []map[string]any{
			{
				"serial":   1,
				"product":  "Detalle de Pago",
				"quantity": 1,
				"price":    req.Amount,
				"discount": 0,
				"total":    req.Amount,
			},
		},
	}

	var values struct {
		QRBase64       string `json:"qrBase64"`
		TransactionID  string `json:"transactionId"`
		ExpirationDate string `json:"expirationDate"`
		CheckoutURL    string `json:"checkoutUrl"`
	}
	if err := c.post(ctx, "/generate-qr", payload, &values); err != nil {
		return nil, err
	}

	return &QRResult{
		QRBase64:       values.QRBase64,
		TransactionID:  values.TransactionID,
		ExpirationDate: values.ExpirationDate,
		CheckoutURL:    values.CheckoutURL,
	}, nil
}

// QueryTransaction fetches the gateway-side status of a transaction.
func (c *Client) QueryTransaction(ctx context.Context, transactionID string) (*TransactionStatus, error) {
	payload := map[string]any{
		"pagofacilTransactionId": transactionID,
	}

	var values struct {
		PaymentStatus string  `json:"paymentStatus"`
		Amount        float64 `json:"amount"`
		PaymentDate   string  `json:"paymentDate"`
	}
	if err := c.post(ctx, "/query-transaction", payload, &values); err != nil {
		return nil, err
	}

	return &TransactionStatus{
		PaymentStatus: values.PaymentStatus,
		Amount:        values.Amount,
		PaymentDate:   values.PaymentDate,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pagofacil request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope gatewayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("pagofacil response decode failed: %w", err)
	}
	if envelope.Error != 0 {
		message := envelope.Message
		if message == "" {
			message = "gateway rejected the request"
		}
		return fmt.Errorf("pagofacil: %s", message)
	}
	if out != nil && len(envelope.Values) > 0 {
		if err := json.Unmarshal(envelope.Values, out); err != nil {
			return fmt.Errorf("pagofacil values decode failed: %w", err)
		}
	}
	return nil
}
