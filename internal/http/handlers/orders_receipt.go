package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/phpdave11/gofpdf"
)

// OrderReceiptPDF renders a printable receipt for one order.
func (h *Handler) OrderReceiptPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order id is required")
		return
	}

	detail, err := h.fetchOrderDetail(ctx, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}
	if !authCtx.Can().CanViewAllOrders && detail.UserID != authCtx.UserID {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You may only view your own orders")
		return
	}

	buf, err := renderOrderReceiptPDF(detail)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	filename := fmt.Sprintf("receipt_order_%d.pdf", detail.ID)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", sanitizeFilename(filename)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func renderOrderReceiptPDF(detail OrderDetail) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "La Mesa POS", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order #%d", detail.ID), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if detail.CustomerName != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Customer: %s", detail.CustomerName), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", detail.CreatedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", detail.Status), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range detail.Lines {
		pdf.CellFormat(0, 5, fmt.Sprintf("%dx %s @ %.2f", line.Quantity, line.Name, line.UnitPrice), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Subtotal: %.2f", line.Subtotal), "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %.2f", detail.Total), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if detail.PaymentMethod != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Payment: %s", detail.PaymentMethod), "", 1, "L", false, 0, "")
	}
	if detail.Notes != nil && *detail.Notes != "" {
		pdf.MultiCell(0, 4, fmt.Sprintf("Notes: %s", *detail.Notes), "", "L", false)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeFilename(name string) string {
	return filenameUnsafe.ReplaceAllString(name, "_")
}
