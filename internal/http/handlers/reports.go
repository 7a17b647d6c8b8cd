package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/pkg/response"

	"github.com/phpdave11/gofpdf"
)

// MovementReportPDF renders the supply movement log over a date range, grouped
// chronologically, with per-type totals at the bottom.
func (h *Handler) MovementReportPDF(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanViewReports {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to view reports")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from != "" && !isValidYYYYMMDD(from) || to != "" && !isValidYYYYMMDD(to) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Dates must be YYYY-MM-DD")
		return
	}

	query := `
		select m.id, m.supply_id, s.name, m.type, m.quantity, s.unit, m.created_at
		from supply_movements m
		join supplies s on s.id = m.supply_id
	`
	args := []any{}
	if from != "" && to != "" {
		query += ` where m.created_at::date between $1 and $2`
		args = append(args, from, to)
	} else if from != "" {
		query += ` where m.created_at::date >= $1`
		args = append(args, from)
	} else if to != "" {
		query += ` where m.created_at::date <= $1`
		args = append(args, to)
	}
	query += ` order by m.created_at asc`

	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}
	defer rows.Close()

	movements := make([]MovementDetail, 0)
	for rows.Next() {
		var m MovementDetail
		if err := rows.Scan(&m.ID, &m.SupplyID, &m.SupplyName, &m.Type, &m.Quantity, &m.Unit, &m.CreatedAt); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
			return
		}
		movements = append(movements, m)
	}

	buf, err := renderMovementReportPDF(movements, from, to)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate report")
		return
	}

	writePDF(w, buf, "supply_movements.pdf")
}

// ReservationReportPDF renders reservations over a date range with payment
// progress per row and collected totals.
func (h *Handler) ReservationReportPDF(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanViewReports {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to view reports")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from != "" && !isValidYYYYMMDD(from) || to != "" && !isValidYYYYMMDD(to) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Dates must be YYYY-MM-DD")
		return
	}

	query := `
		select r.id, t.table_number, coalesce(u.name, ''), to_char(r.reservation_date, 'YYYY-MM-DD'), r.reservation_time,
		       r.party_size, r.status, r.amount, r.amount_paid
		from reservations r
		join dining_tables t on t.id = r.table_id
		left join users u on u.id = r.user_id
	`
	args := []any{}
	if from != "" && to != "" {
		query += ` where r.reservation_date between $1 and $2`
		args = append(args, from, to)
	} else if from != "" {
		query += ` where r.reservation_date >= $1`
		args = append(args, from)
	} else if to != "" {
		query += ` where r.reservation_date <= $1`
		args = append(args, to)
	}
	query += ` order by r.reservation_date asc, r.reservation_time asc`

	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}
	defer rows.Close()

	type reservationRow struct {
		ID           int64
		TableNumber  int32
		CustomerName string
		Date         string
		Time         string
		PartySize    int32
		Status       string
		Amount       float64
		AmountPaid   float64
	}

	reservations := make([]reservationRow, 0)
	for rows.Next() {
		var row reservationRow
		if err := rows.Scan(&row.ID, &row.TableNumber, &row.CustomerName, &row.Date, &row.Time,
			&row.PartySize, &row.Status, &row.Amount, &row.AmountPaid); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
			return
		}
		reservations = append(reservations, row)
	}

	pdf := newReportPDF("Reservation Report", from, to)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(15, 6, "#", "B", 0, "L", false, 0, "")
	pdf.CellFormat(18, 6, "Table", "B", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, "Customer", "B", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, "Slot", "B", 0, "L", false, 0, "")
	pdf.CellFormat(32, 6, "Status", "B", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Paid / Due", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	var totalDue, totalPaid float64
	for _, row := range reservations {
		pdf.CellFormat(15, 5, fmt.Sprintf("%d", row.ID), "", 0, "L", false, 0, "")
		pdf.CellFormat(18, 5, fmt.Sprintf("%d", row.TableNumber), "", 0, "L", false, 0, "")
		pdf.CellFormat(45, 5, row.CustomerName, "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 5, fmt.Sprintf("%s %s", row.Date, row.Time), "", 0, "L", false, 0, "")
		pdf.CellFormat(32, 5, row.Status, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%.2f / %.2f", row.AmountPaid, row.Amount), "", 1, "R", false, 0, "")
		totalDue += row.Amount
		totalPaid += row.AmountPaid
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Reservations: %d", len(reservations)), "T", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Collected: %.2f of %.2f", totalPaid, totalDue), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate report")
		return
	}

	writePDF(w, &out, "reservations.pdf")
}

func renderMovementReportPDF(movements []MovementDetail, from, to string) (*bytes.Buffer, error) {
	pdf := newReportPDF("Supply Movement Report", from, to)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(15, 6, "#", "B", 0, "L", false, 0, "")
	pdf.CellFormat(55, 6, "Supply", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "Type", "B", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, "Quantity", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Date", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	var totalIn, totalOut float64
	for _, m := range movements {
		pdf.CellFormat(15, 5, fmt.Sprintf("%d", m.ID), "", 0, "L", false, 0, "")
		pdf.CellFormat(55, 5, m.SupplyName, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 5, m.Type, "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 5, fmt.Sprintf("%.2f %s", m.Quantity, m.Unit), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 5, m.CreatedAt.Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
		if m.Type == MovementTypeIn {
			totalIn += m.Quantity
		} else {
			totalOut += m.Quantity
		}
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Movements: %d", len(movements)), "T", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total in: %.2f    Total out: %.2f", totalIn, totalOut), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func newReportPDF(title, from, to string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "La Mesa POS", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "C", false, 0, "")
	if from != "" || to != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Range: %s - %s", orDash(from), orDash(to)), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	return pdf
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func writePDF(w http.ResponseWriter, buf *bytes.Buffer, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", sanitizeFilename(filename)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
