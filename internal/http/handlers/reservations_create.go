package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/internal/pricing"
	"lamesa-pos-service/internal/queue"
	"lamesa-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type createReservationRequest struct {
	CustomerID    *int64  `json:"customerId"`
	TableID       int64   `json:"tableId"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	PartySize     int32   `json:"partySize"`
	PaymentMethod string  `json:"paymentMethod"`
	PaymentPlan   string  `json:"paymentPlan"`
	Notes         *string `json:"notes"`
	TransactionID *string `json:"transactionId"`
}

// installmentPlan is the money side of a reservation: the total owed and how
// it splits across installments.
type installmentPlan struct {
	Amount            float64
	NumInstallments   int32
	InstallmentAmount float64
}

func buildInstallmentPlan(partySize int32, ratePerPerson float64, paymentPlan string) installmentPlan {
	amount := pricing.Round2(float64(partySize) * ratePerPerson)
	numInstallments := int32(1)
	if paymentPlan == PaymentPlanInstallments {
		numInstallments = 2
	}
	return installmentPlan{
		Amount:            amount,
		NumInstallments:   numInstallments,
		InstallmentAmount: pricing.Round2(amount / float64(numInstallments)),
	}
}

// initialPaymentState derives the starting status and paid amounts from the
// method x plan combination. Cash prepays nothing; QR prepays the full amount
// or the first installment.
func initialPaymentState(paymentMethod string, plan installmentPlan) (status string, amountPaid float64, installmentsPaid int32) {
	if paymentMethod != PaymentMethodQR {
		return ReservationStatusConfirmed, 0, 0
	}
	if plan.NumInstallments == 1 {
		return ReservationStatusPaid, plan.Amount, plan.NumInstallments
	}
	return ReservationStatusPartiallyPaid, plan.InstallmentAmount, 1
}

// CreateReservation validates slot and capacity, computes the installment
// plan, and persists the reservation in one write. The slot race between the
// availability check and the insert is closed by the partial unique index
// uniq_reservations_slot.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	var body createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	fields := map[string]string{}
	if body.TableID <= 0 {
		fields["tableId"] = "Table is required"
	}
	if !isValidYYYYMMDD(strings.TrimSpace(body.Date)) {
		fields["date"] = "Date must be YYYY-MM-DD"
	}
	if !isValidHHMM(strings.TrimSpace(body.Time)) {
		fields["time"] = "Time must be HH:MM"
	}
	if body.PartySize < 1 || body.PartySize > 20 {
		fields["partySize"] = "Party size must be between 1 and 20"
	}

	paymentMethod := strings.ToUpper(strings.TrimSpace(body.PaymentMethod))
	if paymentMethod != PaymentMethodCash && paymentMethod != PaymentMethodQR {
		fields["paymentMethod"] = "Payment method must be CASH or QR"
	}
	paymentPlan := strings.ToUpper(strings.TrimSpace(body.PaymentPlan))
	if paymentPlan != PaymentPlanFull && paymentPlan != PaymentPlanInstallments {
		fields["paymentPlan"] = "Payment plan must be FULL or INSTALLMENTS"
	}

	transactionID := strings.TrimSpace(defaultStringPtr(body.TransactionID))
	if paymentMethod == PaymentMethodQR && transactionID == "" {
		fields["transactionId"] = "Transaction id is required for QR payments"
	}

	if len(fields) > 0 {
		response.FieldErrors(w, fields)
		return
	}

	date := strings.TrimSpace(body.Date)
	timeOfDay := strings.TrimSpace(body.Time)
	if date < time.Now().Format("2006-01-02") {
		response.FieldErrors(w, map[string]string{"date": "Reservation date cannot be in the past"})
		return
	}

	table, err := h.fetchTable(ctx, body.TableID)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load table")
		return
	}
	if body.PartySize > table.Capacity {
		response.Error(w, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED", "Party size exceeds the table capacity")
		return
	}

	taken, err := h.isSlotTaken(ctx, body.TableID, date, timeOfDay)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check availability")
		return
	}
	if taken {
		response.Error(w, http.StatusConflict, "SLOT_CONFLICT", "This table is already reserved for the selected date and time")
		return
	}

	ownerID := resolveOwner(authCtx, body.CustomerID)
	plan := buildInstallmentPlan(body.PartySize, h.Config.ReservationRatePerPerson, paymentPlan)
	status, amountPaid, installmentsPaid := initialPaymentState(paymentMethod, plan)

	notes := strings.TrimSpace(defaultStringPtr(body.Notes))
	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}
	var transactionPtr *string
	if transactionID != "" {
		transactionPtr = &transactionID
	}

	var reservationID int64
	err = h.DB.QueryRow(ctx, `
		insert into reservations (
			table_id, user_id, reservation_date, reservation_time, party_size, notes,
			status, payment_type, num_installments, installment_amount,
			amount, amount_paid, installments_paid, transaction_id
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		returning id
	`,
		body.TableID, ownerID, date, timeOfDay, body.PartySize, notesPtr,
		status, paymentPlan, plan.NumInstallments, plan.InstallmentAmount,
		plan.Amount, amountPaid, installmentsPaid, transactionPtr,
	).Scan(&reservationID)
	if err != nil {
		if isUniqueViolation(err, "uniq_reservations_slot") {
			response.Error(w, http.StatusConflict, "SLOT_CONFLICT", "This table is already reserved for the selected date and time")
			return
		}
		h.Logger.Error("reservation insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create reservation")
		return
	}

	_ = queue.Publish(ctx, h.Queue, queue.RoutingReservationCreated, queue.ReservationEvent{
		ReservationID: reservationID,
		UserID:        ownerID,
		TableID:       body.TableID,
		Date:          date,
		Time:          timeOfDay,
		Status:        status,
		Amount:        plan.Amount,
		AmountPaid:    amountPaid,
	})

	detail, err := h.fetchReservationDetail(ctx, reservationID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve reservation")
		return
	}

	response.Created(w, detail, "Reservation created successfully")
}

type diningTable struct {
	ID       int64
	Number   int32
	Capacity int32
}

func (h *Handler) fetchTable(ctx context.Context, tableID int64) (diningTable, error) {
	var t diningTable
	err := h.DB.QueryRow(ctx, `
		select id, table_number, capacity
		from dining_tables
		where id = $1
	`, tableID).Scan(&t.ID, &t.Number, &t.Capacity)
	return t, err
}

func (h *Handler) isSlotTaken(ctx context.Context, tableID int64, date, timeOfDay string) (bool, error) {
	var taken bool
	err := h.DB.QueryRow(ctx, `
		select exists (
			select 1 from reservations
			where table_id = $1 and reservation_date = $2 and reservation_time = $3
			  and status = any($4)
		)
	`, tableID, date, timeOfDay, slotOccupyingStatuses).Scan(&taken)
	return taken, err
}
