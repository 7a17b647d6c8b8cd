package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/internal/queue"
	"lamesa-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ListReservations returns all reservations for staff, own for customers.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	query := `
		select r.id, r.table_id, t.table_number, t.capacity, r.user_id, coalesce(u.name, ''),
		       to_char(r.reservation_date, 'YYYY-MM-DD'), r.reservation_time, r.party_size, r.notes,
		       r.status, r.payment_type, r.num_installments, r.installment_amount,
		       r.amount, r.amount_paid, r.installments_paid,
		       r.transaction_id, r.transaction_id_2, r.second_paid_at, r.created_at
		from reservations r
		join dining_tables t on t.id = r.table_id
		left join users u on u.id = r.user_id
	`
	args := []any{}
	if !authCtx.Can().CanViewAllOrders {
		query += ` where r.user_id = $1`
		args = append(args, authCtx.UserID)
	}
	query += ` order by r.reservation_date desc, r.reservation_time desc`

	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reservations")
		return
	}
	defer rows.Close()

	reservations := make([]ReservationDetail, 0)
	for rows.Next() {
		detail, err := scanReservation(rows)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reservations")
			return
		}
		reservations = append(reservations, detail)
	}

	response.Success(w, reservations)
}

type availabilityRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// TableAvailabilityForSlot reports, per table, whether the (table, date, time)
// slot is free of non-terminal reservations.
func (h *Handler) TableAvailabilityForSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	date := strings.TrimSpace(body.Date)
	timeOfDay := strings.TrimSpace(body.Time)
	if !isValidYYYYMMDD(date) || !isValidHHMM(timeOfDay) {
		response.FieldErrors(w, map[string]string{
			"date": "Date must be YYYY-MM-DD",
			"time": "Time must be HH:MM",
		})
		return
	}

	rows, err := h.DB.Query(ctx, `
		select t.id, t.table_number, t.capacity,
		       not exists (
		           select 1 from reservations r
		           where r.table_id = t.id
		             and r.reservation_date = $1 and r.reservation_time = $2
		             and r.status = any($3)
		       ) as available
		from dining_tables t
		order by t.table_number asc
	`, date, timeOfDay, slotOccupyingStatuses)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check availability")
		return
	}
	defer rows.Close()

	tables := make([]TableAvailability, 0)
	for rows.Next() {
		var t TableAvailability
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Available); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check availability")
			return
		}
		tables = append(tables, t)
	}

	response.Success(w, tables)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	reservationID, err := readPathInt64(r, "reservationId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Reservation id is required")
		return
	}

	detail, err := h.fetchReservationDetail(ctx, reservationID)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusNotFound, "RESERVATION_NOT_FOUND", "Reservation not found")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve reservation")
		return
	}
	if !authCtx.Can().CanViewAllOrders && detail.UserID != authCtx.UserID {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You may only view your own reservations")
		return
	}

	response.Success(w, detail)
}

type secondInstallmentRequest struct {
	TransactionID string `json:"transactionId"`
}

// PaySecondInstallment settles the remaining installment of a PARTIALLY_PAID
// reservation: installments 1 -> 2, amount paid to full, status -> PAID.
func (h *Handler) PaySecondInstallment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	reservationID, err := readPathInt64(r, "reservationId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Reservation id is required")
		return
	}

	var body secondInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	transactionID := strings.TrimSpace(body.TransactionID)
	if transactionID == "" {
		response.FieldErrors(w, map[string]string{"transactionId": "Transaction id is required"})
		return
	}

	detail, err := h.fetchReservationDetail(ctx, reservationID)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusNotFound, "RESERVATION_NOT_FOUND", "Reservation not found")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve reservation")
		return
	}

	isOwner := detail.UserID == authCtx.UserID
	if !isOwner && !authCtx.Can().CanSettleReservations {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission for this reservation")
		return
	}

	if detail.PaymentType != PaymentPlanInstallments || detail.InstallmentsPaid >= detail.NumInstallments {
		response.Error(w, http.StatusBadRequest, "NO_PENDING_INSTALLMENT", "This reservation has no pending installments")
		return
	}

	now := time.Now()
	_, err = h.DB.Exec(ctx, `
		update reservations
		set installments_paid = num_installments,
		    amount_paid = amount,
		    transaction_id_2 = $1,
		    second_paid_at = $2,
		    status = $3
		where id = $4
	`, transactionID, now, ReservationStatusPaid, reservationID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to settle installment")
		return
	}

	_ = queue.Publish(ctx, h.Queue, queue.RoutingReservationPaid, queue.ReservationEvent{
		ReservationID: reservationID,
		UserID:        detail.UserID,
		TableID:       detail.TableID,
		Date:          detail.Date,
		Time:          detail.Time,
		Status:        ReservationStatusPaid,
		Amount:        detail.Amount,
		AmountPaid:    detail.Amount,
	})

	response.Success(w, map[string]any{"id": reservationID, "status": ReservationStatusPaid})
}

type updateReservationStatusRequest struct {
	Status string `json:"status"`
}

// UpdateReservationStatus validates enum membership only, matching the order
// status operation.
func (h *Handler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok || !authCtx.Can().CanSettleReservations {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to update reservation status")
		return
	}

	reservationID, err := readPathInt64(r, "reservationId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Reservation id is required")
		return
	}

	var body updateReservationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if !validReservationStatus(status) {
		response.FieldErrors(w, map[string]string{"status": "Unknown reservation status"})
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update reservations set status = $1 where id = $2
	`, status, reservationID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update reservation")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "RESERVATION_NOT_FOUND", "Reservation not found")
		return
	}

	response.Success(w, map[string]any{"id": reservationID, "status": status})
}

// CancelReservation moves a reservation to CANCELLED, freeing its slot. Rows
// are never deleted.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	reservationID, err := readPathInt64(r, "reservationId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Reservation id is required")
		return
	}

	detail, err := h.fetchReservationDetail(ctx, reservationID)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusNotFound, "RESERVATION_NOT_FOUND", "Reservation not found")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve reservation")
		return
	}

	if detail.UserID != authCtx.UserID && !authCtx.Can().CanSettleReservations {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission for this reservation")
		return
	}

	_, err = h.DB.Exec(ctx, `
		update reservations set status = $1 where id = $2
	`, ReservationStatusCancelled, reservationID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel reservation")
		return
	}

	response.Success(w, map[string]any{"id": reservationID, "status": ReservationStatusCancelled})
}

type reservationScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row reservationScanner) (ReservationDetail, error) {
	var detail ReservationDetail
	var notes, transactionID, transactionID2 pgtype.Text
	var secondPaidAt pgtype.Timestamptz
	err := row.Scan(
		&detail.ID, &detail.TableID, &detail.TableNumber, &detail.TableCapacity,
		&detail.UserID, &detail.CustomerName,
		&detail.Date, &detail.Time, &detail.PartySize, &notes,
		&detail.Status, &detail.PaymentType, &detail.NumInstallments, &detail.InstallmentAmount,
		&detail.Amount, &detail.AmountPaid, &detail.InstallmentsPaid,
		&transactionID, &transactionID2, &secondPaidAt, &detail.CreatedAt,
	)
	if err != nil {
		return ReservationDetail{}, err
	}
	detail.Notes = textPtr(notes)
	detail.TransactionID = textPtr(transactionID)
	detail.TransactionID2 = textPtr(transactionID2)
	if secondPaidAt.Valid {
		value := secondPaidAt.Time
		detail.SecondPaidAt = &value
	}
	return detail, nil
}

func (h *Handler) fetchReservationDetail(ctx context.Context, reservationID int64) (ReservationDetail, error) {
	row := h.DB.QueryRow(ctx, `
		select r.id, r.table_id, t.table_number, t.capacity, r.user_id, coalesce(u.name, ''),
		       to_char(r.reservation_date, 'YYYY-MM-DD'), r.reservation_time, r.party_size, r.notes,
		       r.status, r.payment_type, r.num_installments, r.installment_amount,
		       r.amount, r.amount_paid, r.installments_paid,
		       r.transaction_id, r.transaction_id_2, r.second_paid_at, r.created_at
		from reservations r
		join dining_tables t on t.id = r.table_id
		left join users u on u.id = r.user_id
		where r.id = $1
	`, reservationID)
	return scanReservation(row)
}
