package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type supplyRequest struct {
	Name  string   `json:"name"`
	Unit  string   `json:"unit"`
	Stock *float64 `json:"stock"`
}

type movementRequest struct {
	SupplyID int64    `json:"supplyId"`
	Type     string   `json:"type"`
	Quantity *float64 `json:"quantity"`
}

func (req *supplyRequest) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(req.Unit) == "" {
		fields["unit"] = "Unit is required"
	}
	if req.Stock != nil && *req.Stock < 0 {
		fields["stock"] = "Stock must not be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *Handler) ListSupplies(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageSupplies {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage supplies")
		return
	}

	rows, err := h.DB.Query(r.Context(), `
		select id, name, unit, stock from supplies order by name asc
	`)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list supplies")
		return
	}
	defer rows.Close()

	supplies := make([]SupplyDetail, 0)
	for rows.Next() {
		var s SupplyDetail
		if err := rows.Scan(&s.ID, &s.Name, &s.Unit, &s.Stock); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list supplies")
			return
		}
		supplies = append(supplies, s)
	}

	response.Success(w, supplies)
}

func (h *Handler) CreateSupply(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageSupplies {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage supplies")
		return
	}

	var body supplyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := body.validate(); fields != nil {
		response.FieldErrors(w, fields)
		return
	}

	stock := 0.0
	if body.Stock != nil {
		stock = *body.Stock
	}

	var id int64
	err := h.DB.QueryRow(r.Context(), `
		insert into supplies (name, unit, stock) values ($1, $2, $3) returning id
	`, strings.TrimSpace(body.Name), strings.TrimSpace(body.Unit), stock).Scan(&id)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create supply")
		return
	}

	response.Created(w, SupplyDetail{
		ID:    id,
		Name:  strings.TrimSpace(body.Name),
		Unit:  strings.TrimSpace(body.Unit),
		Stock: stock,
	}, "Supply created")
}

func (h *Handler) UpdateSupply(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageSupplies {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage supplies")
		return
	}

	supplyID, err := readPathInt64(r, "supplyId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Supply id is required")
		return
	}

	var body supplyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := body.validate(); fields != nil {
		response.FieldErrors(w, fields)
		return
	}

	tag, err := h.DB.Exec(r.Context(), `
		update supplies set name = $1, unit = $2 where id = $3
	`, strings.TrimSpace(body.Name), strings.TrimSpace(body.Unit), supplyID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update supply")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "SUPPLY_NOT_FOUND", "Supply not found")
		return
	}

	response.Success(w, map[string]any{"id": supplyID})
}

func (h *Handler) DeleteSupply(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageSupplies {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage supplies")
		return
	}

	supplyID, err := readPathInt64(r, "supplyId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Supply id is required")
		return
	}

	tag, err := h.DB.Exec(r.Context(), `delete from supplies where id = $1`, supplyID)
	if err != nil {
		response.Error(w, http.StatusConflict, "SUPPLY_IN_USE", "Supply has recorded movements")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "SUPPLY_NOT_FOUND", "Supply not found")
		return
	}

	response.Success(w, map[string]any{"id": supplyID})
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageSupplies {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage supplies")
		return
	}

	query := `
		select m.id, m.supply_id, s.name, m.type, m.quantity, s.unit, m.created_at
		from supply_movements m
		join supplies s on s.id = m.supply_id
	`
	args := []any{}
	if supplyID := r.URL.Query().Get("supplyId"); supplyID != "" {
		query += ` where m.supply_id = $1`
		args = append(args, supplyID)
	}
	query += ` order by m.created_at desc`

	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list movements")
		return
	}
	defer rows.Close()

	movements := make([]MovementDetail, 0)
	for rows.Next() {
		var m MovementDetail
		if err := rows.Scan(&m.ID, &m.SupplyID, &m.SupplyName, &m.Type, &m.Quantity, &m.Unit, &m.CreatedAt); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list movements")
			return
		}
		movements = append(movements, m)
	}

	response.Success(w, movements)
}

// CreateMovement records an IN or OUT movement and adjusts the supply stock in
// the same transaction. OUT movements that would drive stock negative are
// rejected.
func (h *Handler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageSupplies {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage supplies")
		return
	}

	var body movementRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	fields := make(map[string]string)
	if body.SupplyID <= 0 {
		fields["supplyId"] = "Supply id is required"
	}
	if body.Type != MovementTypeIn && body.Type != MovementTypeOut {
		fields["type"] = "Type must be IN or OUT"
	}
	if body.Quantity == nil || *body.Quantity <= 0 {
		fields["quantity"] = "Quantity must be positive"
	}
	if len(fields) > 0 {
		response.FieldErrors(w, fields)
		return
	}

	tx, err := h.DB.Begin(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record movement")
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	var stock float64
	var unit, name string
	err = tx.QueryRow(r.Context(), `
		select name, unit, stock from supplies where id = $1 for update
	`, body.SupplyID).Scan(&name, &unit, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "SUPPLY_NOT_FOUND", "Supply not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record movement")
		return
	}

	delta := *body.Quantity
	if body.Type == MovementTypeOut {
		if stock-delta < 0 {
			response.Error(w, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Movement would drive stock below zero")
			return
		}
		delta = -delta
	}

	var movementID int64
	var createdAt pgtype.Timestamptz
	err = tx.QueryRow(r.Context(), `
		insert into supply_movements (supply_id, type, quantity)
		values ($1, $2, $3)
		returning id, created_at
	`, body.SupplyID, body.Type, *body.Quantity).Scan(&movementID, &createdAt)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record movement")
		return
	}

	if _, err := tx.Exec(r.Context(), `
		update supplies set stock = stock + $1 where id = $2
	`, delta, body.SupplyID); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record movement")
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record movement")
		return
	}

	response.Created(w, MovementDetail{
		ID:         movementID,
		SupplyID:   body.SupplyID,
		SupplyName: name,
		Type:       body.Type,
		Quantity:   *body.Quantity,
		Unit:       unit,
		CreatedAt:  createdAt.Time,
	}, "Movement recorded")
}
