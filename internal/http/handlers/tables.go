package handlers

import (
	"encoding/json"
	"net/http"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/pkg/response"
)

type tableRequest struct {
	Number   *int32 `json:"number"`
	Capacity *int32 `json:"capacity"`
}

type tableDetail struct {
	ID       int64 `json:"id"`
	Number   int32 `json:"number"`
	Capacity int32 `json:"capacity"`
}

func (req *tableRequest) validate() map[string]string {
	fields := make(map[string]string)
	if req.Number == nil || *req.Number < 1 {
		fields["number"] = "Number must be a positive integer"
	}
	if req.Capacity == nil || *req.Capacity < 1 {
		fields["capacity"] = "Capacity must be a positive integer"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `
		select id, table_number, capacity from dining_tables order by table_number asc
	`)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tables")
		return
	}
	defer rows.Close()

	tables := make([]tableDetail, 0)
	for rows.Next() {
		var t tableDetail
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tables")
			return
		}
		tables = append(tables, t)
	}

	response.Success(w, tables)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage tables")
		return
	}

	var body tableRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := body.validate(); fields != nil {
		response.FieldErrors(w, fields)
		return
	}

	var id int64
	err := h.DB.QueryRow(r.Context(), `
		insert into dining_tables (table_number, capacity) values ($1, $2) returning id
	`, *body.Number, *body.Capacity).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "") {
			response.FieldErrors(w, map[string]string{"number": "A table with this number already exists"})
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create table")
		return
	}

	response.Created(w, tableDetail{ID: id, Number: *body.Number, Capacity: *body.Capacity}, "Table created")
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage tables")
		return
	}

	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table id is required")
		return
	}

	var body tableRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := body.validate(); fields != nil {
		response.FieldErrors(w, fields)
		return
	}

	tag, err := h.DB.Exec(r.Context(), `
		update dining_tables set table_number = $1, capacity = $2 where id = $3
	`, *body.Number, *body.Capacity, tableID)
	if err != nil {
		if isUniqueViolation(err, "") {
			response.FieldErrors(w, map[string]string{"number": "A table with this number already exists"})
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update table")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	response.Success(w, tableDetail{ID: tableID, Number: *body.Number, Capacity: *body.Capacity})
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage tables")
		return
	}

	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table id is required")
		return
	}

	tag, err := h.DB.Exec(r.Context(), `delete from dining_tables where id = $1`, tableID)
	if err != nil {
		response.Error(w, http.StatusConflict, "TABLE_IN_USE", "Table has reservations")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	response.Success(w, map[string]any{"id": tableID})
}
