package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/internal/pricing"
	"lamesa-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type comboComponentInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

type comboRequest struct {
	Name        string                `json:"name"`
	Description *string               `json:"description"`
	Type        string                `json:"type"`
	DiscountPct *float64              `json:"discountPct"`
	ValidFrom   *string               `json:"validFrom"`
	ValidUntil  *string               `json:"validUntil"`
	Components  []comboComponentInput `json:"components"`
}

func (req *comboRequest) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	if !validComboType(req.Type) {
		fields["type"] = "Type must be one of LUNCH, DINNER, UNRESTRICTED, SPECIAL"
	}
	if req.DiscountPct != nil && (*req.DiscountPct < 0 || *req.DiscountPct > 100) {
		fields["discountPct"] = "Discount must be between 0 and 100"
	}
	if req.ValidFrom != nil && !isValidYYYYMMDD(*req.ValidFrom) {
		fields["validFrom"] = "Date must be YYYY-MM-DD"
	}
	if req.ValidUntil != nil && !isValidYYYYMMDD(*req.ValidUntil) {
		fields["validUntil"] = "Date must be YYYY-MM-DD"
	}
	if len(req.Components) == 0 {
		fields["components"] = "At least one component is required"
	}
	for _, c := range req.Components {
		if c.ProductID <= 0 {
			fields["components"] = "Each component needs a product id"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *Handler) ListCombos(w http.ResponseWriter, r *http.Request) {
	query := `
		select id, name, description, type, state, discount_pct,
		       to_char(valid_from, 'YYYY-MM-DD'), to_char(valid_until, 'YYYY-MM-DD')
		from combos
	`
	args := []any{}
	if state := r.URL.Query().Get("state"); state != "" {
		query += ` where state = $1`
		args = append(args, state)
	}
	query += ` order by id desc`

	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list combos")
		return
	}
	defer rows.Close()

	combos := make([]ComboDetail, 0)
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list combos")
			return
		}
		combos = append(combos, c)
	}

	for i := range combos {
		components, err := h.fetchComboComponentDetails(r.Context(), combos[i].ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list combos")
			return
		}
		combos[i].Components = components
	}

	response.Success(w, combos)
}

func (h *Handler) GetCombo(w http.ResponseWriter, r *http.Request) {
	comboID, err := readPathInt64(r, "comboId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Combo id is required")
		return
	}

	combo, err := h.fetchComboDetail(r.Context(), comboID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "COMBO_NOT_FOUND", "Combo not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch combo")
		return
	}

	response.Success(w, combo)
}

// PreviewComboPrice prices one or more bundles of a combo without creating an
// order, using the same split the checkout applies.
func (h *Handler) PreviewComboPrice(w http.ResponseWriter, r *http.Request) {
	comboID, err := readPathInt64(r, "comboId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Combo id is required")
		return
	}

	bundles := int32(1)
	if raw := r.URL.Query().Get("bundles"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Bundles must be a positive integer")
			return
		}
		bundles = int32(parsed)
	}

	discountPct, components, err := h.fetchComboComponents(r.Context(), comboID)
	if err != nil {
		writeOrderPricingError(w, err)
		return
	}

	breakdown, err := pricing.PriceCombo(components, discountPct, bundles)
	if err != nil {
		writeOrderPricingError(w, err)
		return
	}

	response.Success(w, breakdown)
}

func (h *Handler) CreateCombo(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	var body comboRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := body.validate(); fields != nil {
		response.FieldErrors(w, fields)
		return
	}

	discountPct := 0.0
	if body.DiscountPct != nil {
		discountPct = *body.DiscountPct
	}

	tx, err := h.DB.Begin(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create combo")
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	var comboID int64
	err = tx.QueryRow(r.Context(), `
		insert into combos (name, description, type, state, discount_pct, valid_from, valid_until)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id
	`, strings.TrimSpace(body.Name), body.Description, body.Type, ComboStateActive,
		discountPct, body.ValidFrom, body.ValidUntil).Scan(&comboID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create combo")
		return
	}

	if err := replaceComboComponents(r.Context(), tx, comboID, body.Components); err != nil {
		response.Error(w, http.StatusUnprocessableEntity, "COMBO_COMPONENT_INVALID", "A component references an unknown product")
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create combo")
		return
	}

	combo, err := h.fetchComboDetail(r.Context(), comboID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch combo")
		return
	}

	response.Created(w, combo, "Combo created")
}

func (h *Handler) UpdateCombo(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	comboID, err := readPathInt64(r, "comboId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Combo id is required")
		return
	}

	var body comboRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := body.validate(); fields != nil {
		response.FieldErrors(w, fields)
		return
	}

	discountPct := 0.0
	if body.DiscountPct != nil {
		discountPct = *body.DiscountPct
	}

	tx, err := h.DB.Begin(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update combo")
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	tag, err := tx.Exec(r.Context(), `
		update combos
		set name = $1, description = $2, type = $3, discount_pct = $4, valid_from = $5, valid_until = $6
		where id = $7
	`, strings.TrimSpace(body.Name), body.Description, body.Type, discountPct,
		body.ValidFrom, body.ValidUntil, comboID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update combo")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "COMBO_NOT_FOUND", "Combo not found")
		return
	}

	if _, err := tx.Exec(r.Context(), `delete from combo_products where combo_id = $1`, comboID); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update combo")
		return
	}
	if err := replaceComboComponents(r.Context(), tx, comboID, body.Components); err != nil {
		response.Error(w, http.StatusUnprocessableEntity, "COMBO_COMPONENT_INVALID", "A component references an unknown product")
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update combo")
		return
	}

	combo, err := h.fetchComboDetail(r.Context(), comboID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch combo")
		return
	}

	response.Success(w, combo)
}

// UpdateComboState flips a combo between ACTIVE and FINISHED. Finished combos
// stay readable for order history but cannot be ordered.
func (h *Handler) UpdateComboState(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	comboID, err := readPathInt64(r, "comboId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Combo id is required")
		return
	}

	var body struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if body.State != ComboStateActive && body.State != ComboStateFinished {
		response.FieldErrors(w, map[string]string{"state": "State must be ACTIVE or FINISHED"})
		return
	}

	tag, err := h.DB.Exec(r.Context(), `update combos set state = $1 where id = $2`, body.State, comboID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update combo")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "COMBO_NOT_FOUND", "Combo not found")
		return
	}

	response.Success(w, map[string]any{"id": comboID, "state": body.State})
}

func (h *Handler) DeleteCombo(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	comboID, err := readPathInt64(r, "comboId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Combo id is required")
		return
	}

	tx, err := h.DB.Begin(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete combo")
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	if _, err := tx.Exec(r.Context(), `delete from combo_products where combo_id = $1`, comboID); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete combo")
		return
	}
	tag, err := tx.Exec(r.Context(), `delete from combos where id = $1`, comboID)
	if err != nil {
		response.Error(w, http.StatusConflict, "COMBO_IN_USE", "Combo is referenced by orders")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "COMBO_NOT_FOUND", "Combo not found")
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete combo")
		return
	}

	response.Success(w, map[string]any{"id": comboID})
}

func replaceComboComponents(ctx context.Context, tx pgx.Tx, comboID int64, components []comboComponentInput) error {
	for _, c := range components {
		quantity := c.Quantity
		if quantity < 1 {
			quantity = 1
		}
		if _, err := tx.Exec(ctx, `
			insert into combo_products (combo_id, product_id, quantity)
			values ($1, $2, $3)
		`, comboID, c.ProductID, quantity); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) fetchComboDetail(ctx context.Context, comboID int64) (ComboDetail, error) {
	row := h.DB.QueryRow(ctx, `
		select id, name, description, type, state, discount_pct,
		       to_char(valid_from, 'YYYY-MM-DD'), to_char(valid_until, 'YYYY-MM-DD')
		from combos
		where id = $1
	`, comboID)
	combo, err := scanCombo(row)
	if err != nil {
		return ComboDetail{}, err
	}

	components, err := h.fetchComboComponentDetails(ctx, comboID)
	if err != nil {
		return ComboDetail{}, err
	}
	combo.Components = components
	return combo, nil
}

func (h *Handler) fetchComboComponentDetails(ctx context.Context, comboID int64) ([]ComboComponentDetail, error) {
	rows, err := h.DB.Query(ctx, `
		select p.id, p.name, p.price, cp.quantity
		from combo_products cp
		join products p on p.id = cp.product_id
		where cp.combo_id = $1
		order by p.id asc
	`, comboID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	components := make([]ComboComponentDetail, 0)
	for rows.Next() {
		var c ComboComponentDetail
		if err := rows.Scan(&c.ProductID, &c.Name, &c.Price, &c.Quantity); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func scanCombo(row pgx.Row) (ComboDetail, error) {
	var c ComboDetail
	var description, validFrom, validUntil pgtype.Text
	if err := row.Scan(&c.ID, &c.Name, &description, &c.Type, &c.State, &c.DiscountPct, &validFrom, &validUntil); err != nil {
		return ComboDetail{}, err
	}
	c.Description = textPtr(description)
	c.ValidFrom = textPtr(validFrom)
	c.ValidUntil = textPtr(validUntil)
	return c, nil
}
