package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type categoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type categoryDetail struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `
		select id, name, description from categories order by name asc
	`)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list categories")
		return
	}
	defer rows.Close()

	categories := make([]categoryDetail, 0)
	for rows.Next() {
		var c categoryDetail
		var description pgtype.Text
		if err := rows.Scan(&c.ID, &c.Name, &description); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list categories")
			return
		}
		c.Description = textPtr(description)
		categories = append(categories, c)
	}

	response.Success(w, categories)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	var body categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.FieldErrors(w, map[string]string{"name": "Name is required"})
		return
	}

	var id int64
	err := h.DB.QueryRow(r.Context(), `
		insert into categories (name, description) values ($1, $2) returning id
	`, name, body.Description).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "") {
			response.FieldErrors(w, map[string]string{"name": "A category with this name already exists"})
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create category")
		return
	}

	response.Created(w, categoryDetail{ID: id, Name: name, Description: body.Description}, "Category created")
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	categoryID, err := readPathInt64(r, "categoryId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Category id is required")
		return
	}

	var body categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.FieldErrors(w, map[string]string{"name": "Name is required"})
		return
	}

	tag, err := h.DB.Exec(r.Context(), `
		update categories set name = $1, description = $2 where id = $3
	`, name, body.Description, categoryID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update category")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
		return
	}

	response.Success(w, categoryDetail{ID: categoryID, Name: name, Description: body.Description})
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	categoryID, err := readPathInt64(r, "categoryId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Category id is required")
		return
	}

	tag, err := h.DB.Exec(r.Context(), `delete from categories where id = $1`, categoryID)
	if err != nil {
		response.Error(w, http.StatusConflict, "CATEGORY_IN_USE", "Category is referenced by products")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
		return
	}

	response.Success(w, map[string]any{"id": categoryID})
}
