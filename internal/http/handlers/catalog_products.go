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

type productRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Cost        *float64 `json:"cost"`
	Available   *bool    `json:"available"`
	CategoryID  *int64   `json:"categoryId"`
}

func (req *productRequest) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	if req.Price == nil {
		fields["price"] = "Price is required"
	} else if *req.Price < 0 {
		fields["price"] = "Price must not be negative"
	}
	if req.Cost != nil && *req.Cost < 0 {
		fields["cost"] = "Cost must not be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := `
		select id, name, description, price, cost, available, category_id
		from products
	`
	args := []any{}
	if categoryID := r.URL.Query().Get("categoryId"); categoryID != "" {
		query += ` where category_id = $1`
		args = append(args, categoryID)
	}
	query += ` order by name asc`

	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list products")
		return
	}
	defer rows.Close()

	products := make([]ProductDetail, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list products")
			return
		}
		products = append(products, p)
	}

	response.Success(w, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := readPathInt64(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Product id is required")
		return
	}

	row := h.DB.QueryRow(r.Context(), `
		select id, name, description, price, cost, available, category_id
		from products
		where id = $1
	`, productID)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch product")
		return
	}

	response.Success(w, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	var body productRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := body.validate(); fields != nil {
		response.FieldErrors(w, fields)
		return
	}

	cost := 0.0
	if body.Cost != nil {
		cost = *body.Cost
	}
	available := true
	if body.Available != nil {
		available = *body.Available
	}

	var id int64
	err := h.DB.QueryRow(r.Context(), `
		insert into products (name, description, price, cost, available, category_id)
		values ($1, $2, $3, $4, $5, $6)
		returning id
	`, strings.TrimSpace(body.Name), body.Description, *body.Price, cost, available, body.CategoryID).Scan(&id)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create product")
		return
	}

	response.Created(w, ProductDetail{
		ID:          id,
		Name:        strings.TrimSpace(body.Name),
		Description: body.Description,
		Price:       *body.Price,
		Cost:        cost,
		Available:   available,
		CategoryID:  body.CategoryID,
	}, "Product created")
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	productID, err := readPathInt64(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Product id is required")
		return
	}

	var body productRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := body.validate(); fields != nil {
		response.FieldErrors(w, fields)
		return
	}

	cost := 0.0
	if body.Cost != nil {
		cost = *body.Cost
	}
	available := true
	if body.Available != nil {
		available = *body.Available
	}

	tag, err := h.DB.Exec(r.Context(), `
		update products
		set name = $1, description = $2, price = $3, cost = $4, available = $5, category_id = $6
		where id = $7
	`, strings.TrimSpace(body.Name), body.Description, *body.Price, cost, available, body.CategoryID, productID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update product")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		return
	}

	response.Success(w, ProductDetail{
		ID:          productID,
		Name:        strings.TrimSpace(body.Name),
		Description: body.Description,
		Price:       *body.Price,
		Cost:        cost,
		Available:   available,
		CategoryID:  body.CategoryID,
	})
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.Can().CanManageCatalog {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to manage the catalog")
		return
	}

	productID, err := readPathInt64(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Product id is required")
		return
	}

	tag, err := h.DB.Exec(r.Context(), `delete from products where id = $1`, productID)
	if err != nil {
		response.Error(w, http.StatusConflict, "PRODUCT_IN_USE", "Product is referenced by orders or combos")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		return
	}

	response.Success(w, map[string]any{"id": productID})
}

func scanProduct(row pgx.Row) (ProductDetail, error) {
	var p ProductDetail
	var description pgtype.Text
	var price, cost pgtype.Numeric
	var categoryID pgtype.Int8
	if err := row.Scan(&p.ID, &p.Name, &description, &price, &cost, &p.Available, &categoryID); err != nil {
		return ProductDetail{}, err
	}
	p.Description = textPtr(description)
	p.Price = numericToFloat64(price)
	p.Cost = numericToFloat64(cost)
	if categoryID.Valid {
		value := categoryID.Int64
		p.CategoryID = &value
	}
	return p, nil
}
