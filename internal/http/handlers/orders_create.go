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

type createOrderRequest struct {
	CustomerID    *int64             `json:"customerId"`
	Items         []orderItemRequest `json:"items"`
	PaymentMethod *string            `json:"paymentMethod"`
	Notes         *string            `json:"notes"`
}

type orderItemRequest struct {
	Type       string                  `json:"type"`
	ProductID  int64                   `json:"productId"`
	ComboID    int64                   `json:"comboId"`
	Quantity   int32                   `json:"quantity"`
	Components []comboComponentRequest `json:"components"`
}

type comboComponentRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// orderLineData is a fully priced line waiting for the insert transaction.
type orderLineData struct {
	ProductID int64
	Name      string
	Quantity  int32
	UnitPrice float64
	Subtotal  float64
}

var (
	errProductNotFound   = errors.New("product not found")
	errComboNotFound     = errors.New("combo not found")
	errComboNotOrderable = errors.New("combo not orderable")
)

// comboOrderable gates checkout: only ACTIVE combos inside their validity
// window may be priced into an order.
func comboOrderable(state string, inWindow bool) bool {
	return state == ComboStateActive && inWindow
}

// CreateOrder prices a cart of plain products and combos and persists the
// order, its lines and one payment detail row in a single transaction.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	var body createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if len(body.Items) == 0 {
		response.FieldErrors(w, map[string]string{"items": "Order must have at least one item"})
		return
	}
	for _, item := range body.Items {
		if item.Quantity < 1 {
			response.FieldErrors(w, map[string]string{"items": "Item quantity must be at least 1"})
			return
		}
		switch strings.ToLower(strings.TrimSpace(item.Type)) {
		case "product", "combo":
		default:
			response.FieldErrors(w, map[string]string{"items": "Item type must be product or combo"})
			return
		}
	}

	paymentMethod := PaymentMethodCash
	if body.PaymentMethod != nil {
		paymentMethod = strings.ToUpper(strings.TrimSpace(*body.PaymentMethod))
	}
	if paymentMethod != PaymentMethodCash && paymentMethod != PaymentMethodQR {
		response.FieldErrors(w, map[string]string{"paymentMethod": "Payment method must be CASH or QR"})
		return
	}

	ownerID := resolveOwner(authCtx, body.CustomerID)

	lines, total, err := h.priceOrderItems(ctx, body.Items)
	if err != nil {
		writeOrderPricingError(w, err)
		return
	}

	notes := strings.TrimSpace(defaultStringPtr(body.Notes))
	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	orderID, err := h.insertOrder(ctx, ownerID, notesPtr, total, lines, paymentMethod)
	if err != nil {
		h.Logger.Error("order insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	_ = queue.Publish(ctx, h.Queue, queue.RoutingOrderCreated, queue.OrderCreatedEvent{
		OrderID:       orderID,
		UserID:        ownerID,
		Total:         total,
		PaymentMethod: paymentMethod,
		ItemCount:     len(lines),
		CreatedAt:     time.Now(),
	})

	detail, err := h.fetchOrderDetail(ctx, orderID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}

	response.Created(w, detail, "Order created successfully")
}

// resolveOwner applies the self-booking rule: a plain customer always owns
// what they create, staff may act on a customer's behalf.
func resolveOwner(authCtx *middleware.AuthContext, target *int64) int64 {
	if authCtx.Role.IsCustomer() || !authCtx.Can().CanBookForOthers {
		return authCtx.UserID
	}
	if target != nil && *target > 0 {
		return *target
	}
	return authCtx.UserID
}

// priceOrderItems turns the cart into priced lines. All catalog reads happen
// up front so any missing reference aborts before the write transaction opens.
func (h *Handler) priceOrderItems(ctx context.Context, items []orderItemRequest) ([]orderLineData, float64, error) {
	lines := make([]orderLineData, 0, len(items))
	var total float64

	for _, item := range items {
		switch strings.ToLower(strings.TrimSpace(item.Type)) {
		case "product":
			product, err := h.fetchOrderProduct(ctx, item.ProductID)
			if err != nil {
				return nil, 0, err
			}
			subtotal := pricing.LineSubtotal(product.Price, item.Quantity)
			lines = append(lines, orderLineData{
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
				Subtotal:  subtotal,
			})
			total = pricing.Round2(total + subtotal)

		case "combo":
			breakdown, err := h.priceComboItem(ctx, item)
			if err != nil {
				return nil, 0, err
			}
			for _, line := range breakdown.Lines {
				lines = append(lines, orderLineData{
					ProductID: line.ProductID,
					Name:      line.Name,
					Quantity:  line.Quantity,
					UnitPrice: line.UnitPrice,
					Subtotal:  line.Subtotal,
				})
			}
			total = pricing.Round2(total + breakdown.Total)
		}
	}

	return lines, total, nil
}

func (h *Handler) priceComboItem(ctx context.Context, item orderItemRequest) (*pricing.ComboBreakdown, error) {
	discountPct, components, err := h.fetchComboComponents(ctx, item.ComboID)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, pricingEmptyCombo()
	}

	selected := components
	if len(item.Components) > 0 {
		overrides := make(map[int64]int32, len(item.Components))
		for _, o := range item.Components {
			qty := o.Quantity
			if qty < 1 {
				qty = 1
			}
			overrides[o.ProductID] = qty
		}
		selected = selected[:0:0]
		for _, c := range components {
			if qty, ok := overrides[c.ProductID]; ok {
				c.Quantity = qty
				selected = append(selected, c)
			}
		}
		if len(selected) == 0 {
			return nil, pricingEmptyCombo()
		}
	}

	return pricing.PriceCombo(selected, discountPct, item.Quantity)
}

func pricingEmptyCombo() error {
	return &pricing.Error{
		Code:       pricing.ErrComboNoComponents,
		Message:    "Combo has no resolvable components",
		StatusCode: http.StatusUnprocessableEntity,
	}
}

type orderProduct struct {
	ID    int64
	Name  string
	Price float64
}

func (h *Handler) fetchOrderProduct(ctx context.Context, productID int64) (orderProduct, error) {
	var p orderProduct
	err := h.DB.QueryRow(ctx, `
		select id, name, price
		from products
		where id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return orderProduct{}, errProductNotFound
	}
	return p, err
}

// fetchComboComponents loads a combo's discount and its component products in
// ascending product id order, the fixed tie-break order for remainder
// absorption. FINISHED combos and combos outside their validity window are
// rejected here so they stay readable but cannot be priced.
func (h *Handler) fetchComboComponents(ctx context.Context, comboID int64) (float64, []pricing.Component, error) {
	var discountPct float64
	var state string
	var inWindow bool
	err := h.DB.QueryRow(ctx, `
		select discount_pct, state,
		       (valid_from is null or valid_from <= current_date)
		       and (valid_until is null or valid_until >= current_date)
		from combos
		where id = $1
	`, comboID).Scan(&discountPct, &state, &inWindow)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, errComboNotFound
	}
	if err != nil {
		return 0, nil, err
	}
	if !comboOrderable(state, inWindow) {
		return 0, nil, errComboNotOrderable
	}

	rows, err := h.DB.Query(ctx, `
		select p.id, p.name, p.price, cp.quantity
		from combo_products cp
		join products p on p.id = cp.product_id
		where cp.combo_id = $1
		order by p.id asc
	`, comboID)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	components := make([]pricing.Component, 0)
	for rows.Next() {
		var c pricing.Component
		if err := rows.Scan(&c.ProductID, &c.Name, &c.Price, &c.Quantity); err != nil {
			return 0, nil, err
		}
		if c.Quantity < 1 {
			c.Quantity = 1
		}
		components = append(components, c)
	}
	return discountPct, components, rows.Err()
}

func (h *Handler) insertOrder(ctx context.Context, ownerID int64, notes *string, total float64, lines []orderLineData, paymentMethod string) (int64, error) {
	tx, err := h.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID int64
	if err := tx.QueryRow(ctx, `
		insert into orders (user_id, status, notes, total)
		values ($1, $2, $3, $4)
		returning id
	`, ownerID, OrderStatusConfirmed, notes, total).Scan(&orderID); err != nil {
		return 0, err
	}

	for _, line := range lines {
		if _, err := tx.Exec(ctx, `
			insert into order_items (order_id, product_id, quantity, unit_price, subtotal)
			values ($1, $2, $3, $4, $5)
		`, orderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal); err != nil {
			return 0, err
		}
	}

	var paymentID int64
	if err := tx.QueryRow(ctx, `
		select id from payments where method = $1
	`, paymentMethod).Scan(&paymentID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `
		insert into payment_details (payment_id, order_id, amount)
		values ($1, $2, $3)
	`, paymentID, orderID, total); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return orderID, nil
}

func writeOrderPricingError(w http.ResponseWriter, err error) {
	var pricingErr *pricing.Error
	switch {
	case errors.Is(err, errProductNotFound):
		response.Error(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, errComboNotFound):
		response.Error(w, http.StatusNotFound, "COMBO_NOT_FOUND", "Combo not found")
	case errors.Is(err, errComboNotOrderable):
		response.Error(w, http.StatusUnprocessableEntity, "COMBO_NOT_AVAILABLE", "Combo is not available for ordering")
	case errors.As(err, &pricingErr):
		response.Error(w, pricingErr.StatusCode, string(pricingErr.Code), pricingErr.Message)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to price order")
	}
}
