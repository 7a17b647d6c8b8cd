package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/internal/queue"
	"lamesa-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ListOrders returns all orders for staff, or the caller's own for customers.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	query := `
		select o.id, o.user_id, coalesce(u.name, ''), o.status, o.notes, o.total,
		       coalesce(p.method, ''), o.created_at
		from orders o
		left join users u on u.id = o.user_id
		left join payment_details pd on pd.order_id = o.id
		left join payments p on p.id = pd.payment_id
	`
	args := []any{}
	if !authCtx.Can().CanViewAllOrders {
		query += ` where o.user_id = $1`
		args = append(args, authCtx.UserID)
	}
	query += ` order by o.created_at desc`

	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list orders")
		return
	}
	defer rows.Close()

	orders := make([]OrderDetail, 0)
	for rows.Next() {
		var o OrderDetail
		var notes pgtype.Text
		if err := rows.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.Status, &notes, &o.Total, &o.PaymentMethod, &o.CreatedAt); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list orders")
			return
		}
		o.Notes = textPtr(notes)
		o.Lines = []OrderLineDetail{}
		orders = append(orders, o)
	}

	response.Success(w, orders)
}

// GetOrder returns one order with its lines. Customers may only read their own.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
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

	response.Success(w, detail)
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus validates enum membership only; any status may move to any
// other. See DESIGN.md for why the permissive graph is kept.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok || !authCtx.Can().CanUpdateOrderStatus {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to update order status")
		return
	}

	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order id is required")
		return
	}

	var body updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if !validOrderStatus(status) {
		response.FieldErrors(w, map[string]string{"status": "Unknown order status"})
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update orders set status = $1 where id = $2
	`, status, orderID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	_ = queue.Publish(ctx, h.Queue, queue.RoutingOrderStatusUpdated, queue.OrderStatusEvent{
		OrderID: orderID,
		Status:  status,
	})

	response.Success(w, map[string]any{"id": orderID, "status": status})
}

func (h *Handler) fetchOrderDetail(ctx context.Context, orderID int64) (OrderDetail, error) {
	var detail OrderDetail
	var notes pgtype.Text
	err := h.DB.QueryRow(ctx, `
		select o.id, o.user_id, coalesce(u.name, ''), o.status, o.notes, o.total,
		       coalesce(p.method, ''), o.created_at
		from orders o
		left join users u on u.id = o.user_id
		left join payment_details pd on pd.order_id = o.id
		left join payments p on p.id = pd.payment_id
		where o.id = $1
	`, orderID).Scan(&detail.ID, &detail.UserID, &detail.CustomerName, &detail.Status, &notes, &detail.Total, &detail.PaymentMethod, &detail.CreatedAt)
	if err != nil {
		return OrderDetail{}, err
	}
	detail.Notes = textPtr(notes)

	rows, err := h.DB.Query(ctx, `
		select oi.id, oi.product_id, coalesce(pr.name, ''), oi.quantity, oi.unit_price, oi.subtotal
		from order_items oi
		left join products pr on pr.id = oi.product_id
		where oi.order_id = $1
		order by oi.id asc
	`, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	defer rows.Close()

	detail.Lines = make([]OrderLineDetail, 0)
	for rows.Next() {
		var line OrderLineDetail
		if err := rows.Scan(&line.ID, &line.ProductID, &line.Name, &line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return OrderDetail{}, err
		}
		detail.Lines = append(detail.Lines, line)
	}
	return detail, rows.Err()
}
