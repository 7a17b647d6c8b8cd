package queue

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	EventsExchange     = "lamesa.events"
	NotificationsQueue = "lamesa.notifications"

	RoutingOrderCreated       = "order.created"
	RoutingOrderStatusUpdated = "order.status.updated"
	RoutingReservationCreated = "reservation.created"
	RoutingReservationPaid    = "reservation.paid"
)

type OrderCreatedEvent struct {
	OrderID       int64     `json:"orderId"`
	UserID        int64     `json:"userId"`
	Total         float64   `json:"total"`
	PaymentMethod string    `json:"paymentMethod"`
	ItemCount     int       `json:"itemCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type OrderStatusEvent struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

type ReservationEvent struct {
	ReservationID int64   `json:"reservationId"`
	UserID        int64   `json:"userId"`
	TableID       int64   `json:"tableId"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	AmountPaid    float64 `json:"amountPaid"`
}

// EnsureEventTopology declares the exchange and notification queue and binds
// the order.# and reservation.# routing keys. Topic wildcard '#' covers
// multi-segment keys like order.status.updated.
func EnsureEventTopology(c *Client) error {
	if err := c.EnsureExchange(EventsExchange); err != nil {
		return err
	}
	if _, err := c.EnsureQueue(NotificationsQueue); err != nil {
		return err
	}
	if err := c.BindQueue(NotificationsQueue, EventsExchange, "order.#"); err != nil {
		return err
	}
	return c.BindQueue(NotificationsQueue, EventsExchange, "reservation.#")
}

// Publish sends an event without blocking the request path on broker trouble;
// callers treat failures as best-effort.
func Publish(ctx context.Context, c *Client, routingKey string, payload any) error {
	if c == nil {
		return nil
	}
	return c.PublishJSON(ctx, EventsExchange, routingKey, payload)
}

// LogEvent is the default consumer: it surfaces domain events in the service
// log until a real notification channel is attached.
func LogEvent(log *zap.Logger, body []byte) error {
	var generic map[string]any
	if err := json.Unmarshal(body, &generic); err != nil {
		return err
	}
	log.Info("domain event", zap.Any("event", generic))
	return nil
}
