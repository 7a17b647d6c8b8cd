package handlers

import "time"

// Order statuses. A checkout-created order starts CONFIRMED; the kitchen moves
// it along afterwards.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Reservation statuses. A reservation occupies its slot while in any of the
// non-terminal payment states; CANCELLED and COMPLETED free it.
const (
	ReservationStatusPending       = "PENDING"
	ReservationStatusConfirmed     = "CONFIRMED"
	ReservationStatusPartiallyPaid = "PARTIALLY_PAID"
	ReservationStatusPaid          = "PAID"
	ReservationStatusCancelled     = "CANCELLED"
	ReservationStatusCompleted     = "COMPLETED"
)

const (
	PaymentMethodCash = "CASH"
	PaymentMethodQR   = "QR"
)

const (
	PaymentPlanFull         = "FULL"
	PaymentPlanInstallments = "INSTALLMENTS"
)

const (
	ComboTypeLunch        = "LUNCH"
	ComboTypeDinner       = "DINNER"
	ComboTypeUnrestricted = "UNRESTRICTED"
	ComboTypeSpecial      = "SPECIAL"

	ComboStateActive   = "ACTIVE"
	ComboStateFinished = "FINISHED"
)

const (
	MovementTypeIn  = "IN"
	MovementTypeOut = "OUT"
)

type OrderLineDetail struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int32   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

type OrderDetail struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"userId"`
	CustomerName  string            `json:"customerName"`
	Status        string            `json:"status"`
	Notes         *string           `json:"notes"`
	Total         float64           `json:"total"`
	PaymentMethod string            `json:"paymentMethod"`
	CreatedAt     time.Time         `json:"createdAt"`
	Lines         []OrderLineDetail `json:"lines"`
}

type ReservationDetail struct {
	ID                int64      `json:"id"`
	TableID           int64      `json:"tableId"`
	TableNumber       int32      `json:"tableNumber"`
	TableCapacity     int32      `json:"tableCapacity"`
	UserID            int64      `json:"userId"`
	CustomerName      string     `json:"customerName"`
	Date              string     `json:"date"`
	Time              string     `json:"time"`
	PartySize         int32      `json:"partySize"`
	Notes             *string    `json:"notes"`
	Status            string     `json:"status"`
	PaymentType       string     `json:"paymentType"`
	NumInstallments   int32      `json:"numInstallments"`
	InstallmentAmount float64    `json:"installmentAmount"`
	Amount            float64    `json:"amount"`
	AmountPaid        float64    `json:"amountPaid"`
	InstallmentsPaid  int32      `json:"installmentsPaid"`
	TransactionID     *string    `json:"transactionId"`
	TransactionID2    *string    `json:"transactionId2"`
	SecondPaidAt      *time.Time `json:"secondPaidAt"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type TableAvailability struct {
	ID        int64 `json:"id"`
	Number    int32 `json:"number"`
	Capacity  int32 `json:"capacity"`
	Available bool  `json:"available"`
}

type ProductDetail struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Cost        float64 `json:"cost"`
	Available   bool    `json:"available"`
	CategoryID  *int64  `json:"categoryId"`
}

type ComboComponentDetail struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int32   `json:"quantity"`
}

type ComboDetail struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Description *string                `json:"description"`
	Type        string                 `json:"type"`
	State       string                 `json:"state"`
	DiscountPct float64                `json:"discountPct"`
	ValidFrom   *string                `json:"validFrom"`
	ValidUntil  *string                `json:"validUntil"`
	Components  []ComboComponentDetail `json:"components"`
}

type SupplyDetail struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Stock float64 `json:"stock"`
}

type MovementDetail struct {
	ID         int64     `json:"id"`
	SupplyID   int64     `json:"supplyId"`
	SupplyName string    `json:"supplyName"`
	Type       string    `json:"type"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `json:"unit"`
	CreatedAt  time.Time `json:"createdAt"`
}

func validOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func validReservationStatus(status string) bool {
	switch status {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusPartiallyPaid,
		ReservationStatusPaid, ReservationStatusCancelled, ReservationStatusCompleted:
		return true
	}
	return false
}

func validComboType(comboType string) bool {
	switch comboType {
	case ComboTypeLunch, ComboTypeDinner, ComboTypeUnrestricted, ComboTypeSpecial:
		return true
	}
	return false
}

// slotOccupyingStatuses are the reservation states that keep a (table, date,
// time) slot taken. Must match the partial unique index uniq_reservations_slot.
var slotOccupyingStatuses = []string{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusPaid,
	ReservationStatusPartiallyPaid,
}
