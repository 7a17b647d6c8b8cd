package pagofacil

import (
	"encoding/json"
	"sync"
	"time"
)

// PendingPayment is the metadata held between QR generation and the gateway
// callback. Entries expire after the store TTL; expired entries are dropped
// lazily on access and swept on writes.
type PendingPayment struct {
	PaymentNumber string          `json:"paymentNumber"`
	TransactionID string          `json:"transactionId"`
	ClientID      int64           `json:"clientId"`
	ClientName    string          `json:"clientName"`
	Amount        float64         `json:"amount"`
	Items         json.RawMessage `json:"items"`
	Status        string          `json:"status"`
	PaymentDate   string          `json:"paymentDate,omitempty"`
	PaymentTime   string          `json:"paymentTime,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	ReceivedAt    *time.Time      `json:"receivedAt,omitempty"`
}

type pendingEntry struct {
	payment   PendingPayment
	expiresAt time.Time
}

type PendingStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]pendingEntry
	now     func() time.Time
}

func NewPendingStore(ttl time.Duration) *PendingStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PendingStore{
		ttl:     ttl,
		entries: make(map[string]pendingEntry),
		now:     time.Now,
	}
}

func (s *PendingStore) Put(payment PendingPayment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	s.entries[payment.PaymentNumber] = pendingEntry{
		payment:   payment,
		expiresAt: now.Add(s.ttl),
	}
}

func (s *PendingStore) Get(paymentNumber string) (PendingPayment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[paymentNumber]
	if !ok {
		return PendingPayment{}, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, paymentNumber)
		return PendingPayment{}, false
	}
	return entry.payment, true
}

// MarkPaid records a gateway callback against a pending payment. The entry
// keeps its original expiry so the frontend can poll the outcome.
func (s *PendingStore) MarkPaid(paymentNumber, status, date, timeOfDay, method string) (PendingPayment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[paymentNumber]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.entries, paymentNumber)
		return PendingPayment{}, false
	}

	received := s.now()
	entry.payment.Status = status
	entry.payment.PaymentDate = date
	entry.payment.PaymentTime = timeOfDay
	entry.payment.PaymentMethod = method
	entry.payment.ReceivedAt = &received
	s.entries[paymentNumber] = entry
	return entry.payment, true
}

func (s *PendingStore) sweepLocked(now time.Time) {
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}
