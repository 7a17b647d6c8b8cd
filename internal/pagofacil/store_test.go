package pagofacil

import (
	"testing"
	"time"
)

func newTestStore(ttl time.Duration) (*PendingStore, *time.Time) {
	current := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store := NewPendingStore(ttl)
	store.now = func() time.Time { return current }
	return store, &current
}

func TestPendingStorePutGet(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	store.Put(PendingPayment{PaymentNumber: "ORD-1-1234", Amount: 58.50, Status: "pending"})

	got, ok := store.Get("ORD-1-1234")
	if !ok {
		t.Fatalf("expected entry to be present")
	}
	if got.Amount != 58.50 || got.Status != "pending" {
		t.Fatalf("unexpected entry: %+v", got)
	}

	if _, ok := store.Get("ORD-0-0000"); ok {
		t.Fatalf("expected miss for unknown payment number")
	}
}

func TestPendingStoreExpiry(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	store.Put(PendingPayment{PaymentNumber: "ORD-1-1234", Status: "pending"})

	*clock = clock.Add(59 * time.Minute)
	if _, ok := store.Get("ORD-1-1234"); !ok {
		t.Fatalf("entry expired too early")
	}

	*clock = clock.Add(2 * time.Minute)
	if _, ok := store.Get("ORD-1-1234"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestPendingStoreMarkPaid(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	store.Put(PendingPayment{PaymentNumber: "ORD-1-1234", Status: "pending"})

	payment, ok := store.MarkPaid("ORD-1-1234", "2", "2026-03-14", "12:30", "QR")
	if !ok {
		t.Fatalf("expected callback to find the entry")
	}
	if payment.Status != "2" || payment.PaymentMethod != "QR" {
		t.Fatalf("unexpected payment after callback: %+v", payment)
	}
	if payment.ReceivedAt == nil {
		t.Fatalf("expected receivedAt to be set")
	}

	*clock = clock.Add(2 * time.Hour)
	if _, ok := store.MarkPaid("ORD-1-1234", "2", "", "", ""); ok {
		t.Fatalf("expected callback against expired entry to miss")
	}
}

func TestPendingStoreSweepOnPut(t *testing.T) {
	store, clock := newTestStore(time.Minute)

	store.Put(PendingPayment{PaymentNumber: "ORD-old"})
	*clock = clock.Add(2 * time.Minute)
	store.Put(PendingPayment{PaymentNumber: "ORD-new"})

	store.mu.Lock()
	_, oldPresent := store.entries["ORD-old"]
	store.mu.Unlock()
	if oldPresent {
		t.Fatalf("expected expired entry to be swept on Put")
	}
}
