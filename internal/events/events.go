// Package events carries lifecycle notifications (bookings, payments,
// advertising) from the services to whatever sinks are attached.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	BookingCreated    = "booking.created"
	BookingCancelled  = "booking.cancelled"
	PaymentRecorded   = "payment.recorded"
	ProductAdvertised = "product.advertised"
)

// Types lists every event type the services publish.
var Types = []string{BookingCreated, BookingCancelled, PaymentRecorded, ProductAdvertised}

type BookingPayload struct {
	BookingID    string  `json:"bookingId"`
	ProductID    string  `json:"productId"`
	BuyerEmail   string  `json:"buyerEmail"`
	ProductPrice float64 `json:"productPrice"`
	Actor        string  `json:"actor"`
}

type PaymentPayload struct {
	PaymentID     string `json:"paymentId"`
	BookingID     string `json:"bookingId"`
	ProductID     string `json:"productId"`
	BuyerEmail    string `json:"buyerEmail"`
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

type ProductPayload struct {
	ProductID   string `json:"productId"`
	SellerEmail string `json:"sellerEmail"`
}

type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Handler reacts to an event. Errors are reported to the bus's error hook
// and never stop delivery to the other handlers.
type Handler func(event *Event) error

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	onError     func(event *Event, err error)
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// OnError sets the hook invoked when a handler fails.
func (b *Bus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], h)
}

// SubscribeAll registers h for every type in Types.
func (b *Bus) SubscribeAll(h Handler) {
	for _, t := range Types {
		b.Subscribe(t, h)
	}
}

// Publish runs handlers synchronously in subscription order.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	for _, h := range handlers {
		if err := h(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes payload and publishes it. A nil bus is a no-op.
func (b *Bus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now().UTC()})
	return nil
}
