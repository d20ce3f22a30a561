package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"easybuy/internal/domain"
	"easybuy/internal/events"
	"easybuy/internal/metrics"
	"easybuy/internal/validate"
)

type PaymentService struct {
	Bookings  BookingStore
	Payments  PaymentStore
	Processor Processor
	Events    *events.Bus
	Currency  string
	Timeout   time.Duration
}

func NewPaymentService(bookings BookingStore, payments PaymentStore, proc Processor, bus *events.Bus, currency string, timeout time.Duration) *PaymentService {
	if currency == "" {
		currency = "usd"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaymentService{
		Bookings: bookings, Payments: payments, Processor: proc, Events: bus,
		Currency: strings.ToLower(currency), Timeout: timeout,
	}
}

// CreateIntent opens a card-only charge for price and returns its client
// secret.
func (s *PaymentService) CreateIntent(ctx context.Context, caller domain.Caller, price domain.Price) (string, error) {
	secret, err := s.createIntent(ctx, caller, price)
	metrics.Transition("payment.intent", outcome(err))
	return secret, err
}

func (s *PaymentService) createIntent(ctx context.Context, caller domain.Caller, price domain.Price) (string, error) {
	if caller.Role != domain.RoleBuyer && !caller.IsAdmin() {
		return "", domain.ErrForbidden
	}
	if price <= 0 || !validate.Price(price) {
		return "", domain.Invalidf("productPrice must be a positive number")
	}
	if s.Processor == nil {
		return "", &domain.UpstreamError{Op: "create intent", Err: fmt.Errorf("payment processor not configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	in, err := s.Processor.CreateIntent(ctx, price.MinorUnits(), s.Currency)
	if err != nil {
		return "", err
	}
	return in.ClientSecret, nil
}

type PaymentInput struct {
	BookingProductID string `json:"bookingProductId"`
	ProductID        string `json:"productId"`
	Email            string `json:"email"`
	TransactionID    string `json:"transactionId"`
}

// Record verifies the charge with the processor and then, in one store
// transaction, appends the payment and marks booking and product paid.
func (s *PaymentService) Record(ctx context.Context, caller domain.Caller, in PaymentInput) (domain.Payment, error) {
	p, err := s.record(ctx, caller, in)
	metrics.Transition("payment.record", outcome(err))
	return p, err
}

func (s *PaymentService) record(ctx context.Context, caller domain.Caller, in PaymentInput) (domain.Payment, error) {
	if caller.Role != domain.RoleBuyer && !caller.IsAdmin() {
		return domain.Payment{}, domain.ErrForbidden
	}
	bookingID, ok := validate.ID(in.BookingProductID)
	if !ok {
		return domain.Payment{}, domain.Invalidf("invalid bookingProductId")
	}
	txID := strings.TrimSpace(in.TransactionID)
	if txID == "" || len(txID) > 255 {
		return domain.Payment{}, domain.Invalidf("transactionId is required")
	}

	b, err := s.Bookings.Get(ctx, bookingID)
	if err != nil {
		return domain.Payment{}, err
	}
	if !caller.Owns(b.BuyerEmail) {
		return domain.Payment{}, fmt.Errorf("%w: booking %s", domain.ErrForbidden, bookingID)
	}
	if in.Email != "" && !strings.EqualFold(in.Email, b.BuyerEmail) {
		return domain.Payment{}, domain.Invalidf("email does not match the booking")
	}
	if in.ProductID != b.ProductID {
		return domain.Payment{}, domain.Invalidf("productId does not match the booking")
	}
	if b.Paid {
		return domain.Payment{}, fmt.Errorf("booking %s is already paid: %w", bookingID, domain.ErrConflict)
	}

	if s.Processor == nil {
		return domain.Payment{}, &domain.UpstreamError{Op: "get intent", Err: fmt.Errorf("payment processor not configured")}
	}
	pctx, cancel := context.WithTimeout(ctx, s.Timeout)
	intent, err := s.Processor.GetIntent(pctx, txID)
	cancel()
	if err != nil {
		return domain.Payment{}, err
	}
	want := b.ProductPrice.MinorUnits()
	switch {
	case intent.Status != domain.IntentSucceeded:
		return domain.Payment{}, fmt.Errorf("%w: intent status %q", domain.ErrPaymentUnverified, intent.Status)
	case !strings.EqualFold(intent.Currency, s.Currency):
		return domain.Payment{}, fmt.Errorf("%w: currency %q, want %q", domain.ErrPaymentUnverified, intent.Currency, s.Currency)
	case intent.Amount != want:
		return domain.Payment{}, fmt.Errorf("%w: amount %d, want %d", domain.ErrPaymentUnverified, intent.Amount, want)
	}

	p, err := s.Payments.Record(ctx, domain.Payment{
		BookingProductID: b.ID,
		ProductID:        b.ProductID,
		BuyerEmail:       b.BuyerEmail,
		TransactionID:    txID,
		Amount:           intent.Amount,
		Currency:         strings.ToLower(intent.Currency),
	})
	if err != nil {
		return domain.Payment{}, err
	}
	_ = s.Events.PublishJSON(events.PaymentRecorded, events.PaymentPayload{
		PaymentID: p.ID, BookingID: p.BookingProductID, ProductID: p.ProductID, BuyerEmail: p.BuyerEmail,
		TransactionID: p.TransactionID, Amount: p.Amount, Currency: p.Currency,
	})
	return p, nil
}

func (s *PaymentService) ListByBuyer(ctx context.Context, caller domain.Caller, email string) ([]domain.Payment, error) {
	if !caller.Owns(email) {
		return nil, domain.ErrForbidden
	}
	return s.Payments.ListByBuyer(ctx, email)
}
