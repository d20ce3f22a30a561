package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"easybuy/internal/domain"
	"easybuy/internal/events"
	"easybuy/internal/metrics"
	"easybuy/internal/validate"
)

type BookingService struct {
	Bookings BookingStore
	Prods    ProductStore
	Events   *events.Bus
}

func NewBookingService(bookings BookingStore, prods ProductStore, bus *events.Bus) *BookingService {
	return &BookingService{Bookings: bookings, Prods: prods, Events: bus}
}

// Create books an available product for the caller. The stored product's
// price wins over whatever the client sent.
func (s *BookingService) Create(ctx context.Context, caller domain.Caller, in domain.Booking) (domain.Booking, error) {
	b, err := s.create(ctx, caller, in)
	metrics.Transition("booking.create", outcome(err))
	return b, err
}

func (s *BookingService) create(ctx context.Context, caller domain.Caller, in domain.Booking) (domain.Booking, error) {
	if caller.Role != domain.RoleBuyer && !caller.IsAdmin() {
		return domain.Booking{}, fmt.Errorf("%w: only buyers can book", domain.ErrForbidden)
	}
	if in.BuyerEmail == "" {
		in.BuyerEmail = caller.Email
	}
	email, ok := validate.Email(in.BuyerEmail)
	if !ok {
		return domain.Booking{}, domain.Invalidf("invalid buyerEmail")
	}
	if !caller.Owns(email) {
		return domain.Booking{}, fmt.Errorf("%w: cannot book for another buyer", domain.ErrForbidden)
	}
	productID, ok := validate.ID(in.ProductID)
	if !ok {
		return domain.Booking{}, domain.Invalidf("invalid productId")
	}
	phone, ok := validate.Phone(in.Phone)
	if !ok {
		return domain.Booking{}, domain.Invalidf("invalid phone")
	}
	if len(in.BuyerName) > 80 || len(in.MeetingLocation) > 200 {
		return domain.Booking{}, domain.Invalidf("field too long")
	}

	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return domain.Booking{}, err
	}
	if strings.EqualFold(p.SellerEmail, email) {
		return domain.Booking{}, fmt.Errorf("%w: sellers cannot book their own products", domain.ErrForbidden)
	}

	b, err := s.Bookings.Create(ctx, domain.Booking{
		ProductID:       productID,
		BuyerEmail:      email,
		BuyerName:       strings.TrimSpace(in.BuyerName),
		Phone:           phone,
		MeetingLocation: strings.TrimSpace(in.MeetingLocation),
	})
	if err != nil {
		return domain.Booking{}, err
	}
	_ = s.Events.PublishJSON(events.BookingCreated, events.BookingPayload{
		BookingID: b.ID, ProductID: b.ProductID, BuyerEmail: b.BuyerEmail,
		ProductPrice: float64(b.ProductPrice), Actor: caller.Email,
	})
	return b, nil
}

// Cancel removes an unpaid booking owned by the caller and releases the
// product.
func (s *BookingService) Cancel(ctx context.Context, caller domain.Caller, bookingID, productID string) (domain.WriteResult, error) {
	res, err := s.cancel(ctx, caller, bookingID, productID)
	metrics.Transition("booking.cancel", outcome(err))
	return res, err
}

func (s *BookingService) cancel(ctx context.Context, caller domain.Caller, bookingID, productID string) (domain.WriteResult, error) {
	b, err := s.Get(ctx, caller, bookingID)
	if err != nil {
		return domain.WriteResult{}, err
	}
	if b.ProductID != productID {
		return domain.WriteResult{}, fmt.Errorf("booking %s for product %s: %w", bookingID, productID, domain.ErrNotFound)
	}
	if b.Paid {
		return domain.WriteResult{}, fmt.Errorf("booking %s is paid: %w", bookingID, domain.ErrConflict)
	}
	n, err := s.Bookings.Cancel(ctx, b.ID, b.ProductID)
	if err != nil {
		return domain.WriteResult{}, err
	}
	_ = s.Events.PublishJSON(events.BookingCancelled, events.BookingPayload{
		BookingID: b.ID, ProductID: b.ProductID, BuyerEmail: b.BuyerEmail,
		ProductPrice: float64(b.ProductPrice), Actor: caller.Email,
	})
	return domain.Deleted(n), nil
}

func (s *BookingService) ListByBuyer(ctx context.Context, caller domain.Caller, email string) ([]domain.Booking, error) {
	if !caller.Owns(email) {
		return nil, domain.ErrForbidden
	}
	return s.Bookings.ListByBuyer(ctx, email)
}

// Get returns a booking visible to its buyer or an admin. Other callers get
// ErrForbidden.
func (s *BookingService) Get(ctx context.Context, caller domain.Caller, id string) (domain.Booking, error) {
	id, ok := validate.ID(id)
	if !ok {
		return domain.Booking{}, domain.Invalidf("invalid booking id")
	}
	b, err := s.Bookings.Get(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if !caller.Owns(b.BuyerEmail) {
		return domain.Booking{}, fmt.Errorf("%w: booking %s", domain.ErrForbidden, id)
	}
	return b, nil
}

func outcome(err error) string {
	var up *domain.UpstreamError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthenticated):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalid):
		return "invalid"
	case errors.Is(err, domain.ErrPaymentUnverified):
		return "unverified"
	case errors.As(err, &up):
		return "upstream"
	}
	return "error"
}
