package services

import (
	"context"

	"easybuy/internal/domain"
)

// Store interfaces are satisfied by both the SQLite repos (internal/repos)
// and the MongoDB backend (internal/docstore). Every method returns
// domain.ErrNotFound / domain.ErrConflict for missing rows and lost
// conditional updates.

type UserStore interface {
	ByEmail(ctx context.Context, email string) (domain.User, error)
	Insert(ctx context.Context, u domain.User) (bool, domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Verify(ctx context.Context, email string) (int64, error)
	Delete(ctx context.Context, email string) (int64, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (domain.Category, error)
	Insert(ctx context.Context, c domain.Category) (domain.Category, error)
}

type ProductStore interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	Insert(ctx context.Context, p domain.Product) (domain.Product, error)
	ListAvailableByCategory(ctx context.Context, catID string) ([]domain.Product, error)
	ListAdvertised(ctx context.Context) ([]domain.Product, error)
	ListBySeller(ctx context.Context, email string) ([]domain.Product, error)
	Search(ctx context.Context, q, catID string, limit int) ([]domain.Product, error)
	Advertise(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// BookingStore.Create and Cancel are single transactions covering the
// booking row and the product's booked flag.
type BookingStore interface {
	Create(ctx context.Context, b domain.Booking) (domain.Booking, error)
	Cancel(ctx context.Context, bookingID, productID string) (int64, error)
	Get(ctx context.Context, id string) (domain.Booking, error)
	ListByBuyer(ctx context.Context, email string) ([]domain.Booking, error)
}

// PaymentStore.Record inserts the payment and flips both paid flags in one
// transaction.
type PaymentStore interface {
	Record(ctx context.Context, p domain.Payment) (domain.Payment, error)
	ListByBuyer(ctx context.Context, email string) ([]domain.Payment, error)
	ListAll(ctx context.Context) ([]domain.Payment, error)
}

// Processor is the card processor.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (domain.Intent, error)
	GetIntent(ctx context.Context, id string) (domain.Intent, error)
}

// Stores groups one backend's repositories.
type Stores struct {
	Users      UserStore
	Categories CategoryStore
	Products   ProductStore
	Bookings   BookingStore
	Payments   PaymentStore
}
