package repos

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybuy/internal/domain"
)

func openTest(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProduct(t *testing.T, db *sqlx.DB, name string, price domain.Price) domain.Product {
	t.Helper()
	p, err := NewProductRepo(db).Insert(context.Background(), domain.Product{
		SellerEmail: "seller@easybuy.test",
		SellerName:  "Sam Seller",
		CategoryID:  "phones",
		Name:        name,
		Description: "lightly used",
		Price:       price,
	})
	require.NoError(t, err)
	return p
}

func TestOpenDBSeeds(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	cats, err := NewCategoryRepo(db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)

	admin, err := NewUserRepo(db).ByEmail(ctx, "ADMIN@easybuy.test")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.NotEmpty(t, admin.Hash)
}

func TestUserInsertIsIdempotent(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	users := NewUserRepo(db)

	inserted, u, err := users.Insert(ctx, domain.User{Email: "new@x.io", Name: "First", Role: domain.RoleBuyer})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, again, err := users.Insert(ctx, domain.User{Email: "NEW@x.io", Name: "Second", Role: domain.RoleSeller})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "First", again.Name)
	assert.Equal(t, domain.RoleBuyer, again.Role)

	sellers, err := users.ListByRole(ctx, domain.RoleSeller)
	require.NoError(t, err)
	assert.Len(t, sellers, 1)
}

func TestUserVerifyAndDelete(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	users := NewUserRepo(db)

	_, err := users.Verify(ctx, "ghost@x.io")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := users.Verify(ctx, "buyer@easybuy.test")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = users.Delete(ctx, "admin@easybuy.test")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = users.Delete(ctx, "ghost@x.io")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, err = users.Delete(ctx, "buyer@easybuy.test")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCategoryInsertDuplicateName(t *testing.T) {
	db := openTest(t)
	_, err := NewCategoryRepo(db).Insert(context.Background(), domain.Category{Name: "PHONES"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAdvertiseUnknownCreatesNothing(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	products := NewProductRepo(db)

	_, err := products.Advertise(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM products`))
	assert.Zero(t, n)

	p := seedProduct(t, db, "Pixel 6", 120)
	_, err = products.Advertise(ctx, p.ID)
	require.NoError(t, err)
	ads, err := products.ListAdvertised(ctx)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, p.ID, ads[0].ID)
}

func TestSearchAvailableOnly(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	a := seedProduct(t, db, "Galaxy S10", 90)
	seedProduct(t, db, "Oak desk", 40)
	_ = seedProduct(t, db, "Galaxy Tab 100%", 70)

	got, err := NewProductRepo(db).Search(ctx, "galaxy", "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = NewProductRepo(db).Search(ctx, "100%", "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = NewBookingRepo(db).Create(ctx, domain.Booking{ProductID: a.ID, BuyerEmail: "buyer@easybuy.test"})
	require.NoError(t, err)
	got, err = NewProductRepo(db).Search(ctx, "galaxy", "phones", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, a.ID, got[0].ID)
}

func TestBookingLifecycle(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	products := NewProductRepo(db)
	bookings := NewBookingRepo(db)
	p := seedProduct(t, db, "Pixel 7", 50)

	b, err := bookings.Create(ctx, domain.Booking{ProductID: p.ID, BuyerEmail: "buyer@easybuy.test", ProductPrice: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.Price(50), b.ProductPrice)
	assert.Equal(t, "Pixel 7", b.ProductName)

	stored, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Booked)
	n, err := bookings.CountByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	avail, err := products.ListAvailableByCategory(ctx, "phones")
	require.NoError(t, err)
	assert.Empty(t, avail)

	_, err = bookings.Create(ctx, domain.Booking{ProductID: p.ID, BuyerEmail: "other@x.io"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = products.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = bookings.Cancel(ctx, b.ID, "wrong-product")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = bookings.Cancel(ctx, b.ID, p.ID)
	require.NoError(t, err)

	stored, err = products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.Booked)
	_, err = bookings.Get(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = bookings.Create(ctx, domain.Booking{ProductID: "missing", BuyerEmail: "buyer@easybuy.test"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentBookingOneWinner(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	bookings := NewBookingRepo(db)
	p := seedProduct(t, db, "Pixel 8", 300)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = bookings.Create(ctx, domain.Booking{ProductID: p.ID, BuyerEmail: "buyer@easybuy.test"})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	count, err := bookings.CountByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPaymentRecord(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	p := seedProduct(t, db, "ThinkPad", 450)
	b, err := NewBookingRepo(db).Create(ctx, domain.Booking{ProductID: p.ID, BuyerEmail: "buyer@easybuy.test"})
	require.NoError(t, err)

	payments := NewPaymentRepo(db)
	pay := domain.Payment{
		BookingProductID: b.ID,
		ProductID:        p.ID,
		BuyerEmail:       "buyer@easybuy.test",
		TransactionID:    "pi_123",
		Amount:           45000,
		Currency:         "usd",
	}
	rec, err := payments.Record(ctx, pay)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	booking, err := NewBookingRepo(db).Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, booking.Paid)
	assert.Equal(t, "pi_123", booking.TransactionID)
	product, err := NewProductRepo(db).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, product.Paid)

	_, err = payments.Record(ctx, pay)
	assert.ErrorIs(t, err, domain.ErrConflict)

	pay.TransactionID = "pi_456"
	_, err = payments.Record(ctx, pay)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = NewBookingRepo(db).Cancel(ctx, b.ID, p.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	list, err := payments.ListByBuyer(ctx, "BUYER@easybuy.test")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 45000, list[0].Amount)

	all, err := payments.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
