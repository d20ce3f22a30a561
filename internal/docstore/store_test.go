package docstore

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybuy/internal/domain"
)

// These tests need a replica-set MongoDB (transactions); they run only when
// EASYBUY_TEST_MONGO_URI is set.
func openTest(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("EASYBUY_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("EASYBUY_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, uri, "easybuy_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.DB.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestMongoUserInsertIdempotent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	inserted, u, err := s.Users.Insert(ctx, domain.User{Email: "New@X.io", Name: "First", Role: domain.RoleBuyer})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, again, err := s.Users.Insert(ctx, domain.User{Email: "new@x.io", Name: "Second", Role: domain.RoleSeller})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "First", again.Name)
}

func TestMongoSeedsOneUserPerRole(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleSeller, domain.RoleBuyer} {
		users, err := s.Users.ListByRole(ctx, role)
		require.NoError(t, err)
		assert.Len(t, users, 1, role)
	}
	require.NoError(t, s.seedUsers(ctx))
	admins, err := s.Users.ListByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestMongoAdvertiseUnknown(t *testing.T) {
	s := openTest(t)
	_, err := s.Products.Advertise(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, err := s.DB.Collection(colProducts).CountDocuments(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMongoLifecycle(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	p, err := s.Products.Insert(ctx, domain.Product{SellerEmail: "s@x.io", CategoryID: "phones", Name: "Pixel", Price: 50})
	require.NoError(t, err)

	const n = 5
	var wg sync.WaitGroup
	results := make([]error, n)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := s.Bookings.Create(ctx, domain.Booking{ProductID: p.ID, BuyerEmail: "b@x.io"})
			results[i], ids[i] = err, b.ID
		}(i)
	}
	wg.Wait()

	var winner string
	for i, err := range results {
		if err == nil {
			require.Empty(t, winner, "two bookings succeeded")
			winner = ids[i]
		}
	}
	require.NotEmpty(t, winner)

	_, err = s.Payments.Record(ctx, domain.Payment{
		BookingProductID: winner, ProductID: p.ID, BuyerEmail: "b@x.io", TransactionID: "pi_1", Amount: 5000, Currency: "usd",
	})
	require.NoError(t, err)

	b, err := s.Bookings.Get(ctx, winner)
	require.NoError(t, err)
	assert.True(t, b.Paid)
	assert.Equal(t, "pi_1", b.TransactionID)

	stored, err := s.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)

	_, err = s.Bookings.Cancel(ctx, winner, p.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
