package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"easybuy/internal/domain"
)

type BookingRepo struct{ db *sqlx.DB }

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `id,product_id,product_name,buyer_email,buyer_name,phone,meeting_location,
  product_price,paid,transaction_id,created_at`

// Create inserts b and marks its product booked in one transaction. The
// product's name and price are copied from the stored row. If the product is
// already booked or paid nothing is written and ErrConflict is returned.
func (r *BookingRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Booking{}, err
	}
	defer func() { _ = tx.Rollback() }()

	p, err := getProduct(ctx, tx, b.ProductID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !p.Available() {
		return domain.Booking{}, fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.ProductName = p.Name
	b.ProductPrice = p.Price
	b.Paid = false
	b.TransactionID = ""
	b.CreatedAt = now()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO bookings(`+bookingCols+`)
		VALUES(:id,:product_id,:product_name,:buyer_email,:buyer_name,:phone,:meeting_location,
		  :product_price,:paid,:transaction_id,:created_at)
	`, b); err != nil {
		if isUnique(err) {
			return domain.Booking{}, fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
		}
		return domain.Booking{}, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE products SET booked=1 WHERE id=? AND booked=0 AND paid=0`, p.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	if rowsAffected(res) == 0 {
		return domain.Booking{}, fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

// Cancel deletes an unpaid booking and releases its product in one
// transaction.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, productID string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id=? AND product_id=? AND paid=0`, bookingID, productID)
	if err != nil {
		return 0, err
	}
	n := rowsAffected(res)
	if n == 0 {
		var paid bool
		err := tx.GetContext(ctx, &paid, `SELECT paid FROM bookings WHERE id=? AND product_id=?`, bookingID, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("booking %s: %w", bookingID, domain.ErrNotFound)
		}
		if err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("booking %s is paid: %w", bookingID, domain.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE products SET booked=0 WHERE id=? AND paid=0`, productID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *BookingRepo) Get(ctx context.Context, id string) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingCols+` FROM bookings WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return b, err
}

func (r *BookingRepo) ListByBuyer(ctx context.Context, email string) ([]domain.Booking, error) {
	out := []domain.Booking{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+bookingCols+` FROM bookings
		WHERE LOWER(buyer_email)=LOWER(?)
		ORDER BY created_at DESC
	`, email)
	return out, err
}

func (r *BookingRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bookings WHERE product_id=?`, productID)
	return n, err
}
