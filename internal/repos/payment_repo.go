package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"easybuy/internal/domain"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id,booking_product_id,product_id,buyer_email,transaction_id,amount,currency,created_at`

// Record appends p and marks its booking and product paid in one
// transaction. Each update is conditional on the row still being unpaid.
func (r *PaymentRepo) Record(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Payment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO payments(`+paymentCols+`)
		VALUES(:id,:booking_product_id,:product_id,:buyer_email,:transaction_id,:amount,:currency,:created_at)
	`, p); err != nil {
		if isUnique(err) {
			return domain.Payment{}, fmt.Errorf("transaction %s already recorded: %w", p.TransactionID, domain.ErrConflict)
		}
		return domain.Payment{}, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings SET paid=1, transaction_id=?
		WHERE id=? AND product_id=? AND paid=0
	`, p.TransactionID, p.BookingProductID, p.ProductID)
	if err != nil {
		return domain.Payment{}, err
	}
	if rowsAffected(res) == 0 {
		return domain.Payment{}, fmt.Errorf("booking %s: %w", p.BookingProductID, domain.ErrConflict)
	}

	res, err = tx.ExecContext(ctx, `UPDATE products SET paid=1 WHERE id=? AND booked=1 AND paid=0`, p.ProductID)
	if err != nil {
		return domain.Payment{}, err
	}
	if rowsAffected(res) == 0 {
		return domain.Payment{}, fmt.Errorf("product %s: %w", p.ProductID, domain.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

func (r *PaymentRepo) ListByBuyer(ctx context.Context, email string) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+paymentCols+` FROM payments
		WHERE LOWER(buyer_email)=LOWER(?)
		ORDER BY created_at DESC
	`, email)
	return out, err
}

// ListAll returns the full ledger, oldest first.
func (r *PaymentRepo) ListAll(ctx context.Context) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+paymentCols+` FROM payments ORDER BY created_at`)
	return out, err
}
