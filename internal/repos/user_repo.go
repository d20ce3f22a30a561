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

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,name,role,verified,password_hash,created_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return u, err
}

// Insert stores u unless the email is already registered. It reports whether
// a row was written and returns the stored user either way.
func (r *UserRepo) Insert(ctx context.Context, u domain.User) (bool, domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = now()
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(`+userCols+`)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT DO NOTHING
	`, u.ID, u.Email, u.Name, u.Role, u.Verified, u.Hash, u.CreatedAt)
	if err != nil {
		return false, domain.User{}, err
	}
	if rowsAffected(res) == 1 {
		return true, u, nil
	}
	stored, err := r.ByEmail(ctx, u.Email)
	return false, stored, err
}

func (r *UserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM users WHERE role=? ORDER BY created_at, email`, role)
	return out, err
}

func (r *UserRepo) Verify(ctx context.Context, email string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET verified=1 WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return 0, err
	}
	n := rowsAffected(res)
	if n == 0 {
		return 0, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return n, nil
}

// Delete removes a non-admin account.
func (r *UserRepo) Delete(ctx context.Context, email string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE LOWER(email)=LOWER(?) AND role<>'admin'`, email)
	if err != nil {
		return 0, err
	}
	n := rowsAffected(res)
	if n == 0 {
		if _, err := r.ByEmail(ctx, email); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: admin accounts cannot be deleted", domain.ErrForbidden)
	}
	return n, nil
}
