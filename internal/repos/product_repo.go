package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"easybuy/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id,seller_email,seller_name,category_id,name,description,condition,location,
  price,original_price,years_of_use,image,advertise,booked,paid,created_at`

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	return getProduct(ctx, r.db, id)
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+productCols+` FROM products WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return p, err
}

func (r *ProductRepo) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO products(`+productCols+`)
		VALUES(:id,:seller_email,:seller_name,:category_id,:name,:description,:condition,:location,
		  :price,:original_price,:years_of_use,:image,:advertise,:booked,:paid,:created_at)
	`, p)
	if isUnique(err) {
		return domain.Product{}, fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
	}
	return p, err
}

func (r *ProductRepo) ListAvailableByCategory(ctx context.Context, catID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+productCols+` FROM products
		WHERE category_id=? AND booked=0 AND paid=0
		ORDER BY created_at DESC
	`, catID)
	return out, err
}

func (r *ProductRepo) ListAdvertised(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+productCols+` FROM products
		WHERE advertise=1 AND booked=0 AND paid=0
		ORDER BY created_at DESC
	`)
	return out, err
}

func (r *ProductRepo) ListBySeller(ctx context.Context, email string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+productCols+` FROM products
		WHERE LOWER(seller_email)=LOWER(?)
		ORDER BY created_at DESC
	`, email)
	return out, err
}

// Search matches q against name and description, available products only.
func (r *ProductRepo) Search(ctx context.Context, q, catID string, limit int) ([]domain.Product, error) {
	where := `booked=0 AND paid=0`
	args := []any{}
	if q = strings.ToLower(q); q != "" {
		like := "%" + escapeLike(q) + "%"
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`
		args = append(args, like, like)
	}
	if catID != "" {
		where += ` AND category_id=?`
		args = append(args, catID)
	}
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+productCols+` FROM products
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT ?`, args...)
	return out, err
}

// Advertise flags an unbooked, unpaid product. Zero matched rows means the
// id is unknown or the product is no longer available.
func (r *ProductRepo) Advertise(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET advertise=1 WHERE id=? AND booked=0 AND paid=0`, id)
	if err != nil {
		return 0, err
	}
	n := rowsAffected(res)
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("product %s is booked: %w", id, domain.ErrConflict)
	}
	return n, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=? AND booked=0 AND paid=0`, id)
	if err != nil {
		return 0, err
	}
	n := rowsAffected(res)
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("product %s is booked or paid: %w", id, domain.ErrConflict)
	}
	return n, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
