package repos

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	applog "easybuy/internal/log"
)

// OpenDB opens (or creates) the SQLite database, applies the schema and
// seeds reference data. ":memory:" is supported for tests.
func OpenDB(dsn string) (*sqlx.DB, error) {
	if dsn != ":memory:" && !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; lifecycle transactions serialize on this connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedCategories(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL CHECK (role IN ('buyer','seller','admin')),
  verified INTEGER NOT NULL DEFAULT 0,
  password_hash TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  seller_email TEXT NOT NULL,
  seller_name TEXT NOT NULL DEFAULT '',
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  condition TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  original_price NUMERIC NOT NULL DEFAULT 0,
  years_of_use INTEGER NOT NULL DEFAULT 0,
  image TEXT NOT NULL DEFAULT '',
  advertise INTEGER NOT NULL DEFAULT 0,
  booked INTEGER NOT NULL DEFAULT 0,
  paid INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_seller     ON products(LOWER(seller_email));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

CREATE TABLE IF NOT EXISTS bookings(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  product_name TEXT NOT NULL DEFAULT '',
  buyer_email TEXT NOT NULL,
  buyer_name TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  meeting_location TEXT NOT NULL DEFAULT '',
  product_price NUMERIC NOT NULL,
  paid INTEGER NOT NULL DEFAULT 0,
  transaction_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_product ON bookings(product_id);
CREATE INDEX IF NOT EXISTS idx_bookings_buyer ON bookings(LOWER(buyer_email));

CREATE TABLE IF NOT EXISTS payments(
  id TEXT PRIMARY KEY,
  booking_product_id TEXT NOT NULL REFERENCES bookings(id) ON DELETE RESTRICT,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  buyer_email TEXT NOT NULL,
  transaction_id TEXT NOT NULL UNIQUE,
  amount INTEGER NOT NULL,
  currency TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payments_buyer ON payments(LOWER(buyer_email));
`
	_, err := db.Exec(schema)
	return err
}

func seedCategories(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Logger().Info().Str("kind", "seed").Msg("inserting default categories")

	ts := now()
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()
	tx.MustExec(`INSERT INTO categories(id,name,created_at) VALUES
	  ('phones','Phones',?),
	  ('laptops','Laptops',?),
	  ('furniture','Furniture',?)`, ts, ts, ts)
	return tx.Commit()
}

// seedUsers ensures one account per role exists (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
		Verified                    bool
	}
	mk := func(id, email, name, role string, verified bool) (u, error) {
		h, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
		if err != nil {
			return u{}, err
		}
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h), Verified: verified}, nil
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users WHERE LOWER(email) IN ('admin@easybuy.test','seller@easybuy.test','buyer@easybuy.test')`); err != nil {
		return err
	}
	if n == 3 {
		return nil
	}

	var users []u
	for _, x := range []struct{ id, email, name, role string }{
		{"u-admin", "admin@easybuy.test", "Admin", "admin"},
		{"u-seller", "seller@easybuy.test", "Sam Seller", "seller"},
		{"u-buyer", "buyer@easybuy.test", "Bea Buyer", "buyer"},
	} {
		row, err := mk(x.id, x.email, x.name, x.role, x.role != "buyer")
		if err != nil {
			return err
		}
		users = append(users, row)
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,role,verified,password_hash,created_at)
			VALUES(?,?,?,?,?,?,?)
			ON CONFLICT DO NOTHING
		`, x.ID, x.Email, x.Name, x.Role, x.Verified, x.Hash, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// timestamps are fixed-width so that text ordering matches time ordering
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func now() string { return time.Now().UTC().Format(tsLayout) }

func isUnique(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func rowsAffected(res sql.Result) int64 {
	n, _ := res.RowsAffected()
	return n
}
