// Package docstore is the MongoDB backend. It exposes the same repositories
// as the SQLite store; lifecycle transitions run inside multi-document
// transactions, so the server must be a replica set.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/crypto/bcrypt"

	"easybuy/internal/domain"
)

const (
	colUsers      = "users"
	colCategories = "categories"
	colProducts   = "products"
	colBookings   = "bookings"
	colPayments   = "payments"
)

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database

	Users      *UserRepo
	Categories *CategoryRepo
	Products   *ProductRepo
	Bookings   *BookingRepo
	Payments   *PaymentRepo
}

// Open connects, pings the primary and ensures indexes, seed categories and
// one account per role.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := New(client, client.Database(dbName))
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.seedCategories(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.seedUsers(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func New(client *mongo.Client, db *mongo.Database) *Store {
	s := &Store{Client: client, DB: db}
	s.Users = &UserRepo{c: db.Collection(colUsers)}
	s.Categories = &CategoryRepo{c: db.Collection(colCategories)}
	s.Products = &ProductRepo{c: db.Collection(colProducts)}
	s.Bookings = &BookingRepo{client: client, db: db}
	s.Payments = &PaymentRepo{client: client, db: db}
	return s
}

func (s *Store) Close(ctx context.Context) error { return s.Client.Disconnect(ctx) }

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func (s *Store) ensureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		colCategories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
		},
		colProducts: {
			{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "seller_email", Value: 1}}},
		},
		colBookings: {
			{Keys: bson.D{{Key: "product_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "buyer_email", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "transaction_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "buyer_email", Value: 1}}},
		},
	}
	for col, models := range specs {
		if _, err := s.DB.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("indexes on %s: %w", col, err)
		}
	}
	return nil
}

func (s *Store) seedCategories(ctx context.Context) error {
	ts := now()
	for _, c := range []domain.Category{
		{ID: "phones", Name: "Phones", CreatedAt: ts},
		{ID: "laptops", Name: "Laptops", CreatedAt: ts},
		{ID: "furniture", Name: "Furniture", CreatedAt: ts},
	} {
		_, err := s.DB.Collection(colCategories).UpdateOne(ctx,
			bson.M{"_id": c.ID},
			bson.M{"$setOnInsert": c},
			options.Update().SetUpsert(true))
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("seed categories: %w", err)
		}
	}
	return nil
}

func (s *Store) seedUsers(ctx context.Context) error {
	n, err := s.DB.Collection(colUsers).CountDocuments(ctx, bson.M{"role": domain.RoleAdmin})
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if n > 0 {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	for _, u := range []domain.User{
		{ID: "u-admin", Email: "admin@easybuy.test", Name: "Admin", Role: domain.RoleAdmin, Verified: true},
		{ID: "u-seller", Email: "seller@easybuy.test", Name: "Sam Seller", Role: domain.RoleSeller, Verified: true},
		{ID: "u-buyer", Email: "buyer@easybuy.test", Name: "Bea Buyer", Role: domain.RoleBuyer},
	} {
		u.Hash = string(h)
		if _, _, err := s.Users.Insert(ctx, u); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}
	return nil
}

// inTx runs fn in a multi-document transaction.
func inTx(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

func notFound(err error, what, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return err
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

const tsLayout = "2006-01-02T15:04:05.000000000Z"

func now() string { return time.Now().UTC().Format(tsLayout) }

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
