package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"easybuy/internal/domain"
)

type BookingRepo struct {
	client *mongo.Client
	db     *mongo.Database
}

func (r *BookingRepo) bookings() *mongo.Collection { return r.db.Collection(colBookings) }
func (r *BookingRepo) products() *mongo.Collection { return r.db.Collection(colProducts) }

func (r *BookingRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.BuyerEmail = lower(b.BuyerEmail)
	b.Paid = false
	b.TransactionID = ""
	b.CreatedAt = now()

	err := inTx(ctx, r.client, func(sc mongo.SessionContext) error {
		p, err := getProduct(sc, r.products(), b.ProductID)
		if err != nil {
			return err
		}
		if !p.Available() {
			return fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
		}
		b.ProductName = p.Name
		b.ProductPrice = p.Price

		if _, err := r.bookings().InsertOne(sc, b); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
			}
			return err
		}
		res, err := r.products().UpdateOne(sc,
			bson.M{"_id": p.ID, "booked": false, "paid": false},
			bson.M{"$set": bson.M{"booked": true}})
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			return fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepo) Cancel(ctx context.Context, bookingID, productID string) (int64, error) {
	var deleted int64
	err := inTx(ctx, r.client, func(sc mongo.SessionContext) error {
		res, err := r.bookings().DeleteOne(sc, bson.M{"_id": bookingID, "product_id": productID, "paid": false})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			var b domain.Booking
			err := r.bookings().FindOne(sc, bson.M{"_id": bookingID, "product_id": productID}).Decode(&b)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return fmt.Errorf("booking %s: %w", bookingID, domain.ErrNotFound)
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("booking %s is paid: %w", bookingID, domain.ErrConflict)
		}
		deleted = res.DeletedCount
		_, err = r.products().UpdateOne(sc,
			bson.M{"_id": productID, "paid": false},
			bson.M{"$set": bson.M{"booked": false}})
		return err
	})
	return deleted, err
}

func (r *BookingRepo) Get(ctx context.Context, id string) (domain.Booking, error) {
	var b domain.Booking
	if err := r.bookings().FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return domain.Booking{}, notFound(err, "booking", id)
	}
	return b, nil
}

func (r *BookingRepo) ListByBuyer(ctx context.Context, email string) ([]domain.Booking, error) {
	cur, err := r.bookings().Find(ctx, bson.M{"buyer_email": lower(email)}, newestFirst)
	if err != nil {
		return nil, err
	}
	out := []domain.Booking{}
	return out, cur.All(ctx, &out)
}

type PaymentRepo struct {
	client *mongo.Client
	db     *mongo.Database
}

func (r *PaymentRepo) Record(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.BuyerEmail = lower(p.BuyerEmail)
	p.CreatedAt = now()

	err := inTx(ctx, r.client, func(sc mongo.SessionContext) error {
		if _, err := r.db.Collection(colPayments).InsertOne(sc, p); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("transaction %s already recorded: %w", p.TransactionID, domain.ErrConflict)
			}
			return err
		}
		res, err := r.db.Collection(colBookings).UpdateOne(sc,
			bson.M{"_id": p.BookingProductID, "product_id": p.ProductID, "paid": false},
			bson.M{"$set": bson.M{"paid": true, "transaction_id": p.TransactionID}})
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			return fmt.Errorf("booking %s: %w", p.BookingProductID, domain.ErrConflict)
		}
		res, err = r.db.Collection(colProducts).UpdateOne(sc,
			bson.M{"_id": p.ProductID, "booked": true, "paid": false},
			bson.M{"$set": bson.M{"paid": true}})
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			return fmt.Errorf("product %s: %w", p.ProductID, domain.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

func (r *PaymentRepo) ListByBuyer(ctx context.Context, email string) ([]domain.Payment, error) {
	cur, err := r.db.Collection(colPayments).Find(ctx, bson.M{"buyer_email": lower(email)}, newestFirst)
	if err != nil {
		return nil, err
	}
	out := []domain.Payment{}
	return out, cur.All(ctx, &out)
}

func (r *PaymentRepo) ListAll(ctx context.Context) ([]domain.Payment, error) {
	cur, err := r.db.Collection(colPayments).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []domain.Payment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
