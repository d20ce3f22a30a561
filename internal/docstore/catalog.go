package docstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"easybuy/internal/domain"
)

type CategoryRepo struct{ c *mongo.Collection }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	cur, err := r.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []domain.Category{}
	return out, cur.All(ctx, &out)
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return domain.Category{}, notFound(err, "category", id)
	}
	return c, nil
}

func (r *CategoryRepo) Insert(ctx context.Context, c domain.Category) (domain.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now()
	if _, err := r.c.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Category{}, fmt.Errorf("category %q: %w", c.Name, domain.ErrConflict)
		}
		return domain.Category{}, err
	}
	return c, nil
}

type ProductRepo struct{ c *mongo.Collection }

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	return getProduct(ctx, r.c, id)
}

func getProduct(ctx context.Context, c *mongo.Collection, id string) (domain.Product, error) {
	var p domain.Product
	if err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return domain.Product{}, notFound(err, "product", id)
	}
	return p, nil
}

func (r *ProductRepo) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.SellerEmail = lower(p.SellerEmail)
	p.CreatedAt = now()
	if _, err := r.c.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Product{}, fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
		}
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.Product, error) {
	cur, err := r.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []domain.Product{}
	return out, cur.All(ctx, &out)
}

func (r *ProductRepo) ListAvailableByCategory(ctx context.Context, catID string) ([]domain.Product, error) {
	return r.find(ctx, bson.M{"category_id": catID, "booked": false, "paid": false}, newestFirst)
}

func (r *ProductRepo) ListAdvertised(ctx context.Context) ([]domain.Product, error) {
	return r.find(ctx, bson.M{"advertise": true, "booked": false, "paid": false}, newestFirst)
}

func (r *ProductRepo) ListBySeller(ctx context.Context, email string) ([]domain.Product, error) {
	return r.find(ctx, bson.M{"seller_email": lower(email)}, newestFirst)
}

func (r *ProductRepo) Search(ctx context.Context, q, catID string, limit int) ([]domain.Product, error) {
	filter := bson.M{"booked": false, "paid": false}
	if q != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"description": re}}
	}
	if catID != "" {
		filter["category_id"] = catID
	}
	if limit <= 0 {
		limit = 50
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)))
}

func (r *ProductRepo) Advertise(ctx context.Context, id string) (int64, error) {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": id, "booked": false, "paid": false},
		bson.M{"$set": bson.M{"advertise": true}})
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("product %s is booked: %w", id, domain.ErrConflict)
	}
	return res.MatchedCount, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id, "booked": false, "paid": false})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("product %s is booked or paid: %w", id, domain.ErrConflict)
	}
	return res.DeletedCount, nil
}
