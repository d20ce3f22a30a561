package docstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"easybuy/internal/domain"
)

// Emails are stored lower-cased; lookups lower-case their input.
type UserRepo struct{ c *mongo.Collection }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.c.FindOne(ctx, bson.M{"email": lower(email)}).Decode(&u)
	if err != nil {
		return domain.User{}, notFound(err, "user", email)
	}
	return u, nil
}

// Insert upserts with $setOnInsert so an existing account is never touched.
func (r *UserRepo) Insert(ctx context.Context, u domain.User) (bool, domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = lower(u.Email)
	u.CreatedAt = now()
	res, err := r.c.UpdateOne(ctx,
		bson.M{"email": u.Email},
		bson.M{"$setOnInsert": u},
		options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, domain.User{}, err
	}
	if err == nil && res.UpsertedCount == 1 {
		return true, u, nil
	}
	stored, err := r.ByEmail(ctx, u.Email)
	return false, stored, err
}

func (r *UserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	cur, err := r.c.Find(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "email", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []domain.User{}
	return out, cur.All(ctx, &out)
}

func (r *UserRepo) Verify(ctx context.Context, email string) (int64, error) {
	res, err := r.c.UpdateOne(ctx, bson.M{"email": lower(email)}, bson.M{"$set": bson.M{"verified": true}})
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return res.MatchedCount, nil
}

func (r *UserRepo) Delete(ctx context.Context, email string) (int64, error) {
	res, err := r.c.DeleteOne(ctx, bson.M{"email": lower(email), "role": bson.M{"$ne": domain.RoleAdmin}})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		if _, err := r.ByEmail(ctx, email); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: admin accounts cannot be deleted", domain.ErrForbidden)
	}
	return res.DeletedCount, nil
}
