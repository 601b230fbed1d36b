package users

import (
	"context"
	"time"

	"github.com/jeffgoval/massage/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Insert(ctx context.Context, user models.User) error
	List(ctx context.Context, limit, offset int64) ([]models.User, int64, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	SetRole(ctx context.Context, id, role string, at time.Time) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *MongoRepository) Insert(ctx context.Context, user models.User) error {
	_, err := r.col.InsertOne(ctx, user)
	return err
}

func (r *MongoRepository) List(ctx context.Context, limit, offset int64) ([]models.User, int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := make([]models.User, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *MongoRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return r.patch(ctx, id, bson.M{"isActive": active, "updatedAt": at})
}

func (r *MongoRepository) SetRole(ctx context.Context, id, role string, at time.Time) error {
	return r.patch(ctx, id, bson.M{"role": role, "updatedAt": at})
}

func (r *MongoRepository) patch(ctx context.Context, id string, set bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
