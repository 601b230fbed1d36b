package favorites

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Find(ctx context.Context, userID, tenantID string) (Favorite, error)
	Insert(ctx context.Context, fav Favorite) error
	Delete(ctx context.Context, userID, tenantID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]Favorite, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Find(ctx context.Context, userID, tenantID string) (Favorite, error) {
	var fav Favorite
	filter := bson.M{"user_id": userID, "tenant_id": tenantID}
	if err := r.col.FindOne(ctx, filter).Decode(&fav); err != nil {
		return Favorite{}, err
	}
	return fav, nil
}

func (r *MongoRepository) Insert(ctx context.Context, fav Favorite) error {
	_, err := r.col.InsertOne(ctx, fav)
	return err
}

func (r *MongoRepository) Delete(ctx context.Context, userID, tenantID string) (int64, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "tenant_id": tenantID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Favorite, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
