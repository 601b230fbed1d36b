package pricing

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	GetByTenant(ctx context.Context, tenantID string) (Config, error)
	Insert(ctx context.Context, cfg Config) error
	Update(ctx context.Context, tenantID string, set bson.M) (Config, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) GetByTenant(ctx context.Context, tenantID string) (Config, error) {
	var cfg Config
	if err := r.col.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (r *MongoRepository) Insert(ctx context.Context, cfg Config) error {
	_, err := r.col.InsertOne(ctx, cfg)
	return err
}

func (r *MongoRepository) Update(ctx context.Context, tenantID string, set bson.M) (Config, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": set}

	var updated Config
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"tenant_id": tenantID}, update, opts).Decode(&updated); err != nil {
		return Config{}, err
	}
	return updated, nil
}
