package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PackageRepository interface {
	GetByID(ctx context.Context, id string) (Package, error)
	ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]Package, error)
	Insert(ctx context.Context, pkg Package) error
	Update(ctx context.Context, id, tenantID string, set bson.M) (Package, error)
	Delete(ctx context.Context, id, tenantID string) (bool, error)
}

type ReviewRepository interface {
	ListByTenant(ctx context.Context, tenantID string, limit int64) ([]Review, error)
	Insert(ctx context.Context, review Review) error
	AggregateByTenant(ctx context.Context, tenantID string) (float64, int, error)
}

type MongoPackageRepository struct {
	col *mongo.Collection
}

func NewPackageRepository(col *mongo.Collection) *MongoPackageRepository {
	return &MongoPackageRepository{col: col}
}

func (r *MongoPackageRepository) GetByID(ctx context.Context, id string) (Package, error) {
	var pkg Package
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&pkg); err != nil {
		return Package{}, err
	}
	return pkg, nil
}

func (r *MongoPackageRepository) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]Package, error) {
	query := bson.M{"tenant_id": tenantID}
	if activeOnly {
		query["isActive"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "priceCents", Value: 1}})

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Package, 0)
	for cursor.Next(ctx) {
		var pkg Package
		if err := cursor.Decode(&pkg); err != nil {
			return nil, err
		}
		items = append(items, pkg)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoPackageRepository) Insert(ctx context.Context, pkg Package) error {
	_, err := r.col.InsertOne(ctx, pkg)
	return err
}

func (r *MongoPackageRepository) Update(ctx context.Context, id, tenantID string, set bson.M) (Package, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Package
	filter := bson.M{"_id": id, "tenant_id": tenantID}
	if err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return Package{}, err
	}
	return updated, nil
}

func (r *MongoPackageRepository) Delete(ctx context.Context, id, tenantID string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": tenantID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

type MongoReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(col *mongo.Collection) *MongoReviewRepository {
	return &MongoReviewRepository{col: col}
}

func (r *MongoReviewRepository) ListByTenant(ctx context.Context, tenantID string, limit int64) ([]Review, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.col.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Review, 0)
	for cursor.Next(ctx) {
		var review Review
		if err := cursor.Decode(&review); err != nil {
			return nil, err
		}
		items = append(items, review)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoReviewRepository) Insert(ctx context.Context, review Review) error {
	_, err := r.col.InsertOne(ctx, review)
	return err
}

func (r *MongoReviewRepository) AggregateByTenant(ctx context.Context, tenantID string) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tenant_id": tenantID}}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"rating": bson.M{"$avg": "$rating"},
			"count":  bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var result struct {
		Rating float64 `bson:"rating"`
		Count  int     `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, err
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, 0, err
	}
	return result.Rating, result.Count, nil
}
