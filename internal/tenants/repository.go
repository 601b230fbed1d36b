package tenants

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (TenantProfile, error)
	GetBySlug(ctx context.Context, slug string) (TenantProfile, error)
	Insert(ctx context.Context, profile TenantProfile) error
	Update(ctx context.Context, id string, set bson.M) (TenantProfile, error)
	IncTotalBookings(ctx context.Context, id string) error
	Search(ctx context.Context, filter SearchFilter, limit, offset int64) ([]TenantProfile, error)
	Count(ctx context.Context, filter SearchFilter) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (TenantProfile, error) {
	var profile TenantProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&profile); err != nil {
		return TenantProfile{}, err
	}
	return profile, nil
}

func (r *MongoRepository) GetBySlug(ctx context.Context, slug string) (TenantProfile, error) {
	var profile TenantProfile
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&profile); err != nil {
		return TenantProfile{}, err
	}
	return profile, nil
}

func (r *MongoRepository) Insert(ctx context.Context, profile TenantProfile) error {
	_, err := r.col.InsertOne(ctx, profile)
	return err
}

func (r *MongoRepository) Update(ctx context.Context, id string, set bson.M) (TenantProfile, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated TenantProfile
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return TenantProfile{}, err
	}
	return updated, nil
}

func (r *MongoRepository) IncTotalBookings(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"totalBookings": 1}})
	return err
}

func searchQuery(filter SearchFilter) bson.M {
	query := bson.M{"isActive": true}
	if filter.Location != "" {
		query["location"] = bson.M{"$regex": filter.Location, "$options": "i"}
	}
	if filter.VIP != nil {
		query["isVip"] = *filter.VIP
	}
	if filter.Verified != nil {
		query["isVerified"] = *filter.Verified
	}
	return query
}

func (r *MongoRepository) Search(ctx context.Context, filter SearchFilter, limit, offset int64) ([]TenantProfile, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "isVip", Value: -1},
			{Key: "rating", Value: -1},
			{Key: "reviewCount", Value: -1},
		}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.col.Find(ctx, searchQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]TenantProfile, 0)
	for cursor.Next(ctx) {
		var profile TenantProfile
		if err := cursor.Decode(&profile); err != nil {
			return nil, err
		}
		items = append(items, profile)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter SearchFilter) (int64, error) {
	return r.col.CountDocuments(ctx, searchQuery(filter))
}
