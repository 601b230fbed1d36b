package bookings

import (
	"context"
	"time"

	"github.com/jeffgoval/massage/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, booking Booking) error
	GetByID(ctx context.Context, id string) (Booking, error)
	ListByTenant(ctx context.Context, tenantID string, filter ListFilter, limit, offset int64) ([]Booking, error)
	ListByClient(ctx context.Context, clientID string, limit, offset int64) ([]Booking, error)
	HeldOnDate(ctx context.Context, tenantID, date string) ([]Booking, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, booking Booking) error {
	_, err := r.col.InsertOne(ctx, booking)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Booking, error) {
	var booking Booking
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return Booking{}, err
	}
	return booking, nil
}

func (r *MongoRepository) ListByTenant(ctx context.Context, tenantID string, filter ListFilter, limit, offset int64) ([]Booking, error) {
	query := bson.M{"tenant_id": tenantID}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return r.list(ctx, query, limit, offset)
}

func (r *MongoRepository) ListByClient(ctx context.Context, clientID string, limit, offset int64) ([]Booking, error) {
	return r.list(ctx, bson.M{"client_id": clientID}, limit, offset)
}

// HeldOnDate returns the bookings still holding a slot on the date, i.e.
// pending and confirmed ones.
func (r *MongoRepository) HeldOnDate(ctx context.Context, tenantID, date string) ([]Booking, error) {
	query := bson.M{
		"tenant_id": tenantID,
		"date":      date,
		"status":    bson.M{"$in": []string{models.BookingStatusPending, models.BookingStatusConfirmed}},
	}
	return r.list(ctx, query, 0, 0)
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": at}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) list(ctx context.Context, query bson.M, limit, offset int64) ([]Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit).SetSkip(offset)
	}
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Booking, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
