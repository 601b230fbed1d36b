package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Users          *mongo.Collection
	Tenants        *mongo.Collection
	Packages       *mongo.Collection
	Bookings       *mongo.Collection
	Reviews        *mongo.Collection
	Chats          *mongo.Collection
	Messages       *mongo.Collection
	PricingConfigs *mongo.Collection
	Favorites      *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, nil, err
	}

	db := client.Database(dbName)

	cols := &Collections{
		Users:          db.Collection("users"),
		Tenants:        db.Collection("tenants"),
		Packages:       db.Collection("packages"),
		Bookings:       db.Collection("bookings"),
		Reviews:        db.Collection("reviews"),
		Chats:          db.Collection("chats"),
		Messages:       db.Collection("messages"),
		PricingConfigs: db.Collection("pricing_configs"),
		Favorites:      db.Collection("favorites"),
	}

	return client, db, cols, nil
}

// EnsureIndexes is idempotent; the unique compound indexes on chats and
// favorites are the source of truth for the one-per-pair invariants. The
// application-level existence checks are only an optimization.
func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Users.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Tenants.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "isVip", Value: -1}, {Key: "rating", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Chats.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "tenant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "lastMessageTime", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Favorites.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "tenant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "tenant_id", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Messages.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "tenant_id", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.PricingConfigs.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	for _, col := range []*mongo.Collection{cols.Packages, cols.Reviews, cols.Bookings} {
		_, err = col.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "tenant_id", Value: 1}},
			},
		})
		if err != nil {
			return err
		}
	}

	_, err = cols.Bookings.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	return err
}
