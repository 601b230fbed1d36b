package chat

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	FindThread(ctx context.Context, clientID, tenantID string) (Thread, error)
	GetThread(ctx context.Context, id string) (Thread, error)
	InsertThread(ctx context.Context, thread Thread) error
	PatchLastMessage(ctx context.Context, id, preview string, at time.Time) error
	ResetUnread(ctx context.Context, id string) error
	ListThreads(ctx context.Context, userID string, byTenant bool) ([]Thread, error)
	InsertMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, chatID string, limit, offset int64) ([]Message, error)
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)
	AllThreads(ctx context.Context) ([]Thread, error)
	DeleteThread(ctx context.Context, id string) error
	EnsureUniqueIndex(ctx context.Context) error
}

type MongoRepository struct {
	threads  *mongo.Collection
	messages *mongo.Collection
}

func NewRepository(threads, messages *mongo.Collection) *MongoRepository {
	return &MongoRepository{threads: threads, messages: messages}
}

func (r *MongoRepository) FindThread(ctx context.Context, clientID, tenantID string) (Thread, error) {
	var thread Thread
	filter := bson.M{"client_id": clientID, "tenant_id": tenantID}
	if err := r.threads.FindOne(ctx, filter).Decode(&thread); err != nil {
		return Thread{}, err
	}
	return thread, nil
}

func (r *MongoRepository) GetThread(ctx context.Context, id string) (Thread, error) {
	var thread Thread
	if err := r.threads.FindOne(ctx, bson.M{"_id": id}).Decode(&thread); err != nil {
		return Thread{}, err
	}
	return thread, nil
}

func (r *MongoRepository) InsertThread(ctx context.Context, thread Thread) error {
	_, err := r.threads.InsertOne(ctx, thread)
	return err
}

func (r *MongoRepository) PatchLastMessage(ctx context.Context, id, preview string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"lastMessage":     preview,
			"lastMessageTime": at,
		},
		"$inc": bson.M{"unreadCount": 1},
	}
	_, err := r.threads.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *MongoRepository) ResetUnread(ctx context.Context, id string) error {
	_, err := r.threads.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"unreadCount": 0}})
	return err
}

func (r *MongoRepository) ListThreads(ctx context.Context, userID string, byTenant bool) ([]Thread, error) {
	field := "client_id"
	if byTenant {
		field = "tenant_id"
	}

	opts := options.Find().SetSort(bson.D{{Key: "lastMessageTime", Value: -1}})

	cursor, err := r.threads.Find(ctx, bson.M{field: userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeThreads(ctx, cursor)
}

func (r *MongoRepository) InsertMessage(ctx context.Context, msg Message) error {
	_, err := r.messages.InsertOne(ctx, msg)
	return err
}

func (r *MongoRepository) ListMessages(ctx context.Context, chatID string, limit, offset int64) ([]Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.messages.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Message, 0)
	for cursor.Next(ctx) {
		var msg Message
		if err := cursor.Decode(&msg); err != nil {
			return nil, err
		}
		items = append(items, msg)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRead flips every unread message in the thread that the reader did not
// send. Re-running it matches nothing and modifies nothing.
func (r *MongoRepository) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	filter := bson.M{
		"chat_id":   chatID,
		"isRead":    false,
		"sender_id": bson.M{"$ne": readerID},
	}
	res, err := r.messages.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoRepository) AllThreads(ctx context.Context) ([]Thread, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.threads.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeThreads(ctx, cursor)
}

func (r *MongoRepository) DeleteThread(ctx context.Context, id string) error {
	_, err := r.threads.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoRepository) EnsureUniqueIndex(ctx context.Context) error {
	_, err := r.threads.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "tenant_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func decodeThreads(ctx context.Context, cursor *mongo.Cursor) ([]Thread, error) {
	items := make([]Thread, 0)
	for cursor.Next(ctx) {
		var thread Thread
		if err := cursor.Decode(&thread); err != nil {
			return nil, err
		}
		items = append(items, thread)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
