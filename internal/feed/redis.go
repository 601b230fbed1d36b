package feed

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "feed:"

// RedisFeed fans events out over Redis pub/sub, one channel per collection.
type RedisFeed struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Publish(ctx context.Context, collection, docID, action string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := Event{
		ID:         uuid.NewString(),
		Collection: collection,
		Events:     []string{DocumentEvent(collection, docID, action)},
		Payload:    raw,
	}
	encoded, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, channelPrefix+collection, encoded).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, collection string) (<-chan Event, error) {
	sub := f.client.Subscribe(ctx, channelPrefix+collection)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
