// Package feed is the per-collection change feed. Writers publish an event
// for every document create/update/delete; consumers subscribe per collection
// and filter by their own correlation fields, since the feed is not scoped
// per document.
package feed

import (
	"context"
	"encoding/json"
	"strings"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event mirrors the shape the frontend already consumes: a payload plus
// dotted event names whose suffix carries the action.
type Event struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Events     []string        `json:"events"`
	Payload    json.RawMessage `json:"payload"`
}

// DocumentEvent builds the dotted event name for one document action.
func DocumentEvent(collection, docID, action string) string {
	return "databases.default.collections." + collection + ".documents." + docID + "." + action
}

// Is reports whether any of the event names ends with the given action.
func (e Event) Is(action string) bool {
	suffix := "." + action
	for _, name := range e.Events {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

type Publisher interface {
	Publish(ctx context.Context, collection, docID, action string, payload any) error
}

// Subscriber delivers events for one collection in publish order. The
// returned channel is closed when ctx is cancelled; no ordering holds across
// two different collections.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string) (<-chan Event, error)
}

type Feed interface {
	Publisher
	Subscriber
}

// NoopFeed drops publishes and delivers nothing; used when Redis is not
// configured.
type NoopFeed struct{}

func NewNoop() *NoopFeed {
	return &NoopFeed{}
}

func (n *NoopFeed) Publish(ctx context.Context, collection, docID, action string, payload any) error {
	return nil
}

func (n *NoopFeed) Subscribe(ctx context.Context, collection string) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
