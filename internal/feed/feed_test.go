package feed

import (
	"context"
	"testing"
	"time"
)

func TestDocumentEvent(t *testing.T) {
	got := DocumentEvent("messages", "abc123", ActionCreate)
	want := "databases.default.collections.messages.documents.abc123.create"
	if got != want {
		t.Fatalf("DocumentEvent = %q, want %q", got, want)
	}
}

func TestEventIsMatchesSuffixOnly(t *testing.T) {
	event := Event{Events: []string{DocumentEvent("messages", "m1", ActionCreate)}}
	if !event.Is(ActionCreate) {
		t.Fatalf("expected create event to match")
	}
	if event.Is(ActionUpdate) {
		t.Fatalf("create event must not match update")
	}

	// "create" appearing mid-name must not count; only the suffix does.
	event = Event{Events: []string{"databases.default.collections.create.documents.m1.update"}}
	if event.Is(ActionCreate) {
		t.Fatalf("mid-name create must not match")
	}
	if !event.Is(ActionUpdate) {
		t.Fatalf("expected update event to match")
	}
}

func TestNoopSubscribeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewNoop().Subscribe(ctx, "messages")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("noop feed must not deliver events")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}
