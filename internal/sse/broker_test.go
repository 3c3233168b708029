package sse

import (
	"strings"
	"testing"
	"time"
)

func TestBrokerBroadcastsWithEventID(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	id := b.Publish(EventNotificationShown, map[string]any{"item_id": 3})
	if id == "" {
		t.Fatal("expected an event id")
	}

	select {
	case msg := <-ch:
		text := string(msg)
		if !strings.Contains(text, "id: "+id) || !strings.Contains(text, "event: notification.shown") || !strings.Contains(text, `"item_id":3`) {
			t.Fatalf("unexpected frame: %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBrokerUnsubscribeAndClose(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("expected one client, got %d", n)
	}
	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
	b.Close()
	if id := b.Publish(EventResync, nil); id != "" {
		t.Fatal("publish after close should be ignored")
	}
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("closed broker reports %d clients", n)
	}
}
