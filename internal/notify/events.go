package notify

import (
	"context"

	"github.com/memorizer/remindd/internal/sse"
)

type Publisher interface {
	Publish(eventType string, data any) string
}

// Events mirrors every alert onto the SSE stream.
type Events struct {
	pub Publisher
}

func NewEvents(pub Publisher) *Events {
	return &Events{pub: pub}
}

func (e *Events) Notify(_ context.Context, n Notification) error {
	e.pub.Publish(sse.EventNotificationShown, n)
	return nil
}

func (e *Events) FullScreen(_ context.Context, a Alert) error {
	e.pub.Publish(sse.EventAlertFullScreen, a)
	return nil
}
