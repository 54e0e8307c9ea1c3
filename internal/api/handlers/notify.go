package handlers

import (
	"context"
	"time"

	"github.com/your-org/reconnect/pkg/dto"
)

// Notifier receives an event after every successful write. Implementations
// must not block the request.
type Notifier interface {
	Notify(ctx context.Context, evt *dto.Event)
}

// Notifiers fans an event out to each notifier in turn.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, evt *dto.Event) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(ctx, evt)
		}
	}
}

// Mirror copies written files to secondary storage. Failures never fail
// the request.
type Mirror interface {
	MirrorDocument(ctx context.Context, name string, data []byte) error
	MirrorImage(ctx context.Context, filename string, data []byte, contentType string) error
	Ping(ctx context.Context) error
	Bucket() string
}

// EventSink is an external event transport whose connectivity is reported
// by /status.
type EventSink interface {
	Name() string
	Ping() error
}

const mirrorTimeout = 5 * time.Second

func newEvent(eventType, path string) *dto.Event {
	return &dto.Event{
		Type:      eventType,
		Path:      path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
