package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/reconnect/internal/observability"
	"github.com/your-org/reconnect/pkg/dto"
)

const (
	EventsStreamName  = "RECONNECT_EVENTS"
	EventsSubjectBase = "reconnect"
)

// publishTimeout bounds a single background publish.
const publishTimeout = 3 * time.Second

type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Producer publishes change events to JetStream.
type Producer struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	pub publisher

	timeout time.Duration
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Producer{nc: nc, js: js, pub: js, timeout: publishTimeout}, nil
}

func connect(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create jetstream context: %w", err)
	}
	return nc, js, nil
}

// EnsureStream creates the events stream if it doesn't exist.
func (p *Producer) EnsureStream(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.js.CreateOrUpdateStream(opCtx, jetstream.StreamConfig{
		Name:        EventsStreamName,
		Subjects:    []string{EventsSubjectBase + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     100000,
		Storage:     jetstream.FileStorage,
		Description: "Canonical document and image write events",
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", EventsStreamName, err)
	}
	slog.Info("ensured NATS stream", "name", EventsStreamName)
	return nil
}

// PublishEvent publishes evt on reconnect.<type>.
func (p *Producer) PublishEvent(ctx context.Context, evt *dto.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", EventsSubjectBase, evt.Type)
	if _, err := p.pub.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Notify publishes evt in the background and logs failures; delivery is
// best-effort. The publish outlives the request but not publishTimeout.
func (p *Producer) Notify(ctx context.Context, evt *dto.Event) {
	p.notify(ctx, evt)
}

func (p *Producer) notify(ctx context.Context, evt *dto.Event) <-chan error {
	done := make(chan error, 1)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	go func() {
		defer cancel()
		err := p.PublishEvent(pubCtx, evt)
		if err != nil {
			slog.Warn("publish change event", "type", evt.Type, "error", err)
		} else {
			observability.EventsPublished.WithLabelValues(evt.Type, "nats").Inc()
		}
		done <- err
	}()
	return done
}

func (p *Producer) Name() string { return "nats" }

// Ping reports whether the NATS connection is up.
func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
