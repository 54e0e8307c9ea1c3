package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/reconnect/pkg/dto"
)

// stalledPublisher blocks until its context ends, like a JetStream publish
// with no server answering.
type stalledPublisher struct {
	subjects chan string
	payloads chan []byte
}

func (s *stalledPublisher) Publish(ctx context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	s.subjects <- subject
	s.payloads <- payload
	<-ctx.Done()
	return nil, ctx.Err()
}

type okPublisher struct {
	subject string
	payload []byte
}

func (o *okPublisher) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	o.subject = subject
	o.payload = payload
	return &jetstream.PubAck{Stream: EventsStreamName}, nil
}

func TestNotifyDoesNotBlockOnStalledServer(t *testing.T) {
	pub := &stalledPublisher{subjects: make(chan string, 1), payloads: make(chan []byte, 1)}
	p := &Producer{pub: pub, timeout: 50 * time.Millisecond}

	reqCtx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	done := p.notify(reqCtx, &dto.Event{Type: dto.EventDocumentUpdated, Path: "/srv/data/persons.json"})
	assert.Less(t, time.Since(start), 20*time.Millisecond, "the caller returns before the publish finishes")

	// the request finishing does not cancel the publish
	cancel()
	assert.Equal(t, "reconnect.document_updated", <-pub.subjects)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("publish was not bounded by the timeout")
	}
}

func TestPublishEvent(t *testing.T) {
	pub := &okPublisher{}
	p := &Producer{pub: pub, timeout: time.Second}

	err := <-p.notify(context.Background(), &dto.Event{Type: dto.EventImageUploaded, Path: "img/a.png", Bytes: 4})
	require.NoError(t, err)
	assert.Equal(t, "reconnect.image_uploaded", pub.subject)

	var evt dto.Event
	require.NoError(t, json.Unmarshal(pub.payload, &evt))
	assert.Equal(t, "img/a.png", evt.Path)
	assert.Equal(t, 4, evt.Bytes)
}
