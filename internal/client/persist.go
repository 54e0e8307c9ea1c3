package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/your-org/reconnect/internal/models"
)

// DocumentCache keeps the last serialized document locally.
type DocumentCache interface {
	PutDocument(ctx context.Context, doc models.Document) error
}

// Recovery is offered the document after a failed write so an operator can
// persist it by hand. It reports whether the operator accepted.
type Recovery interface {
	Recover(ctx context.Context, doc models.Document, cause error) (bool, error)
}

// Persister sends the full record set to POST /update-document.
type Persister struct {
	client   *Client
	cache    DocumentCache
	recovery Recovery
}

type PersisterOption func(*Persister)

func WithDocumentCache(c DocumentCache) PersisterOption {
	return func(p *Persister) { p.cache = c }
}

func WithRecovery(r Recovery) PersisterOption {
	return func(p *Persister) { p.recovery = r }
}

func NewPersister(c *Client, opts ...PersisterOption) *Persister {
	p := &Persister{client: c}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Persist serializes records and overwrites the canonical document. Failure
// is reported in the outcome; the manual recovery path runs when configured.
func (p *Persister) Persist(ctx context.Context, records []models.PersonRecord) models.Outcome {
	doc := models.NewDocument(records)

	if p.cache != nil {
		if err := p.cache.PutDocument(ctx, doc); err != nil {
			slog.Warn("cache document", "error", err)
		}
	}

	result, err := p.client.post(ctx, "/update-document", doc)
	if err == nil {
		slog.Info("document saved", "path", result.Path, "persons", len(doc.Persons))
		return models.Outcome{
			Status:   models.OutcomeCommitted,
			Path:     result.Path,
			Message:  result.Message,
			Document: doc,
		}
	}

	slog.Error("save document", "error", err)
	out := models.Outcome{
		Status:   models.OutcomeFailed,
		Document: doc,
		Err:      err,
	}
	if result != nil {
		out.Message = result.Message
		out.Path = result.Path
	}
	if errors.Is(err, ErrUnavailable) {
		out.Message = "server unavailable"
	}

	if p.recovery != nil {
		accepted, rerr := p.recovery.Recover(ctx, doc, err)
		if rerr != nil {
			slog.Error("manual recovery", "error", rerr)
		}
		out.Recovered = accepted && rerr == nil
	}
	return out
}
