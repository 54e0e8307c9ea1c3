package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/your-org/reconnect/internal/models"
)

type Source string

const (
	SourceServer Source = "server"
	SourceCache  Source = "cache"
	SourceDemo   Source = "demo"
)

// RecordSource is a local copy of the record set.
type RecordSource interface {
	Records(ctx context.Context) ([]models.PersonRecord, bool, error)
}

// LoadRecords returns the starting record set: the server's canonical
// document, else the local cache, else the built-in demo records. It only
// falls back when the server is unreachable or has no document yet; any
// other failure is returned so the caller never persists a fallback set over
// a document it could not read.
func LoadRecords(ctx context.Context, c *Client, local RecordSource) ([]models.PersonRecord, Source, error) {
	doc, err := c.LoadDocument(ctx)
	switch {
	case err == nil:
		return doc.Records(), SourceServer, nil
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrNoDocument):
		slog.Warn("load canonical document", "error", err)
	default:
		return nil, "", fmt.Errorf("load canonical document: %w", err)
	}

	if local != nil {
		records, ok, err := local.Records(ctx)
		switch {
		case err != nil:
			slog.Warn("load cached records", "error", err)
		case ok:
			return records, SourceCache, nil
		}
	}
	return models.DemoRecords(), SourceDemo, nil
}
