// Package client talks to the persistence server on behalf of the CLI.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/your-org/reconnect/internal/models"
	"github.com/your-org/reconnect/pkg/dto"
)

const (
	DefaultBaseURL = "http://localhost:3000"

	// defaultDocumentURL is used when /status does not name the document.
	defaultDocumentURL = "/data/persons.json"
)

var (
	// ErrUnavailable wraps transport failures: the server could not be reached.
	ErrUnavailable = errors.New("persistence server unavailable")
	// ErrRejected means the server answered but reported failure.
	ErrRejected = errors.New("persistence server rejected request")
	// ErrNoDocument means the server is up but has no canonical document yet.
	ErrNoDocument = errors.New("canonical document not found")
	// ErrMalformedDocument means the server returned a document that could
	// not be read. Overwriting it would lose data.
	ErrMalformedDocument = errors.New("canonical document is malformed")
)

// Client is a thin resty wrapper around the persistence server endpoints.
// It never retries.
type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)

	return &Client{http: c}
}

func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// Status fetches GET /status.
func (c *Client) Status(ctx context.Context) (*dto.StatusResponse, error) {
	var status dto.StatusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/status")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode())
	}
	return &status, nil
}

// LoadDocument fetches the canonical document from the location the server
// reports in /status.
func (c *Client) LoadDocument(ctx context.Context) (models.Document, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return models.Document{}, err
	}
	docURL := status.DocumentURL
	if docURL == "" {
		docURL = defaultDocumentURL
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get(docURL)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return models.Document{}, fmt.Errorf("%w: GET %s", ErrNoDocument, docURL)
	case resp.StatusCode() != http.StatusOK:
		return models.Document{}, fmt.Errorf("%w: GET %s: status %d", ErrRejected, docURL, resp.StatusCode())
	}

	var doc models.Document
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return models.Document{}, fmt.Errorf("%w: GET %s: %v", ErrMalformedDocument, docURL, err)
	}
	if doc.Persons == nil {
		return models.Document{}, fmt.Errorf("%w: GET %s: no persons array", ErrMalformedDocument, docURL)
	}
	return doc, nil
}

// post sends body to path and decodes the result envelope. A transport
// failure, a non-2xx status and {success:false} are all errors.
func (c *Client) post(ctx context.Context, path string, body any) (*dto.Result, error) {
	var result dto.Result
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() || !result.Success {
		msg := result.Message
		if msg == "" {
			msg = resp.Status()
		}
		if result.Error != "" {
			msg += ": " + result.Error
		}
		return &result, fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return &result, nil
}
