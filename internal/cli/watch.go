package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/your-org/reconnect/internal/client"
	"github.com/your-org/reconnect/internal/queue"
	"github.com/your-org/reconnect/pkg/dto"
)

func (o *options) client() *client.Client {
	return client.New(o.server)
}

func newWatchCommand(opts *options) *cobra.Command {
	var (
		eventType string
		natsURL   string
		consumer  string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream change events from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if natsURL != "" {
				return watchNATS(ctx, out, natsURL, consumer, eventType)
			}
			return watchWS(ctx, out, opts.server, eventType)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&eventType, "type", "t", "", "only show events of this type (document_updated, image_uploaded)")
	f.StringVar(&natsURL, "nats", "", "read events from this NATS server instead of the WebSocket feed")
	f.StringVar(&consumer, "consumer", "reconnect-cli", "durable NATS consumer name")
	return cmd
}

// EventsURL maps the server base URL to its WebSocket feed.
func EventsURL(server, eventType string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	if eventType != "" {
		u.RawQuery = url.Values{"type": {eventType}}.Encode()
	}
	return u.String(), nil
}

func watchWS(ctx context.Context, out io.Writer, server, eventType string) error {
	target, err := EventsURL(server, eventType)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	slog.Info("watching events", "url", target)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		var evt dto.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			slog.Warn("decode event", "error", err)
			continue
		}
		printEvent(out, evt)
	}
}

func watchNATS(ctx context.Context, out io.Writer, natsURL, name, eventType string) error {
	c, err := queue.NewConsumer(natsURL)
	if err != nil {
		return err
	}
	defer c.Close()

	err = c.ConsumeEvents(ctx, name, func(_ context.Context, evt dto.Event) error {
		if eventType == "" || evt.Type == eventType {
			printEvent(out, evt)
		}
		return nil
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func printEvent(w io.Writer, evt dto.Event) {
	switch evt.Type {
	case dto.EventDocumentUpdated:
		fmt.Fprintf(w, "%s  %s  %s (%d persons)\n", evt.Timestamp, evt.Type, evt.Path, evt.Persons)
	case dto.EventImageUploaded:
		fmt.Fprintf(w, "%s  %s  %s (%d bytes)\n", evt.Timestamp, evt.Type, evt.Path, evt.Bytes)
	default:
		fmt.Fprintf(w, "%s  %s  %s\n", evt.Timestamp, evt.Type, evt.Path)
	}
}
