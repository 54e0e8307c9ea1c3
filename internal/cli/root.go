// Package cli implements the reconnect command-line client.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/your-org/reconnect/internal/cache"
	"github.com/your-org/reconnect/internal/client"
	"github.com/your-org/reconnect/internal/observability"
	"github.com/your-org/reconnect/internal/registry"
)

type options struct {
	server        string
	cachePath     string
	pageSize      int
	logLevel      string
	documentPath  string
	offerRecovery bool
}

// NewRootCommand builds the command tree. Every call returns an independent
// tree so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	server := os.Getenv("RECONNECT_SERVER")
	if server == "" {
		server = client.DefaultBaseURL
	}
	cachePath, ok := os.LookupEnv("RECONNECT_CACHE")
	if !ok {
		cachePath = cache.DefaultPath()
	}

	root := &cobra.Command{
		Use:           "reconnect",
		Short:         "Search and register persons in the reconnect registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			observability.SetupLogger(opts.logLevel, "text")
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.server, "server", "s", server, "persistence server base URL (env RECONNECT_SERVER)")
	pf.StringVar(&opts.cachePath, "cache", cachePath, "local cache database; empty disables the cache (env RECONNECT_CACHE)")
	pf.IntVar(&opts.pageSize, "page-size", registry.DefaultPageSize, "results per page")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.documentPath, "document-path", "data/persons.json", "canonical document location shown by the manual recovery prompt")
	pf.BoolVar(&opts.offerRecovery, "recover", true, "offer to copy the document to the clipboard when saving fails")

	root.AddCommand(
		newStatusCommand(opts),
		newSearchCommand(opts),
		newRegisterCommand(opts),
		newUploadCommand(opts),
		newContactCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

// session is the per-invocation client state: the record set loaded from
// the server (or cache, or demo data) plus the clients that persist it.
type session struct {
	client   *client.Client
	store    *cache.Store
	state    *registry.State
	uploader *client.Uploader
	source   client.Source
}

func (o *options) openSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s := &session{client: client.New(o.server)}

	if o.cachePath != "" {
		store, err := cache.Open(o.cachePath)
		if err != nil {
			slog.Warn("local cache unavailable", "path", o.cachePath, "error", err)
		} else {
			s.store = store
		}
	}

	persistOpts := []client.PersisterOption{}
	stateOpts := []registry.Option{registry.WithPageSize(o.pageSize)}
	var local client.RecordSource
	var images client.ImageCache
	if s.store != nil {
		persistOpts = append(persistOpts, client.WithDocumentCache(s.store))
		stateOpts = append(stateOpts, registry.WithCache(s.store))
		local = s.store
		images = s.store
	}
	if o.offerRecovery {
		persistOpts = append(persistOpts, client.WithRecovery(
			client.NewClipboardFallback(cmd.InOrStdin(), cmd.OutOrStdout(), o.documentPath)))
	}
	stateOpts = append(stateOpts, registry.WithPersister(client.NewPersister(s.client, persistOpts...)))

	s.state = registry.New(stateOpts...)
	s.uploader = client.NewUploader(s.client, images)

	records, source, err := client.LoadRecords(ctx, s.client, local)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := s.state.Initialize(records); err != nil {
		s.Close()
		return nil, err
	}
	s.source = source
	slog.Info("records loaded", "source", source, "count", len(records))
	return s, nil
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("close local cache", "error", err)
		}
	}
}
