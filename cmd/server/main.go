package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/reconnect/internal/api"
	"github.com/your-org/reconnect/internal/api/handlers"
	"github.com/your-org/reconnect/internal/api/ws"
	"github.com/your-org/reconnect/internal/config"
	"github.com/your-org/reconnect/internal/observability"
	"github.com/your-org/reconnect/internal/queue"
	"github.com/your-org/reconnect/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	root := flag.String("root", "", "project root containing data/ and img/ (default: working directory)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.WithRoot(*root); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting reconnect persistence server", "port", cfg.Server.Port, "root", cfg.Storage.Root)

	files := storage.NewFileStore(cfg.Storage)
	files.LogLayout()
	if err := files.EnsureDirs(); err != nil {
		slog.Error("prepare project directories", "error", err)
		os.Exit(1)
	}
	slog.Info("directories ready",
		"data_writable", files.DataStatus().Writable,
		"img_writable", files.ImageStatus().Writable,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)
	notifiers := handlers.Notifiers{hub}

	var events handlers.EventSink

	// NATS is optional
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStream(ctx); err != nil {
			slog.Warn("ensure nats stream", "error", err)
		}
		notifiers = append(notifiers, producer)
		events = producer
	}

	var mirror handlers.Mirror
	if cfg.MinIO.Enabled() {
		minioStore, err := storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			slog.Error("connect to minio", "error", err)
			os.Exit(1)
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			slog.Warn("ensure minio bucket", "error", err)
		}
		mirror = minioStore
	}

	router := api.NewRouter(api.RouterConfig{
		Files:        files,
		Mirror:       mirror,
		Notifier:     notifiers,
		Events:       events,
		Hub:          hub,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr,
			"endpoints", []string{"GET /status", "POST /update-document", "POST /upload-image", "GET /ws"})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
