// recorder connects to the marketplace live feed and persists bid activity
// for the configured auctions to PostgreSQL.
// Usage: go run ./cmd/recorder --config configs/livefeed.example.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bidhaus/livefeed/internal/config"
	"github.com/bidhaus/livefeed/internal/connection"
	"github.com/bidhaus/livefeed/internal/database"
	"github.com/bidhaus/livefeed/internal/recorder"
)

func main() {
	configPath := flag.String("config", "configs/livefeed.example.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Database.Validate(); err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(1)
	}
	if len(cfg.Recorder.Auctions) == 0 {
		logger.Error("recorder.auctions is empty, nothing to record")
		os.Exit(1)
	}

	liveURL, err := cfg.LiveURL()
	if err != nil {
		logger.Error("failed to resolve live feed url", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected", "host", cfg.Database.Host, "name", cfg.Database.Name)

	mgr := connection.NewManager(connection.ManagerConfig{
		URL:               liveURL,
		Token:             cfg.API.Token,
		ReconnectBaseWait: cfg.Live.ReconnectBaseWait,
		ReconnectMaxWait:  cfg.Live.ReconnectMaxWait,
		MaxReconnects:     cfg.Live.MaxReconnects,
		PingInterval:      cfg.Live.PingInterval,
		PingTimeout:       cfg.Live.PingTimeout,
		WriteTimeout:      cfg.Live.WriteTimeout,
		BufferSize:        cfg.Live.BufferSize,
	}, logger)

	rec := recorder.NewBidRecorder(cfg.Recorder, mgr, db, logger)
	if err := rec.Start(ctx); err != nil {
		logger.Error("failed to start recorder", "error", err)
		os.Exit(1)
	}

	logger.Info("connecting to live feed", "url", liveURL)
	if err := mgr.Connect(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	for _, id := range cfg.Recorder.Auctions {
		if err := mgr.SubscribeToAuction(ctx, id); err != nil {
			logger.Error("failed to subscribe", "auction", id, "error", err)
			os.Exit(1)
		}
		logger.Info("recording auction", "auction", id)
	}

	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-statsTicker.C:
			feed := mgr.Stats()
			writes := rec.Stats()
			logger.Info("recorder stats",
				"state", feed.State,
				"frames_routed", feed.FramesRouted,
				"inserts", writes.Inserts,
				"conflicts", writes.Conflicts,
				"flushes", writes.Flushes,
				"errors", writes.Errors,
			)
			if feed.State == connection.StateDisconnected {
				logger.Error("live feed gave up reconnecting")
				break loop
			}
		}
	}

	logger.Info("shutting down")
	mgr.Disconnect()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := rec.Stop(stopCtx); err != nil {
		logger.Error("recorder stop failed", "error", err)
	}
}
