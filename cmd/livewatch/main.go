// livewatch connects to the marketplace live feed and streams bid activity
// for the given auctions to the console.
// Usage: go run ./cmd/livewatch --config configs/livefeed.example.yaml auction-42 auction-57
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bidhaus/livefeed/internal/config"
	"github.com/bidhaus/livefeed/internal/connection"
	"github.com/bidhaus/livefeed/internal/event"
	"github.com/bidhaus/livefeed/internal/rest"
)

func main() {
	configPath := flag.String("config", "configs/livefeed.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "debug-level logging")
	flag.Parse()

	auctions := flag.Args()
	if len(auctions) == 0 {
		fmt.Fprintln(os.Stderr, "usage: livewatch [--config path] auction-id [auction-id...]")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
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

	// Print an auction snapshot before streaming, when the API is reachable.
	if cfg.API.BaseURL != "" {
		client := rest.NewClient(cfg.API.BaseURL, cfg.API.Token,
			rest.WithTimeout(cfg.API.Timeout),
			rest.WithRetries(cfg.API.MaxRetries, time.Second),
			rest.WithLogger(logger),
		)
		for _, id := range auctions {
			auction, err := client.GetAuction(ctx, id)
			if err != nil {
				logger.Warn("snapshot unavailable", "auction", id, "error", err)
				continue
			}
			fmt.Printf("%s  %q  current=%.2f bids=%d status=%s\n",
				auction.ID, auction.Title, auction.CurrentBid, auction.BidCount, auction.Status)
		}
	}

	mgr := connection.NewManager(managerConfig(cfg, liveURL), logger)

	mgr.OnAnyBidUpdate(func(upd event.BidUpdate) {
		fmt.Printf("[%s] BID  %s  %.2f  (#%d)  by %s\n",
			upd.ReceivedAt.Format("15:04:05"), upd.AuctionID, upd.CurrentBid, upd.BidCount, upd.BidderName)
	})
	logger.Info("connecting to live feed", "url", liveURL)
	if err := mgr.Connect(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer mgr.Disconnect()

	for _, id := range auctions {
		mgr.OnAuctionEnded(id, func(ended event.AuctionEnded) {
			if ended.WinnerID == "" {
				fmt.Printf("[%s] END  %s  no sale\n",
					ended.ReceivedAt.Format("15:04:05"), ended.AuctionID)
				return
			}
			fmt.Printf("[%s] END  %s  sold for %.2f to %s\n",
				ended.ReceivedAt.Format("15:04:05"), ended.AuctionID, ended.FinalBid, ended.WinnerName)
		})
		if err := mgr.SubscribeToAuction(ctx, id); err != nil {
			logger.Error("failed to subscribe", "auction", id, "error", err)
			os.Exit(1)
		}
		logger.Info("watching auction", "auction", id)
	}

	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-statsTicker.C:
			stats := mgr.Stats()
			logger.Debug("feed stats",
				"state", stats.State,
				"received", stats.FramesReceived,
				"routed", stats.FramesRouted,
				"parse_errors", stats.ParseErrors,
				"unknown", stats.UnknownFrames,
			)
			if stats.State == connection.StateDisconnected {
				logger.Error("live feed gave up reconnecting")
				os.Exit(1)
			}
		}
	}
}

func managerConfig(cfg *config.Config, liveURL string) connection.ManagerConfig {
	return connection.ManagerConfig{
		URL:               liveURL,
		Token:             cfg.API.Token,
		ReconnectBaseWait: cfg.Live.ReconnectBaseWait,
		ReconnectMaxWait:  cfg.Live.ReconnectMaxWait,
		MaxReconnects:     cfg.Live.MaxReconnects,
		PingInterval:      cfg.Live.PingInterval,
		PingTimeout:       cfg.Live.PingTimeout,
		WriteTimeout:      cfg.Live.WriteTimeout,
		BufferSize:        cfg.Live.BufferSize,
	}
}
