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

	"github.com/huntwatch/huntwatch/internal/api"
	"github.com/huntwatch/huntwatch/internal/auth"
	"github.com/huntwatch/huntwatch/internal/config"
	"github.com/huntwatch/huntwatch/internal/metrics"
	"github.com/huntwatch/huntwatch/internal/notify"
	"github.com/huntwatch/huntwatch/internal/store"
	"github.com/huntwatch/huntwatch/internal/track"
	"github.com/huntwatch/huntwatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("huntwatch-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"sighting_ttl", cfg.Server.Sightings.TTL,
		"presence_ttl", cfg.Server.Players.TTL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Sighting and presence stores with background expiry.
	tracker := track.New(
		storeOptions(cfg.Server.Sightings),
		storeOptions(cfg.Server.Players),
	)
	go tracker.Run(ctx)

	// Notification engine — evaluates rules on every recorded sighting.
	engine := notify.New(cfg.Server.Notify)

	handler := api.New(tracker, engine,
		cfg.Server.Sightings.ResponseCap, cfg.Server.Players.ResponseCap)

	// WebSocket hub — broadcasts a live feed snapshot on an interval.
	hub := ws.New(tracker, cfg.Server.Feed.Interval,
		cfg.Server.Sightings.ResponseCap, cfg.Server.Players.ResponseCap)
	go hub.Run(ctx)

	// Hot reload: capacity and response caps can change without a restart.
	// TTLs and the expiry policy stay fixed for the process lifetime.
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			tracker.Resize(next.Server.Sightings.MaxEntries, next.Server.Players.MaxEntries)
			handler.SetCaps(next.Server.Sightings.ResponseCap, next.Server.Players.ResponseCap)
			slog.Info("applied config reload",
				"sighting_max", next.Server.Sightings.MaxEntries,
				"player_max", next.Server.Players.MaxEntries,
			)
		})
		if err != nil {
			slog.Warn("config watcher stopped", "err", err)
		}
	}()

	guard := auth.Middleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)

	mux := http.NewServeMux()
	mux.Handle("/api/", guard(handler))
	mux.Handle("/ws/feed", hub)
	mux.Handle("/metrics", metrics.New(tracker))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("huntwatch-server shutting down")
	srv.Shutdown(context.Background()) //nolint:errcheck
}

func storeOptions(sc config.StoreConfig) store.Options {
	return store.Options{
		TTL:        sc.TTL,
		MaxEntries: sc.MaxEntries,
		Policy:     store.Policy(sc.Policy),
	}
}
