// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/gatherfun/auth"
	"github.com/danielhkuo/gatherfun/cliparse"
	"github.com/danielhkuo/gatherfun/db"
	"github.com/danielhkuo/gatherfun/metrics"
	"github.com/danielhkuo/gatherfun/middleware"
	"github.com/danielhkuo/gatherfun/places"
	"github.com/danielhkuo/gatherfun/router"
	"github.com/danielhkuo/gatherfun/session"
	"github.com/danielhkuo/gatherfun/store"
)

func main() {
	if err := cliparse.LoadEnv(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	rec := metrics.New()

	var primary places.Provider
	if cfg.PlacesAPIKey != "" {
		primary = places.NewGoogle(cfg.PlacesAPIKey)
	} else {
		slog.Info("No places API key, using the static pool")
	}
	provider := places.NewSearcher(primary, places.NewStatic(), rec)

	policy := session.DefaultPolicy()
	policy.Lanes = cfg.TieBreakLanes
	policy.TieBreakWindow = time.Duration(cfg.TieBreakMinutes) * time.Minute
	policy.SharedConnectors = cfg.SharedConnectors
	policy.FreeLaneChoice = cfg.FreeLaneChoice

	svc := session.New(st, provider, session.WithPolicy(policy), session.WithMetrics(rec))
	monitor := session.NewMonitor(ctx, svc, session.WithMonitorMetrics(rec))
	defer monitor.Close()

	mux := router.NewRouter(svc, monitor, rec, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(nil, mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Hijacked WebSocket connections are not tracked by Shutdown; their
		// streams end when the monitor context and subscriptions are cancelled.
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "store", cfg.DatabaseType)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}
}

// openStore builds the configured store. With a NATS URL, SQL stores relay
// change notifications so every process's subscribers see every write.
func openStore(ctx context.Context, cfg cliparse.Config) (store.Store, func(), error) {
	if cfg.DatabaseType == cliparse.DatabaseMemory {
		slog.Info("Using in-memory store")
		return store.NewMemory(nil), func() {}, nil
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	if cfg.NATSURL == "" {
		return store.NewSQL(conn, cfg.DatabaseType), func() { conn.Close() }, nil
	}

	origin, err := auth.GenerateID(6)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	bridge, err := store.NewBridge(cfg.NATSURL, origin)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	sqlStore := store.NewSQL(conn, cfg.DatabaseType, store.WithNotifier(bridge))
	if err := bridge.Start(ctx, sqlStore); err != nil {
		bridge.Close()
		conn.Close()
		return nil, nil, err
	}
	return sqlStore, func() {
		bridge.Close()
		conn.Close()
	}, nil
}
