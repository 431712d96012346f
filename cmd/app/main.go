package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fantasy_go/internal/app"
	"fantasy_go/internal/infra/liga"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Remote API Client
	client := liga.NewClient(bootstrap.Config)

	// 5. Session Resolution (league -> user -> team)
	session, err := bootstrap.OpenSession(ctx, client, nil)
	if err != nil {
		slog.Error("❌ Session initialization failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 6. Background Roster Sync (Loading Screen work)
	go bootstrap.SyncRoster(ctx, client, session)

	// 7. Market Poll Loop
	if err := session.Poller.Start(ctx); err != nil {
		slog.Error("Failed to start market poller", slog.Any("error", err))
	}
	defer session.Poller.Stop()

	slog.InfoContext(ctx, "✨ Fantasy Go session operational. Press Ctrl+C to exit.",
		slog.Int64("team", session.TeamID),
		slog.Int64("available", session.Ledger.AvailableMoneyForBids()))

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
