package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fantasy_go/internal/domain"
	"fantasy_go/internal/infra"
	"fantasy_go/internal/infra/storage"
	"fantasy_go/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Downloader *infra.PortraitDownloader
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (Config, Logger, DB, Assets)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Fantasy Go...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Initialize Portrait Downloader
	downloader, err := infra.NewPortraitDownloader()
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("✅ Portrait downloader ready")

	return nil
}

// Session wires the reconciliation core for one account in one league.
type Session struct {
	LeagueID int64
	UserID   int64
	TeamID   int64

	Ledger     *service.Ledger
	Reconciler *service.Reconciler
	Gateway    *service.Gateway
	Poller     *infra.MarketPoller
}

// OpenSession resolves the local identity (league -> user -> team) and wires
// ledger, reconciler, gateway and poller. Any missing link is an
// InitializationError; the subsystem refuses to activate on a half-resolved
// identity.
func (b *Bootstrap) OpenSession(ctx context.Context, api domain.MarketAPI, refresher domain.Refresher) (*Session, error) {
	cfg := b.Config

	leagueID := cfg.API.LeagueID
	if leagueID <= 0 {
		return nil, &domain.InitializationError{Missing: "league id"}
	}

	// The caller may only hold an opaque session subject; resolve it.
	userID := cfg.API.UserID
	if userID == 0 {
		resolved, err := api.GetCurrentUser(ctx)
		if err != nil {
			return nil, &domain.InitializationError{Missing: "user id", Err: err}
		}
		userID = resolved
	}
	if userID == 0 {
		return nil, &domain.InitializationError{Missing: "user id"}
	}

	ranking, err := api.GetLeagueRanking(ctx, leagueID)
	if err != nil {
		return nil, &domain.InitializationError{Missing: "team", Err: err}
	}

	var teamID int64
	for _, row := range ranking {
		if row.UserID == userID {
			teamID = row.TeamID
			break
		}
	}
	if teamID == 0 {
		return nil, &domain.InitializationError{
			Missing: "team",
			Err:     fmt.Errorf("user %d not found in league %d ranking", userID, leagueID),
		}
	}

	var store domain.SessionStore
	if b.Storage != nil {
		store = b.Storage
	}
	ledger := service.NewLedger(service.LedgerOptions{
		BonusRatio:   cfg.Session.BonusRatio,
		GraceWindow:  cfg.GraceWindow(),
		CashCeiling:  cfg.Session.CashCeiling,
		AssetCeiling: cfg.Session.AssetValueCeiling,
		Store:        store,
	})
	if err := ledger.LoadPersisted(); err != nil {
		// A fresh ledger still works; it just loses the previous session's
		// grace-window protection until the next reconcile.
		slog.Warn("Failed to restore persisted session state", slog.Any("error", err))
	}

	reconciler := service.NewReconciler(ledger, api, leagueID, teamID)
	cascade := service.NewCascade(refresher)
	gateway := service.NewGateway(ledger, api, leagueID, cascade)
	poller := infra.NewMarketPoller(api, ledger, reconciler, leagueID, teamID, cfg.PollInterval())

	slog.Info("✅ Session resolved",
		slog.Int64("league", leagueID), slog.Int64("user", userID), slog.Int64("team", teamID))

	return &Session{
		LeagueID:   leagueID,
		UserID:     userID,
		TeamID:     teamID,
		Ledger:     ledger,
		Reconciler: reconciler,
		Gateway:    gateway,
		Poller:     poller,
	}, nil
}

// SyncRoster caches player metadata and portraits for the local team in the
// background. This is the loading-screen work; failures are logged, never
// fatal.
func (b *Bootstrap) SyncRoster(ctx context.Context, api domain.MarketAPI, sess *Session) {
	slog.Info("🔄 Starting roster synchronization...")

	team, err := api.GetTeamData(ctx, sess.LeagueID, sess.TeamID)
	if err != nil {
		slog.Warn("Roster sync aborted", slog.Any("error", err))
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, entry := range team.Roster {
		wg.Add(1)
		go func(entry domain.RosterEntry) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			player := &domain.PlayerInfo{
				PlayerID:  entry.PlayerID,
				Name:      entry.PlayerName,
				UpdatedAt: time.Now(),
			}

			// Preserve portrait path and sync time if already cached
			if existing, _ := b.Storage.GetPlayer(entry.PlayerID); existing != nil {
				player.Position = existing.Position
				player.PortraitPath = existing.PortraitPath
				player.LastSyncedAt = existing.LastSyncedAt
			}

			if player.PortraitPath == "" {
				url := fmt.Sprintf("%s/api/v3/players/%d/portrait", b.Config.API.BaseURL, entry.PlayerID)
				path, err := b.Downloader.DownloadPortrait(entry.PlayerID, url)
				if err != nil {
					slog.Debug("Portrait download failed", slog.Int64("player", entry.PlayerID), slog.Any("error", err))
				} else {
					player.PortraitPath = path
					player.LastSyncedAt = time.Now()
				}
			}

			if err := b.Storage.UpsertPlayer(player); err != nil {
				slog.Error("Failed to upsert player", slog.Int64("player", entry.PlayerID), slog.Any("error", err))
			}
		}(entry)
	}

	wg.Wait()
	slog.Info("✅ Roster synchronization complete", slog.Int("players", len(team.Roster)))
}
