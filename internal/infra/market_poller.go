package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fantasy_go/internal/domain"
)

// BudgetSink receives refreshed raw budget inputs.
type BudgetSink interface {
	SetSnapshot(cash, teamAssetValue int64)
}

// SnapshotReconciler merges polled market snapshots into local state.
type SnapshotReconciler interface {
	Reconcile(ctx context.Context, entries []*domain.MarketEntry, preserveRecent bool) error
}

// MarketPoller drives the periodic refresh cycle: account cash, team data,
// then the market snapshot through the reconciler. The remote API is
// polling-only, so this loop is the sole source of remote reads.
type MarketPoller struct {
	api      domain.MarketAPI
	budget   BudgetSink
	recon    SnapshotReconciler
	leagueID int64
	teamID   int64

	pollInterval time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       *slog.Logger
}

// NewMarketPoller creates a poller for one session.
func NewMarketPoller(api domain.MarketAPI, budget BudgetSink, recon SnapshotReconciler, leagueID, teamID int64, pollInterval time.Duration) *MarketPoller {
	if pollInterval <= 0 {
		pollInterval = 60 * time.Second
	}
	return &MarketPoller{
		api:          api,
		budget:       budget,
		recon:        recon,
		leagueID:     leagueID,
		teamID:       teamID,
		pollInterval: pollInterval,
		logger:       slog.Default().With("module", "market_poller"),
	}
}

// Start begins polling. The first cycle runs immediately so the session has
// data before the first tick.
func (p *MarketPoller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	if err := p.pollOnce(ctx); err != nil {
		p.logger.Warn("Initial market poll failed", slog.Any("error", err))
		// Continue anyway - will retry on next tick
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Market polling panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Market polling stopped")
				return
			case <-ticker.C:
				if err := p.pollOnce(ctx); err != nil {
					p.logger.Warn("Market poll failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

// pollOnce runs one refresh cycle with retry on the snapshot fetch.
func (p *MarketPoller) pollOnce(ctx context.Context) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s
			delay := time.Duration(1<<uint(i-1)) * time.Second
			p.logger.Info("Retrying market poll", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := p.doPoll(ctx)
		if err == nil {
			GlobalMetrics.RecordPoll()
			return nil
		}
		lastErr = err
		p.logger.Warn("Market poll attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
	}
	GlobalMetrics.RecordPollFailure()
	return lastErr
}

func (p *MarketPoller) doPoll(ctx context.Context) error {
	cash, err := p.api.GetAccountCash(ctx, p.teamID)
	if err != nil {
		return err
	}

	team, err := p.api.GetTeamData(ctx, p.leagueID, p.teamID)
	if err != nil {
		return err
	}

	p.budget.SetSnapshot(cash, team.AssetValue)

	entries, err := p.api.GetMarketSnapshot(ctx, p.leagueID)
	if err != nil {
		return err
	}

	return p.recon.Reconcile(ctx, entries, true)
}

// Stop stops the polling
func (p *MarketPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}
