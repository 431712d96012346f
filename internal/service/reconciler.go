package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fantasy_go/internal/domain"
	"fantasy_go/internal/infra"
)

// Reconciler merges freshly polled market snapshots into the ledger.
//
// The remote snapshot can lag both a cancellation and a successful bid by one
// or more poll cycles, so neither side is trusted unconditionally: local
// writes win within the grace window, tombstones suppress resurrected
// cancellations, and beyond the window the remote snapshot is authoritative.
type Reconciler struct {
	ledger      *Ledger
	api         domain.MarketAPI
	leagueID    int64
	localTeamID int64
	logger      *slog.Logger
}

// NewReconciler creates a reconciler bound to one session's ledger.
func NewReconciler(ledger *Ledger, api domain.MarketAPI, leagueID, localTeamID int64) *Reconciler {
	return &Reconciler{
		ledger:      ledger,
		api:         api,
		leagueID:    leagueID,
		localTeamID: localTeamID,
		logger:      slog.Default().With("module", "reconciler"),
	}
}

// Reconcile merges one polled snapshot. With preserveRecent, offers written
// within the grace window are kept untouched even if the snapshot disagrees.
// Idempotent: the same snapshot twice yields the same table.
//
// The ledger lock is held for the whole pass; a concurrent mutation blocks
// until the merge completes, which is exactly the serialization the design
// requires.
func (r *Reconciler) Reconcile(ctx context.Context, entries []*domain.MarketEntry, preserveRecent bool) error {
	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// 1. Retained set: fresh local writes with no active tombstone.
	retained := make(map[int64]*domain.Offer)
	if preserveRecent {
		for id, o := range l.offers {
			if now.Sub(o.CreatedAt) <= l.graceWindow && !l.tombstoneActiveLocked(id, now) {
				retained[id] = o
			}
		}
	}

	// 2. Garbage-collect expired tombstones.
	for id, tomb := range l.tombstones {
		if now.Sub(tomb.CancelledAt) > l.graceWindow {
			delete(l.tombstones, id)
			if l.store != nil {
				if err := l.store.DeleteTombstone(id); err != nil {
					r.logger.Warn("Failed to drop persisted tombstone", slog.Int64("player", id), slog.Any("error", err))
				}
			}
		}
	}

	// 3. Rebuild the table, local writes first. Offers dropped here must also
	// leave the store, or the next LoadPersisted would resurrect them.
	dropped := 0
	for id := range l.offers {
		if _, keep := retained[id]; keep {
			continue
		}
		dropped++
		if l.store != nil {
			if err := l.store.DeleteOffer(id); err != nil {
				r.logger.Warn("Failed to drop persisted offer", slog.Int64("player", id), slog.Any("error", err))
			}
		}
	}
	l.offers = make(map[int64]*domain.Offer, len(retained)+len(entries))
	for id, o := range retained {
		l.offers[id] = o
	}
	if dropped > 0 {
		r.logger.Debug("Dropped stale local offers", slog.Int("count", dropped))
	}

	// 4. Adopt remote-declared offers as ground truth.
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if remote := entry.LocalOffer(r.localTeamID); remote != nil {
			r.adoptLocked(entry.PlayerID, entry.PlayerName, remote, now)
			continue
		}

		// 5. Clause listings without an embedded offer: probe only our own
		// listings. The API rejects offer lookups on other teams' listings,
		// so those are never attempted.
		if entry.Kind == domain.ListingClause && entry.OwnerTeamID == r.localTeamID {
			r.probeListingLocked(ctx, entry, now)
		}
	}

	return nil
}

// adoptLocked inserts a remote-declared offer unless a fresh local write is
// already present or a tombstone is still suppressing the player.
func (r *Reconciler) adoptLocked(playerID int64, playerName string, remote *domain.RemoteOffer, now time.Time) {
	if _, ok := r.ledger.offers[playerID]; ok {
		return // local write wins
	}
	if r.ledger.tombstoneActiveLocked(playerID, now) {
		infra.GlobalMetrics.RecordTombstoneSuppression()
		r.logger.Debug("Suppressed resurrected offer", slog.Int64("player", playerID))
		return
	}
	r.ledger.setOfferLocked(playerID, remote.Amount, playerName, remote.OfferID, now)
}

// probeListingLocked looks up existing offers on one of our own clause
// listings. A miss is the common case and stays fully contained here.
func (r *Reconciler) probeListingLocked(ctx context.Context, entry *domain.MarketEntry, now time.Time) {
	offers, err := r.api.GetOffersForListing(ctx, r.leagueID, entry.ListingID)
	if err != nil {
		if errors.Is(err, domain.ErrLookupMiss) {
			infra.GlobalMetrics.RecordProbeMiss()
			return
		}
		// Transient transport trouble; the next poll retries anyway.
		r.logger.Debug("Offer probe failed", slog.Int64("listing", entry.ListingID), slog.Any("error", err))
		return
	}

	for i := range offers {
		remote := &offers[i]
		if remote.BidderTeamID != r.localTeamID {
			continue
		}
		r.adoptLocked(entry.PlayerID, entry.PlayerName, remote, now)
	}
}
