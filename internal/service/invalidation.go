package service

import (
	"context"
	"log/slog"

	"fantasy_go/internal/domain"
)

// cascadeTable maps each mutation kind to the remote-backed views it can
// have affected. The scoping matters: the remote API is rate-limited, and a
// blanket refresh-everything after every mutation would multiply calls for
// no benefit. Bid mutations change no ownership, so only the market view
// moves; ownership-changing mutations ripple everywhere.
var cascadeTable = map[domain.MutationKind][]domain.View{
	domain.MutationPlaceBid:  {domain.ViewMarket},
	domain.MutationModifyBid: {domain.ViewMarket},
	domain.MutationCancelBid: {domain.ViewMarket},

	domain.MutationClausePurchase: {
		domain.ViewMarket, domain.ViewRanking, domain.ViewOwnership,
		domain.ViewTeamMoney, domain.ViewTeamData, domain.ViewActivityFeed,
	},
	domain.MutationOfferAccept: {
		domain.ViewMarket, domain.ViewRanking, domain.ViewOwnership,
		domain.ViewTeamMoney, domain.ViewTeamData, domain.ViewActivityFeed,
	},
	domain.MutationOfferDecline: {
		domain.ViewMarket, domain.ViewRanking, domain.ViewOwnership,
		domain.ViewTeamMoney, domain.ViewTeamData, domain.ViewActivityFeed,
	},

	domain.MutationListPlayer:     {domain.ViewMarket, domain.ViewTeamData},
	domain.MutationWithdrawPlayer: {domain.ViewMarket, domain.ViewTeamData},
}

// ViewsFor returns the views to force-refresh after a mutation kind.
func ViewsFor(kind domain.MutationKind) []domain.View {
	views := cascadeTable[kind]
	out := make([]domain.View, len(views))
	copy(out, views)
	return out
}

// Cascade fans refresh requests out to the UI-facing refresher. Pure fan-out,
// no logic of its own.
type Cascade struct {
	refresher domain.Refresher
	logger    *slog.Logger
}

// NewCascade creates a cascade. A nil refresher is allowed (headless use);
// refreshes are then dropped.
func NewCascade(refresher domain.Refresher) *Cascade {
	return &Cascade{
		refresher: refresher,
		logger:    slog.Default().With("module", "cascade"),
	}
}

// Invalidate triggers a refresh of every view the mutation kind can have
// affected.
func (c *Cascade) Invalidate(ctx context.Context, kind domain.MutationKind) {
	views := cascadeTable[kind]
	if len(views) == 0 {
		c.logger.Warn("No cascade entry for mutation kind", slog.String("kind", string(kind)))
		return
	}
	if c.refresher == nil {
		return
	}
	for _, view := range views {
		c.refresher.Refresh(ctx, view)
	}
}
