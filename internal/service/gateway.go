package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fantasy_go/internal/domain"
	"fantasy_go/internal/infra"

	"github.com/google/uuid"
)

// Gateway is the only component that calls the remote market-mutation
// operations. Every mutation is checked against the ledger before the call;
// local state changes only after the remote call succeeds, so a failure
// leaves the ledger exactly as it was.
//
// Affordability checks here are advisory: another mutation's remote call may
// be in flight concurrently, and the server's own rejection is the final
// word. That is why the check happens outside the ledger lock and the server
// message is surfaced verbatim.
type Gateway struct {
	ledger   *Ledger
	api      domain.MarketAPI
	leagueID int64
	cascade  *Cascade

	mu      sync.Mutex
	pending map[int64]domain.PendingOp

	logger *slog.Logger
}

// NewGateway creates the mutation gateway for one session.
func NewGateway(ledger *Ledger, api domain.MarketAPI, leagueID int64, cascade *Cascade) *Gateway {
	return &Gateway{
		ledger:   ledger,
		api:      api,
		leagueID: leagueID,
		cascade:  cascade,
		pending:  make(map[int64]domain.PendingOp),
		logger:   slog.Default().With("module", "gateway"),
	}
}

// PlaceBid places a new bid on a listing. Fails fast with a ValidationError
// when the amount exceeds the spendable budget; on remote success the offer
// is recorded with the server-assigned id.
func (g *Gateway) PlaceBid(ctx context.Context, listingID, playerID, amount int64, playerName string) error {
	available := g.ledger.AvailableMoneyForBids()
	if amount > available {
		return domain.NewValidationError(playerID, amount, available)
	}

	opID := uuid.NewString()
	g.logger.Info("Placing bid",
		slog.String("op", opID), slog.Int64("player", playerID), slog.Int64("amount", amount))

	offerID, err := g.api.PlaceBid(ctx, g.leagueID, listingID, amount)
	if err != nil {
		g.logger.Warn("Bid rejected", slog.String("op", opID), slog.Any("error", err))
		return err
	}

	g.ledger.SetOffer(playerID, amount, playerName, offerID)
	infra.GlobalMetrics.RecordMutation()
	g.cascade.Invalidate(ctx, domain.MutationPlaceBid)
	return nil
}

// ModifyBid changes the amount of an existing confirmed offer. The current
// amount is added back before the affordability comparison, since it is
// already subtracted from the ledger's spendable figure.
func (g *Gateway) ModifyBid(ctx context.Context, listingID, playerID, newAmount int64, playerName string) error {
	current, ok := g.ledger.Offer(playerID)
	if !ok || current.RemoteOfferID == 0 {
		return fmt.Errorf("%w: player %d", domain.ErrNoActiveOffer, playerID)
	}

	budget := g.ledger.AvailableMoneyForBids() + current.Amount
	if newAmount > budget {
		return domain.NewValidationError(playerID, newAmount, budget)
	}

	opID := uuid.NewString()
	g.logger.Info("Modifying bid",
		slog.String("op", opID), slog.Int64("player", playerID),
		slog.Int64("from", current.Amount), slog.Int64("to", newAmount))

	offerID, err := g.api.ModifyBid(ctx, g.leagueID, listingID, current.RemoteOfferID, newAmount)
	if err != nil {
		g.logger.Warn("Modify rejected", slog.String("op", opID), slog.Any("error", err))
		return err
	}
	if offerID == 0 {
		offerID = current.RemoteOfferID
	}

	if playerName == "" {
		playerName = current.PlayerName
	}
	g.ledger.SetOffer(playerID, newAmount, playerName, offerID)
	infra.GlobalMetrics.RecordMutation()
	g.cascade.Invalidate(ctx, domain.MutationModifyBid)
	return nil
}

// CancelBid withdraws an existing confirmed offer. On remote success the
// offer is cleared and a tombstone starts the grace window; this is the only
// tombstone-creating path.
func (g *Gateway) CancelBid(ctx context.Context, listingID, playerID int64) error {
	current, ok := g.ledger.Offer(playerID)
	if !ok || current.RemoteOfferID == 0 {
		return fmt.Errorf("%w: player %d", domain.ErrNoActiveOffer, playerID)
	}

	opID := uuid.NewString()
	g.logger.Info("Cancelling bid",
		slog.String("op", opID), slog.Int64("player", playerID), slog.Int64("amount", current.Amount))

	if err := g.api.CancelBid(ctx, g.leagueID, listingID, current.RemoteOfferID); err != nil {
		g.logger.Warn("Cancel rejected", slog.String("op", opID), slog.Any("error", err))
		return err
	}

	g.ledger.ClearOffer(playerID)
	infra.GlobalMetrics.RecordMutation()
	g.cascade.Invalidate(ctx, domain.MutationCancelBid)
	return nil
}

// ListOnMarket puts one of our roster players up for sale. A pending marker
// is visible for the duration of the call so "is this player on the market"
// queries reflect the intent immediately, without waiting for the next poll.
func (g *Gateway) ListOnMarket(ctx context.Context, teamEntryID, playerID, price int64) (int64, error) {
	g.setPending(playerID, domain.PendingAdd)
	defer g.clearPending(playerID)

	opID := uuid.NewString()
	g.logger.Info("Listing player on market",
		slog.String("op", opID),
		slog.String("marker", domain.PendingAdd.Marker(playerID)),
		slog.Int64("price", price))

	listingID, err := g.api.ListOnMarket(ctx, g.leagueID, teamEntryID, price)
	if err != nil {
		g.logger.Warn("Listing rejected", slog.String("op", opID), slog.Any("error", err))
		return 0, err
	}

	infra.GlobalMetrics.RecordMutation()
	g.cascade.Invalidate(ctx, domain.MutationListPlayer)
	return listingID, nil
}

// WithdrawFromMarket removes one of our listings. Same pending-marker
// contract as ListOnMarket.
func (g *Gateway) WithdrawFromMarket(ctx context.Context, listingID, playerID int64) error {
	g.setPending(playerID, domain.PendingRemove)
	defer g.clearPending(playerID)

	opID := uuid.NewString()
	g.logger.Info("Withdrawing player from market",
		slog.String("op", opID),
		slog.String("marker", domain.PendingRemove.Marker(playerID)))

	if err := g.api.WithdrawFromMarket(ctx, g.leagueID, listingID); err != nil {
		g.logger.Warn("Withdraw rejected", slog.String("op", opID), slog.Any("error", err))
		return err
	}

	infra.GlobalMetrics.RecordMutation()
	g.cascade.Invalidate(ctx, domain.MutationWithdrawPlayer)
	return nil
}

// PendingOp reports an in-flight listing mutation for the player, if any.
func (g *Gateway) PendingOp(playerID int64) domain.PendingOp {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending[playerID]
}

// OfferState answers the lifecycle question for a player's offer.
func (g *Gateway) OfferState(playerID int64) domain.OfferState {
	return g.ledger.OfferState(playerID)
}

func (g *Gateway) setPending(playerID int64, op domain.PendingOp) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending[playerID] = op
}

func (g *Gateway) clearPending(playerID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, playerID)
}
