package service

import (
	"log/slog"
	"sync"
	"time"

	"fantasy_go/internal/domain"
	"fantasy_go/internal/infra"
	"fantasy_go/pkg/safe"

	"github.com/shopspring/decimal"
)

// Tunable defaults. Observed values from the live service; treat them as
// starting points, not load-bearing exact numbers.
const (
	DefaultGraceWindow       = 5 * time.Minute
	DefaultCashCeiling       = 1_000_000_000
	DefaultAssetValueCeiling = 10_000_000_000
)

// DefaultBonusRatio is the borrowing bonus on top of cash: 20% of the team's
// aggregate asset value.
var DefaultBonusRatio = decimal.NewFromFloat(0.20)

// Ledger owns the budget snapshot, the offer table and the tombstone set for
// one account in one league. One instance per session, constructed at session
// start and injected wherever needed (no package-level singleton, so tests
// and multiple leagues get isolated instances).
//
// All access goes through one mutex: the reconciler and the mutation gateway
// never interleave their local-state updates, which is the property the
// whole design depends on. Remote calls are made outside the lock.
type Ledger struct {
	mu sync.Mutex

	// Budget snapshot (raw remote inputs)
	cash       int64
	assetValue int64
	loaded     bool

	// Locally-authoritative state
	offers     map[int64]*domain.Offer      // playerID -> live offer
	tombstones map[int64]domain.Tombstone   // playerID -> local cancel record

	bonusRatio   decimal.Decimal
	graceWindow  time.Duration
	cashCeiling  int64
	assetCeiling int64

	store  domain.SessionStore // optional write-through persistence
	logger *slog.Logger
	now    func() time.Time
}

// LedgerOptions configures a Ledger. Zero values fall back to defaults.
type LedgerOptions struct {
	BonusRatio   decimal.Decimal
	GraceWindow  time.Duration
	CashCeiling  int64
	AssetCeiling int64
	Store        domain.SessionStore
}

// NewLedger creates an empty ledger for one session.
func NewLedger(opts LedgerOptions) *Ledger {
	l := &Ledger{
		offers:       make(map[int64]*domain.Offer),
		tombstones:   make(map[int64]domain.Tombstone),
		bonusRatio:   opts.BonusRatio,
		graceWindow:  opts.GraceWindow,
		cashCeiling:  opts.CashCeiling,
		assetCeiling: opts.AssetCeiling,
		store:        opts.Store,
		logger:       slog.Default().With("module", "ledger"),
		now:          time.Now,
	}
	if l.bonusRatio.IsZero() {
		l.bonusRatio = DefaultBonusRatio
	}
	if l.graceWindow <= 0 {
		l.graceWindow = DefaultGraceWindow
	}
	if l.cashCeiling <= 0 {
		l.cashCeiling = DefaultCashCeiling
	}
	if l.assetCeiling <= 0 {
		l.assetCeiling = DefaultAssetValueCeiling
	}
	return l
}

// GraceWindow returns the window during which a local write is trusted over
// a conflicting remote read.
func (l *Ledger) GraceWindow() time.Duration {
	return l.graceWindow
}

// SetSnapshot stores the two raw money inputs from the remote account
// endpoints. Implausible values are clamped to the sanity ceilings so corrupt
// upstream data cannot poison downstream arithmetic; a clamp is logged and
// counted because upstream corruption must stay observable.
func (l *Ledger) SetSnapshot(cash, teamAssetValue int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	clampedCash, hit := safe.ClampMax(cash, l.cashCeiling)
	if hit {
		l.logger.Warn("Cash balance clamped to sanity ceiling",
			slog.Int64("raw", cash), slog.Int64("ceiling", l.cashCeiling))
		infra.GlobalMetrics.RecordClamp()
	}

	clampedAssets, hit := safe.ClampMax(teamAssetValue, l.assetCeiling)
	if hit {
		l.logger.Warn("Team asset value clamped to sanity ceiling",
			slog.Int64("raw", teamAssetValue), slog.Int64("ceiling", l.assetCeiling))
		infra.GlobalMetrics.RecordClamp()
	}

	l.cash = clampedCash
	l.assetValue = clampedAssets
	l.loaded = true
}

// TotalBidAmount returns the sum of all live offer amounts.
func (l *Ledger) TotalBidAmount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalBidLocked()
}

// AvailableMoney returns cash minus the total committed to live offers,
// floored at zero. Before the first snapshot it returns 0: callers treat
// "not yet loaded" identically to "zero".
func (l *Ledger) AvailableMoney() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		return 0
	}
	avail := safe.SafeSub(l.cash, l.totalBidLocked())
	if avail < 0 {
		return 0
	}
	return avail
}

// TeamValueBonus returns floor(teamAssetValue * bonusRatio).
func (l *Ledger) TeamValueBonus() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bonusLocked()
}

// AvailableMoneyForBids returns the full spendable amount: cash plus the
// team-value bonus minus the total committed to live offers, floored at zero.
func (l *Ledger) AvailableMoneyForBids() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.availableForBidsLocked()
}

func (l *Ledger) totalBidLocked() int64 {
	var total int64
	for _, o := range l.offers {
		total = safe.SafeAdd(total, o.Amount)
	}
	return total
}

func (l *Ledger) bonusLocked() int64 {
	if !l.loaded {
		return 0
	}
	return l.bonusRatio.Mul(decimal.NewFromInt(l.assetValue)).Floor().IntPart()
}

func (l *Ledger) availableForBidsLocked() int64 {
	if !l.loaded {
		return 0
	}
	avail := safe.SafeSub(safe.SafeAdd(l.cash, l.bonusLocked()), l.totalBidLocked())
	if avail < 0 {
		return 0
	}
	return avail
}

// HasOffer reports whether the user has a live offer on the player.
func (l *Ledger) HasOffer(playerID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.offers[playerID]
	return ok
}

// OfferAmount returns the live offer amount for the player, or 0.
func (l *Ledger) OfferAmount(playerID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o, ok := l.offers[playerID]; ok {
		return o.Amount
	}
	return 0
}

// Offer returns a copy of the live offer for the player, if any.
func (l *Ledger) Offer(playerID int64) (domain.Offer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o, ok := l.offers[playerID]; ok {
		return *o, true
	}
	return domain.Offer{}, false
}

// SetOffer inserts or overwrites the offer for a player and stamps
// CreatedAt with the current time. At most one offer per player.
func (l *Ledger) SetOffer(playerID, amount int64, playerName string, remoteOfferID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setOfferLocked(playerID, amount, playerName, remoteOfferID, l.now())
}

func (l *Ledger) setOfferLocked(playerID, amount int64, playerName string, remoteOfferID int64, at time.Time) {
	l.offers[playerID] = &domain.Offer{
		PlayerID:      playerID,
		Amount:        amount,
		PlayerName:    playerName,
		RemoteOfferID: remoteOfferID,
		CreatedAt:     at,
	}
	if l.store != nil {
		err := l.store.SaveOffer(&domain.StoredOffer{
			PlayerID:      playerID,
			Amount:        amount,
			PlayerName:    playerName,
			RemoteOfferID: remoteOfferID,
			CreatedAt:     at,
		})
		if err != nil {
			l.logger.Warn("Failed to persist offer", slog.Int64("player", playerID), slog.Any("error", err))
		}
	}
}

// ClearOffer removes the offer for a player and inserts (or refreshes) a
// tombstone at the current time. This is the only tombstone-creating path.
func (l *Ledger) ClearOffer(playerID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearOfferLocked(playerID, l.now())
}

func (l *Ledger) clearOfferLocked(playerID int64, at time.Time) {
	delete(l.offers, playerID)
	l.tombstones[playerID] = domain.Tombstone{PlayerID: playerID, CancelledAt: at}
	if l.store != nil {
		if err := l.store.DeleteOffer(playerID); err != nil {
			l.logger.Warn("Failed to delete persisted offer", slog.Int64("player", playerID), slog.Any("error", err))
		}
		err := l.store.SaveTombstone(&domain.StoredTombstone{PlayerID: playerID, CancelledAt: at})
		if err != nil {
			l.logger.Warn("Failed to persist tombstone", slog.Int64("player", playerID), slog.Any("error", err))
		}
	}
}

// AllOffers returns a snapshot of all live offers. No iteration-order
// guarantee; callers must not assume one.
func (l *Ledger) AllOffers() []domain.Offer {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]domain.Offer, 0, len(l.offers))
	for _, o := range l.offers {
		result = append(result, *o)
	}
	return result
}

// ActiveTombstone reports whether the player has a tombstone younger than
// the grace window.
func (l *Ledger) ActiveTombstone(playerID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tombstoneActiveLocked(playerID, l.now())
}

func (l *Ledger) tombstoneActiveLocked(playerID int64, now time.Time) bool {
	tomb, ok := l.tombstones[playerID]
	if !ok {
		return false
	}
	return now.Sub(tomb.CancelledAt) <= l.graceWindow
}

// OfferState answers where a player's offer sits in its lifecycle:
// absent -> pending -> confirmed -> tombstoned -> absent.
func (l *Ledger) OfferState(playerID int64) domain.OfferState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tombstoneActiveLocked(playerID, l.now()) {
		return domain.OfferStateTombstoned
	}
	if o, ok := l.offers[playerID]; ok {
		if o.RemoteOfferID != 0 {
			return domain.OfferStateConfirmed
		}
		return domain.OfferStatePending
	}
	return domain.OfferStateAbsent
}

// LoadPersisted restores offers and tombstones saved by a previous session.
// Call once at bootstrap, before the first reconcile.
func (l *Ledger) LoadPersisted() error {
	if l.store == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	offers, err := l.store.LoadOffers()
	if err != nil {
		return err
	}
	for _, so := range offers {
		l.offers[so.PlayerID] = &domain.Offer{
			PlayerID:      so.PlayerID,
			Amount:        so.Amount,
			PlayerName:    so.PlayerName,
			RemoteOfferID: so.RemoteOfferID,
			CreatedAt:     so.CreatedAt,
		}
	}

	tombs, err := l.store.LoadTombstones()
	if err != nil {
		return err
	}
	for _, st := range tombs {
		l.tombstones[st.PlayerID] = domain.Tombstone{PlayerID: st.PlayerID, CancelledAt: st.CancelledAt}
	}

	l.logger.Info("Restored persisted session state",
		slog.Int("offers", len(offers)), slog.Int("tombstones", len(tombs)))
	return nil
}
