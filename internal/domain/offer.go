package domain

import (
	"strconv"
	"time"
)

// Offer is the local user's monetary proposal against a market listing.
// All monetary values are strictly int64 (whole game-currency units).
type Offer struct {
	PlayerID      int64
	Amount        int64
	PlayerName    string
	RemoteOfferID int64 // 0 until the server has assigned one
	CreatedAt     time.Time
}

// Tombstone records that an offer was locally cancelled. It suppresses
// re-insertion of that offer from a stale remote snapshot until the grace
// window elapses.
type Tombstone struct {
	PlayerID    int64
	CancelledAt time.Time
}

// OfferState describes where a single player's offer sits in its lifecycle.
type OfferState string

const (
	OfferStateAbsent     OfferState = "ABSENT"
	OfferStatePending    OfferState = "PENDING"    // optimistic local, no remote id yet
	OfferStateConfirmed  OfferState = "CONFIRMED"  // remote id assigned
	OfferStateTombstoned OfferState = "TOMBSTONED" // cancelled, grace window running
)

// PendingOp marks an in-flight market-listing mutation so that UI-facing
// "is this player on the market" queries reflect the intent immediately.
type PendingOp string

const (
	PendingNone   PendingOp = ""
	PendingAdd    PendingOp = "add"
	PendingRemove PendingOp = "remove"
)

// Marker returns the wire-style pending marker, e.g. "add_1042".
func (p PendingOp) Marker(playerID int64) string {
	if p == PendingNone {
		return ""
	}
	return string(p) + "_" + strconv.FormatInt(playerID, 10)
}
