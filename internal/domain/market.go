package domain

// ListingKind distinguishes free-agent sales from buyout-clause-eligible
// roster players.
type ListingKind string

const (
	ListingSale   ListingKind = "SALE"
	ListingClause ListingKind = "CLAUSE"
)

// RemoteOffer is an offer record as declared by the remote market.
type RemoteOffer struct {
	OfferID      int64
	Amount       int64
	BidderTeamID int64 // 0 when the API omits it on the viewer's own bid
	Status       string
}

// MarketEntry is the polled representation of one market listing.
// UserOffer, when present, is the bid record the server embedded for the
// requesting session.
type MarketEntry struct {
	ListingID   int64
	PlayerID    int64
	PlayerName  string
	OwnerTeamID int64 // 0 for free agents (league-owned listing)
	AskingPrice int64
	Kind        ListingKind
	UserOffer   *RemoteOffer
}

// LocalOffer returns the embedded offer when it belongs to the local user:
// either an explicit bidder-team match, or a direct-offer style record on an
// entry the local team does not own (those carry no bidder id).
func (e *MarketEntry) LocalOffer(localTeamID int64) *RemoteOffer {
	if e.UserOffer == nil {
		return nil
	}
	if e.UserOffer.BidderTeamID == localTeamID {
		return e.UserOffer
	}
	if e.UserOffer.BidderTeamID == 0 && e.OwnerTeamID != localTeamID {
		return e.UserOffer
	}
	return nil
}

// TeamData is the per-team snapshot from the remote account endpoints.
type TeamData struct {
	TeamID     int64
	AssetValue int64 // aggregate market value of the roster
	Roster     []RosterEntry
}

// RosterEntry is one player slot on a team, identified both by the player
// and by the team-entry id the listing endpoints operate on.
type RosterEntry struct {
	EntryID     int64
	PlayerID    int64
	PlayerName  string
	MarketValue int64
	ClausePrice int64
}

// RankingEntry is one row of the league ranking, used at initialization to
// resolve the local user's team id.
type RankingEntry struct {
	TeamID   int64
	UserID   int64
	TeamName string
	Position int
	Points   int
}
