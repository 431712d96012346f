package domain

import (
	"context"
)

// MarketAPI is the remote manager-game API surface this subsystem consumes.
// It is purely a client of these operations; transport details live in infra.
type MarketAPI interface {
	GetCurrentUser(ctx context.Context) (int64, error)
	GetAccountCash(ctx context.Context, teamID int64) (int64, error)
	GetTeamData(ctx context.Context, leagueID, teamID int64) (*TeamData, error)
	GetLeagueRanking(ctx context.Context, leagueID int64) ([]RankingEntry, error)
	GetMarketSnapshot(ctx context.Context, leagueID int64) ([]*MarketEntry, error)
	GetOffersForListing(ctx context.Context, leagueID, listingID int64) ([]RemoteOffer, error)
	PlaceBid(ctx context.Context, leagueID, listingID, amount int64) (int64, error)
	ModifyBid(ctx context.Context, leagueID, listingID, offerID, newAmount int64) (int64, error)
	CancelBid(ctx context.Context, leagueID, listingID, offerID int64) error
	ListOnMarket(ctx context.Context, leagueID, teamEntryID, price int64) (int64, error)
	WithdrawFromMarket(ctx context.Context, leagueID, listingID int64) error
}

// SessionStore is the persistence bridge for offers and tombstones.
type SessionStore interface {
	SaveOffer(offer *StoredOffer) error
	DeleteOffer(playerID int64) error
	LoadOffers() ([]StoredOffer, error)
	SaveTombstone(tomb *StoredTombstone) error
	DeleteTombstone(playerID int64) error
	LoadTombstones() ([]StoredTombstone, error)
}

// View identifies a remote-backed view that can be force-refreshed after a
// mutation.
type View string

const (
	ViewMarket       View = "market"
	ViewRanking      View = "ranking"
	ViewOwnership    View = "ownership"
	ViewTeamMoney    View = "team_money"
	ViewTeamData     View = "team_data"
	ViewActivityFeed View = "activity_feed"
)

// MutationKind classifies a remote mutation for invalidation fan-out.
type MutationKind string

const (
	MutationPlaceBid       MutationKind = "place_bid"
	MutationModifyBid      MutationKind = "modify_bid"
	MutationCancelBid      MutationKind = "cancel_bid"
	MutationClausePurchase MutationKind = "clause_purchase"
	MutationOfferAccept    MutationKind = "offer_accept"
	MutationOfferDecline   MutationKind = "offer_decline"
	MutationListPlayer     MutationKind = "list_player"
	MutationWithdrawPlayer MutationKind = "withdraw_player"
)

// Refresher is implemented by the UI-facing layer; Refresh schedules a
// refetch of one remote-backed view.
type Refresher interface {
	Refresh(ctx context.Context, view View)
}
