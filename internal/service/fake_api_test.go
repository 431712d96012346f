package service

import (
	"context"
	"sync"

	"fantasy_go/internal/domain"
)

// fakeAPI is a scriptable in-memory stand-in for the remote manager API.
type fakeAPI struct {
	mu sync.Mutex

	placeBidErr   error
	modifyBidErr  error
	cancelBidErr  error
	listErr       error
	withdrawErr   error
	offersByList  map[int64][]domain.RemoteOffer
	offersErr     error
	nextOfferID   int64
	nextListingID int64

	placeBidCalls int
	modifyCalls   int
	cancelCalls   int
	probeCalls    int

	// listGate, when set, blocks ListOnMarket until closed.
	listGate chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		offersByList:  make(map[int64][]domain.RemoteOffer),
		nextOfferID:   9000,
		nextListingID: 5000,
	}
}

func (f *fakeAPI) GetCurrentUser(ctx context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeAPI) GetAccountCash(ctx context.Context, teamID int64) (int64, error) {
	return 0, nil
}

func (f *fakeAPI) GetTeamData(ctx context.Context, leagueID, teamID int64) (*domain.TeamData, error) {
	return &domain.TeamData{TeamID: teamID}, nil
}

func (f *fakeAPI) GetLeagueRanking(ctx context.Context, leagueID int64) ([]domain.RankingEntry, error) {
	return nil, nil
}

func (f *fakeAPI) GetMarketSnapshot(ctx context.Context, leagueID int64) ([]*domain.MarketEntry, error) {
	return nil, nil
}

func (f *fakeAPI) GetOffersForListing(ctx context.Context, leagueID, listingID int64) ([]domain.RemoteOffer, error) {
	f.mu.Lock()
	f.probeCalls++
	offers, ok := f.offersByList[listingID]
	err := f.offersErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok || len(offers) == 0 {
		return nil, domain.ErrLookupMiss
	}
	return offers, nil
}

func (f *fakeAPI) PlaceBid(ctx context.Context, leagueID, listingID, amount int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placeBidCalls++
	if f.placeBidErr != nil {
		return 0, f.placeBidErr
	}
	f.nextOfferID++
	return f.nextOfferID, nil
}

func (f *fakeAPI) ModifyBid(ctx context.Context, leagueID, listingID, offerID, newAmount int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modifyCalls++
	if f.modifyBidErr != nil {
		return 0, f.modifyBidErr
	}
	return offerID, nil
}

func (f *fakeAPI) CancelBid(ctx context.Context, leagueID, listingID, offerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return f.cancelBidErr
}

func (f *fakeAPI) ListOnMarket(ctx context.Context, leagueID, teamEntryID, price int64) (int64, error) {
	if f.listGate != nil {
		<-f.listGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return 0, f.listErr
	}
	f.nextListingID++
	return f.nextListingID, nil
}

func (f *fakeAPI) WithdrawFromMarket(ctx context.Context, leagueID, listingID int64) error {
	return f.withdrawErr
}
