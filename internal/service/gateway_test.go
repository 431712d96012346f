package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fantasy_go/internal/domain"
)

func newTestGateway(t *testing.T) (*Ledger, *Gateway, *fakeAPI) {
	t.Helper()
	l := NewLedger(LedgerOptions{})
	api := newFakeAPI()
	g := NewGateway(l, api, testLeagueID, NewCascade(nil))
	return l, g, api
}

// budgetIdentity checks availableMoneyForBids == cash + bonus - sum(offers).
func budgetIdentity(t *testing.T, l *Ledger, cash, assets int64) {
	t.Helper()
	var total int64
	for _, o := range l.AllOffers() {
		total += o.Amount
	}
	want := cash + l.TeamValueBonus() - total
	if want < 0 {
		want = 0
	}
	if got := l.AvailableMoneyForBids(); got != want {
		t.Errorf("Budget identity broken: got %d, want %d", got, want)
	}
	_ = assets
}

func TestGateway_PlaceBid_InsufficientFunds(t *testing.T) {
	l, g, api := newTestGateway(t)
	l.SetSnapshot(1_000_000, 0)

	err := g.PlaceBid(context.Background(), 1, 100, 2_000_000, "Pedri")
	if err == nil {
		t.Fatal("Expected a validation error")
	}
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if ve.Shortfall != 1_000_000 {
		t.Errorf("Expected shortfall 1000000, got %d", ve.Shortfall)
	}
	if api.placeBidCalls != 0 {
		t.Error("Validation failure must never reach the network")
	}
	if l.HasOffer(100) {
		t.Error("No offer must be recorded")
	}
}

func TestGateway_PlaceBid_Success(t *testing.T) {
	l, g, _ := newTestGateway(t)
	l.SetSnapshot(10_000_000, 0)

	if err := g.PlaceBid(context.Background(), 1, 100, 8_000_000, "Pedri"); err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}

	offer, ok := l.Offer(100)
	if !ok {
		t.Fatal("Offer should be recorded")
	}
	if offer.RemoteOfferID == 0 {
		t.Error("Offer should carry the server-assigned id")
	}
	if got := l.AvailableMoneyForBids(); got != 2_000_000 {
		t.Errorf("Expected 2000000 spendable, got %d", got)
	}
}

func TestGateway_PlaceBid_RemoteFailureLeavesStateUntouched(t *testing.T) {
	l, g, api := newTestGateway(t)
	l.SetSnapshot(10_000_000, 0)
	api.placeBidErr = &domain.RemoteRejection{Op: "place_bid", Message: "bid state invalid"}

	err := g.PlaceBid(context.Background(), 1, 100, 5_000_000, "Pedri")
	if err == nil {
		t.Fatal("Expected the remote rejection to propagate")
	}
	if l.HasOffer(100) {
		t.Error("Failed bid must not leave a local offer")
	}
	if l.ActiveTombstone(100) {
		t.Error("Failed bid must not create a tombstone")
	}
	if got := l.AvailableMoneyForBids(); got != 10_000_000 {
		t.Errorf("Budget must be untouched, got %d", got)
	}
}

func TestGateway_RemoteRejectionVerbatim(t *testing.T) {
	l, g, api := newTestGateway(t)
	l.SetSnapshot(10_000_000, 0)
	api.placeBidErr = &domain.RemoteRejection{Op: "place_bid", Message: "Saldo insuficiente"}

	err := g.PlaceBid(context.Background(), 1, 100, 5_000_000, "Pedri")
	if err == nil || err.Error() != "Saldo insuficiente" {
		t.Errorf("Server message must surface unmodified, got %v", err)
	}
}

func TestGateway_ModifyBid_Affordability(t *testing.T) {
	l, g, api := newTestGateway(t)
	l.SetSnapshot(10_000_000, 0)

	if err := g.PlaceBid(context.Background(), 1, 100, 6_000_000, "Pedri"); err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}

	// 9M <= 10M - 6M + 6M: the current offer is added back before comparing.
	if err := g.ModifyBid(context.Background(), 1, 100, 9_000_000, ""); err != nil {
		t.Fatalf("ModifyBid(9M) should succeed: %v", err)
	}
	if got := l.OfferAmount(100); got != 9_000_000 {
		t.Errorf("Expected amount 9000000, got %d", got)
	}

	calls := api.modifyCalls
	err := g.ModifyBid(context.Background(), 1, 100, 11_000_000, "")
	if !domain.IsValidation(err) {
		t.Fatalf("ModifyBid(11M) should fail validation, got %v", err)
	}
	if api.modifyCalls != calls {
		t.Error("Rejected modify must not reach the network")
	}
	if got := l.OfferAmount(100); got != 9_000_000 {
		t.Errorf("Amount must be unchanged, got %d", got)
	}
}

func TestGateway_ModifyBid_RequiresExistingOffer(t *testing.T) {
	l, g, _ := newTestGateway(t)
	l.SetSnapshot(10_000_000, 0)

	err := g.ModifyBid(context.Background(), 1, 100, 1_000_000, "")
	if !errors.Is(err, domain.ErrNoActiveOffer) {
		t.Errorf("Expected ErrNoActiveOffer, got %v", err)
	}
}

func TestGateway_ModifyBid_PreservesRemoteID(t *testing.T) {
	l, g, _ := newTestGateway(t)
	l.SetSnapshot(10_000_000, 0)

	if err := g.PlaceBid(context.Background(), 1, 100, 2_000_000, "Pedri"); err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}
	before, _ := l.Offer(100)

	if err := g.ModifyBid(context.Background(), 1, 100, 3_000_000, ""); err != nil {
		t.Fatalf("ModifyBid failed: %v", err)
	}
	after, _ := l.Offer(100)

	if after.RemoteOfferID != before.RemoteOfferID {
		t.Errorf("Remote id must be preserved: %d vs %d", after.RemoteOfferID, before.RemoteOfferID)
	}
	if after.PlayerName != "Pedri" {
		t.Errorf("Display name should carry over, got %q", after.PlayerName)
	}
}

func TestGateway_CancelBid(t *testing.T) {
	l, g, api := newTestGateway(t)
	l.SetSnapshot(10_000_000, 0)

	if err := g.PlaceBid(context.Background(), 1, 100, 5_000_000, "Pedri"); err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}
	if err := g.CancelBid(context.Background(), 1, 100); err != nil {
		t.Fatalf("CancelBid failed: %v", err)
	}

	if l.HasOffer(100) {
		t.Error("Offer should be cleared")
	}
	if !l.ActiveTombstone(100) {
		t.Error("Cancel must create a tombstone")
	}

	// Cancel with nothing live
	err := g.CancelBid(context.Background(), 1, 100)
	if !errors.Is(err, domain.ErrNoActiveOffer) {
		t.Errorf("Expected ErrNoActiveOffer, got %v", err)
	}
	_ = api
}

func TestGateway_CancelBid_RemoteFailureKeepsOffer(t *testing.T) {
	l, g, api := newTestGateway(t)
	l.SetSnapshot(10_000_000, 0)

	if err := g.PlaceBid(context.Background(), 1, 100, 5_000_000, "Pedri"); err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}

	api.cancelBidErr = &domain.RemoteRejection{Op: "cancel_bid", Message: "offer already settled"}
	if err := g.CancelBid(context.Background(), 1, 100); err == nil {
		t.Fatal("Expected rejection to propagate")
	}

	if !l.HasOffer(100) {
		t.Error("Offer must survive a failed cancel")
	}
	if l.ActiveTombstone(100) {
		t.Error("No tombstone on a failed cancel")
	}
}

func TestGateway_BudgetIdentity(t *testing.T) {
	l, g, _ := newTestGateway(t)
	const cash, assets = 50_000_000, 100_000_000
	l.SetSnapshot(cash, assets)

	ctx := context.Background()
	budgetIdentity(t, l, cash, assets)

	if err := g.PlaceBid(ctx, 1, 100, 12_000_000, "Pedri"); err != nil {
		t.Fatal(err)
	}
	budgetIdentity(t, l, cash, assets)

	if err := g.PlaceBid(ctx, 2, 101, 20_000_000, "Gavi"); err != nil {
		t.Fatal(err)
	}
	budgetIdentity(t, l, cash, assets)

	if err := g.ModifyBid(ctx, 1, 100, 25_000_000, ""); err != nil {
		t.Fatal(err)
	}
	budgetIdentity(t, l, cash, assets)

	if err := g.CancelBid(ctx, 2, 101); err != nil {
		t.Fatal(err)
	}
	budgetIdentity(t, l, cash, assets)
}

func TestGateway_PendingMarkerDuringListing(t *testing.T) {
	_, g, api := newTestGateway(t)
	api.listGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := g.ListOnMarket(context.Background(), 500, 42, 7_000_000)
		done <- err
	}()

	// Marker must be visible while the remote call is in flight.
	deadline := time.After(2 * time.Second)
	for g.PendingOp(42) != domain.PendingAdd {
		select {
		case <-deadline:
			t.Fatal("Pending marker never appeared")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(api.listGate)
	if err := <-done; err != nil {
		t.Fatalf("ListOnMarket failed: %v", err)
	}

	if g.PendingOp(42) != domain.PendingNone {
		t.Error("Marker must be cleared on completion")
	}
}

func TestGateway_PendingMarkerClearedOnFailure(t *testing.T) {
	l, g, api := newTestGateway(t)
	api.withdrawErr = &domain.RemoteRejection{Op: "withdraw_player", Message: "not listed"}

	if err := g.WithdrawFromMarket(context.Background(), 600, 42); err == nil {
		t.Fatal("Expected rejection")
	}
	if g.PendingOp(42) != domain.PendingNone {
		t.Error("Marker must be cleared on failure")
	}
	if l.HasOffer(42) || l.ActiveTombstone(42) {
		t.Error("Failed withdraw must not touch offer state")
	}
}
