package domain

import (
	"errors"
	"fmt"
)

// ValidationError is raised client-side before any network call, when a bid
// would exceed the spendable amount. Shortfall is how much money is missing.
type ValidationError struct {
	PlayerID  int64
	Amount    int64
	Available int64
	Shortfall int64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("insufficient funds: bid %d exceeds available %d (short %d)",
		e.Amount, e.Available, e.Shortfall)
}

// NewValidationError builds a ValidationError with the computed shortfall.
func NewValidationError(playerID, amount, available int64) *ValidationError {
	return &ValidationError{
		PlayerID:  playerID,
		Amount:    amount,
		Available: available,
		Shortfall: amount - available,
	}
}

// IsValidation checks whether err is a client-side affordability rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RemoteRejection carries the server's own rejection reason. The message is
// surfaced verbatim so the user sees exactly what the server said.
type RemoteRejection struct {
	Op      string // operation that was rejected (e.g. "place_bid")
	Message string // server message, unmodified
}

func (e *RemoteRejection) Error() string {
	return e.Message
}

// IsRemoteRejection checks whether err is a server-side rejection.
func IsRemoteRejection(err error) bool {
	var rr *RemoteRejection
	return errors.As(err, &rr)
}

// InitializationError means no league/user/team could be resolved; the
// subsystem refuses to activate.
type InitializationError struct {
	Missing string // "league id", "user id", "team"
	Err     error
}

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return "initialization failed: missing " + e.Missing + ": " + e.Err.Error()
	}
	return "initialization failed: missing " + e.Missing
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoActiveOffer is returned when modify/cancel is requested for a
	// player without a confirmed offer.
	ErrNoActiveOffer = errors.New("no active offer for player")

	// ErrLookupMiss marks a per-listing offer probe that found nothing or
	// was refused for a listing the local team does not own. Expected and
	// silent; it never propagates past the reconciler.
	ErrLookupMiss = errors.New("offer lookup miss")

	// ErrConfigNotFound is returned when the configuration file is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)
