package market

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation wraps malformed or out-of-range input. Never retried.
	ErrValidation = errors.New("market: invalid request")

	// ErrNotFound means the listing is absent or already finalized. This
	// is a terminal business fact, not a transient condition.
	ErrNotFound = errors.New("market: listing not found or already sold")

	// ErrSelfTrade rejects a buyer purchasing their own listing.
	ErrSelfTrade = errors.New("market: cannot buy your own listing")

	// ErrForbidden rejects a cancel from someone other than the seller.
	ErrForbidden = errors.New("market: listing belongs to another seller")

	// ErrConflict is surfaced when the CAS retry budget is exhausted,
	// regardless of operation. The caller lost the race; re-browsing and
	// retrying is safe. The boundary phrases it per operation.
	ErrConflict = errors.New("market: lost concurrent update race")

	// ErrStoreUnavailable wraps document store failures that are not
	// version conflicts.
	ErrStoreUnavailable = errors.New("market: document store unavailable")
)

// CapacityError reports the per-seller per-item-type listing ceiling.
// It carries the quantities a client needs to explain the rejection.
type CapacityError struct {
	ItemType  string
	Existing  int
	Requested int
	Max       int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf(
		"market: listing cap exceeded for %s: %d active + %d requested > %d max",
		e.ItemType, e.Existing, e.Requested, e.Max)
}

// PriceChangedError reports a mismatch between the price the buyer
// quoted and the listing's current asking price.
type PriceChangedError struct {
	Current  int64
	Expected int64
}

func (e *PriceChangedError) Error() string {
	return fmt.Sprintf("market: price changed: current %d, expected %d", e.Current, e.Expected)
}
