package market

import "github.com/orbitalworks/salvage-exchange/internal/model"

// CapacityLimiter bounds how many units a single seller may have listed
// per item type. This is an anti-spam heuristic, not a ledger invariant:
// it is checked against the most recently read snapshot, so two creates
// racing for the same seller can in theory both pass. That is accepted:
// the cap exists to bound abuse, not to account for stock.
type CapacityLimiter struct {
	// MaxUnits is the ceiling on summed active quantity per seller per
	// item type, new listing included.
	MaxUnits int
}

// NewCapacityLimiter creates a limiter with the given per-item ceiling.
func NewCapacityLimiter(maxUnits int) *CapacityLimiter {
	if maxUnits < 1 {
		maxUnits = 1
	}
	return &CapacityLimiter{MaxUnits: maxUnits}
}

// CheckListing validates a prospective listing against the seller's
// existing active listings. Returns nil when within the ceiling, or a
// *CapacityError naming the existing/requested/max quantities.
func (l *CapacityLimiter) CheckListing(sellerID, itemType string, quantity int, active []model.Listing) error {
	existing := 0
	for _, lst := range active {
		if lst.SellerID == sellerID && lst.ItemType == itemType {
			existing += lst.Quantity
		}
	}

	if existing+quantity > l.MaxUnits {
		return &CapacityError{
			ItemType:  itemType,
			Existing:  existing,
			Requested: quantity,
			Max:       l.MaxUnits,
		}
	}
	return nil
}
