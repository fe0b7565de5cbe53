// Package market implements the marketplace ledger: create, browse, buy,
// and cancel trade listings held in a single shared document, with
// at-most-one-buyer guaranteed purely by the document store's conditional
// writes. There are no in-process locks; any number of replicas may run
// concurrently against the same store.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orbitalworks/salvage-exchange/internal/docstore"
	"github.com/orbitalworks/salvage-exchange/internal/metrics"
	"github.com/orbitalworks/salvage-exchange/internal/model"
)

// Document keys in the store.
const (
	listingsKey = "trading/listings"
	tradesKey   = "trading/completed_trades"
)

// maxAttempts bounds the read-modify-CAS-write loop. Exhausting it means
// the caller kept losing races and gets ErrConflict, which is safe to
// retry at a higher level.
const maxAttempts = 3

// DefaultMaxUnitsPerItemType is the per-seller active-quantity ceiling
// per item type.
const DefaultMaxUnitsPerItemType = 50

// Ledger owns every listing and trade state transition. All coordination
// is delegated to the document store's compare-and-swap primitive.
type Ledger struct {
	store docstore.Store
	caps  *CapacityLimiter
	now   func() time.Time
}

// NewLedger creates a ledger over the given document store with the
// default capacity ceiling.
func NewLedger(store docstore.Store) *Ledger {
	return &Ledger{
		store: store,
		caps:  NewCapacityLimiter(DefaultMaxUnitsPerItemType),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateListingParams carries the caller-supplied fields for a new
// listing. Identifiers are trusted as given.
type CreateListingParams struct {
	SellerID    string
	SellerName  string
	ItemType    string
	ItemName    string
	Quantity    int
	AskingPrice int64
	Description string
}

func (p *CreateListingParams) validate() error {
	required := []struct{ name, value string }{
		{"seller_id", p.SellerID},
		{"seller_name", p.SellerName},
		{"item_type", p.ItemType},
		{"item_name", p.ItemName},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: missing required field: %s", ErrValidation, f.name)
		}
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	}
	if p.AskingPrice <= 0 {
		return fmt.Errorf("%w: asking_price must be a positive integer", ErrValidation)
	}
	return nil
}

// CreateListing validates the request, enforces the per-seller capacity
// ceiling against the freshest snapshot, and appends the new listing via
// the CAS loop. Returns the created listing.
func (l *Ledger) CreateListing(ctx context.Context, p CreateListingParams) (*model.Listing, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	listing := model.Listing{
		ListingID:   uuid.New().String(),
		SellerID:    p.SellerID,
		SellerName:  p.SellerName,
		ItemType:    p.ItemType,
		ItemName:    p.ItemName,
		Quantity:    p.Quantity,
		AskingPrice: p.AskingPrice,
		Description: p.Description,
		Status:      model.StatusActive,
		CreatedAt:   l.now(),
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, ver, err := l.store.Get(ctx, listingsKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		coll, err := DecodeListings(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		// Capacity is re-checked each attempt so it always reflects the
		// snapshot we are about to extend.
		if err := l.caps.CheckListing(p.SellerID, p.ItemType, p.Quantity, coll.Active()); err != nil {
			return nil, err
		}

		coll.Append(listing)

		switch err := l.writeListings(ctx, coll, ver); {
		case err == nil:
			metrics.ListingsActive.Set(float64(len(coll.Active())))
			slog.Info("listing created",
				"listing_id", listing.ListingID,
				"seller", listing.SellerID,
				"item", listing.ItemName,
				"quantity", listing.Quantity,
				"asking_price", listing.AskingPrice,
			)
			return &listing, nil
		case errors.Is(err, docstore.ErrVersionConflict):
			metrics.CASConflicts.WithLabelValues("create").Inc()
			continue
		default:
			// Write outcome unknown: check whether our listing landed
			// before reporting failure.
			if l.listingExists(ctx, listing.ListingID) {
				return &listing, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	metrics.CASExhausted.WithLabelValues("create").Inc()
	return nil, ErrConflict
}

// BuyParams identifies the buyer. ExpectedPrice, when set, must match
// the listing's asking price or the buy is rejected; it protects buyers
// holding a stale client cache of a replaced listing.
type BuyParams struct {
	BuyerID       string
	BuyerName     string
	ExpectedPrice *int64
}

// BuyListing sells the listing to the caller, guaranteeing at most one
// winner per listing. Losing racers observe ErrNotFound (read after the
// winner's commit) or ErrConflict (retry budget exhausted).
func (l *Ledger) BuyListing(ctx context.Context, listingID string, p BuyParams) (*model.Trade, error) {
	if listingID == "" {
		return nil, fmt.Errorf("%w: missing listing ID", ErrValidation)
	}
	if p.BuyerID == "" || p.BuyerName == "" {
		return nil, fmt.Errorf("%w: missing buyer_id or buyer_name", ErrValidation)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, ver, err := l.store.Get(ctx, listingsKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		coll, err := DecodeListings(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		target := coll.FindActive(listingID)
		if target == nil {
			// Terminal business outcome, not a conflict: the listing is
			// gone or already finalized. No retry.
			return nil, ErrNotFound
		}
		if target.SellerID == p.BuyerID {
			return nil, ErrSelfTrade
		}
		if p.ExpectedPrice != nil && *p.ExpectedPrice != target.AskingPrice {
			return nil, &PriceChangedError{Current: target.AskingPrice, Expected: *p.ExpectedPrice}
		}

		sold := *target // copy before mutation for the trade record
		now := l.now()
		coll.MarkSold(listingID, p.BuyerID, p.BuyerName, now)

		switch err := l.writeListings(ctx, coll, ver); {
		case err == nil:
			metrics.ListingsActive.Set(float64(len(coll.Active())))
			return l.completeSale(ctx, &sold, p, now), nil
		case errors.Is(err, docstore.ErrVersionConflict):
			metrics.CASConflicts.WithLabelValues("buy").Inc()
			continue
		default:
			// Ambiguous outcome (e.g. timeout mid-write). Never blindly
			// retry a CAS whose fate is unknown; re-read and see whether
			// our purchase materialized.
			if winner, ok := l.soldTo(ctx, listingID); ok {
				if winner == p.BuyerID {
					return l.completeSale(ctx, &sold, p, now), nil
				}
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	metrics.CASExhausted.WithLabelValues("buy").Inc()
	return nil, ErrConflict
}

// CancelListing removes an active listing. Only the listing's seller may
// cancel it.
func (l *Ledger) CancelListing(ctx context.Context, listingID, sellerID string) (*model.Listing, error) {
	if listingID == "" {
		return nil, fmt.Errorf("%w: missing listing ID", ErrValidation)
	}
	if sellerID == "" {
		return nil, fmt.Errorf("%w: missing seller_id", ErrValidation)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, ver, err := l.store.Get(ctx, listingsKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		coll, err := DecodeListings(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		target := coll.FindActive(listingID)
		if target == nil {
			return nil, ErrNotFound
		}
		if target.SellerID != sellerID {
			return nil, ErrForbidden
		}

		coll.MarkRemoved(listingID, l.now())
		removed := *target

		switch err := l.writeListings(ctx, coll, ver); {
		case err == nil:
			metrics.ListingsActive.Set(float64(len(coll.Active())))
			slog.Info("listing cancelled", "listing_id", listingID, "seller", sellerID)
			return &removed, nil
		case errors.Is(err, docstore.ErrVersionConflict):
			metrics.CASConflicts.WithLabelValues("cancel").Inc()
			continue
		default:
			if l.listingRemoved(ctx, listingID) {
				return &removed, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	metrics.CASExhausted.WithLabelValues("cancel").Inc()
	return nil, ErrConflict
}

// ActiveListings returns the active listings, newest first. A pure read;
// no retry needed.
func (l *Ledger) ActiveListings(ctx context.Context) ([]model.Listing, error) {
	body, _, err := l.store.Get(ctx, listingsKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	coll, err := DecodeListings(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return coll.Active(), nil
}

// TradeHistory returns the trades involving the player as buyer or
// seller, most recent first.
func (l *Ledger) TradeHistory(ctx context.Context, playerID string) ([]model.Trade, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: missing player ID", ErrValidation)
	}
	body, _, err := l.store.Get(ctx, tradesKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	coll, err := DecodeTrades(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return coll.ForPlayer(playerID), nil
}

// writeListings attempts the conditional write of the mutated snapshot.
func (l *Ledger) writeListings(ctx context.Context, coll *ListingCollection, ver docstore.Version) error {
	body, err := coll.Encode()
	if err != nil {
		return err
	}
	return l.store.Put(ctx, listingsKey, body, docstore.Expect(ver))
}

// completeSale builds the trade record for a committed purchase and
// appends it to the trade log. The sale is already durable when this
// runs: a failed append is logged and does not change the outcome.
func (l *Ledger) completeSale(ctx context.Context, sold *model.Listing, p BuyParams, now time.Time) *model.Trade {
	trade := model.Trade{
		TradeID:     uuid.New().String(),
		ListingID:   sold.ListingID,
		SellerID:    sold.SellerID,
		SellerName:  sold.SellerName,
		BuyerID:     p.BuyerID,
		BuyerName:   p.BuyerName,
		ItemType:    sold.ItemType,
		ItemName:    sold.ItemName,
		Quantity:    sold.Quantity,
		FinalPrice:  sold.AskingPrice,
		CompletedAt: now,
	}

	if err := l.appendTrade(ctx, trade); err != nil {
		slog.Error("trade record append failed after committed sale",
			"trade_id", trade.TradeID,
			"listing_id", trade.ListingID,
			"err", err,
		)
	}

	metrics.TradesCompleted.Inc()
	slog.Info("trade completed",
		"trade_id", trade.TradeID,
		"listing_id", trade.ListingID,
		"buyer", trade.BuyerID,
		"seller", trade.SellerID,
		"item", trade.ItemName,
		"final_price", trade.FinalPrice,
	)
	return &trade
}

// appendTrade appends to the trade log with its own short CAS loop. The
// log is append-only, so a conflict just means racing another append.
func (l *Ledger) appendTrade(ctx context.Context, trade model.Trade) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, ver, err := l.store.Get(ctx, tradesKey)
		if err != nil {
			return err
		}
		coll, err := DecodeTrades(body)
		if err != nil {
			return err
		}
		coll.Append(trade)

		encoded, err := coll.Encode()
		if err != nil {
			return err
		}
		lastErr = l.store.Put(ctx, tradesKey, encoded, docstore.Expect(ver))
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, docstore.ErrVersionConflict) {
			return lastErr
		}
		metrics.CASConflicts.WithLabelValues("trade_log").Inc()
	}
	return lastErr
}

// soldTo re-reads the listings document and reports who, if anyone, the
// listing was sold to. Used to resolve ambiguous write outcomes.
func (l *Ledger) soldTo(ctx context.Context, listingID string) (string, bool) {
	coll, ok := l.reRead(ctx)
	if !ok {
		return "", false
	}
	for _, lst := range coll.listings {
		if lst.ListingID == listingID && lst.Status == model.StatusSold {
			return lst.BuyerID, true
		}
	}
	return "", false
}

// listingExists reports whether a listing with the given ID is present
// in the document under any status.
func (l *Ledger) listingExists(ctx context.Context, listingID string) bool {
	coll, ok := l.reRead(ctx)
	if !ok {
		return false
	}
	for _, lst := range coll.listings {
		if lst.ListingID == listingID {
			return true
		}
	}
	return false
}

// listingRemoved reports whether the listing now has removed status.
func (l *Ledger) listingRemoved(ctx context.Context, listingID string) bool {
	coll, ok := l.reRead(ctx)
	if !ok {
		return false
	}
	for _, lst := range coll.listings {
		if lst.ListingID == listingID && lst.Status == model.StatusRemoved {
			return true
		}
	}
	return false
}

func (l *Ledger) reRead(ctx context.Context) (*ListingCollection, bool) {
	body, _, err := l.store.Get(ctx, listingsKey)
	if err != nil {
		return nil, false
	}
	coll, err := DecodeListings(body)
	if err != nil {
		return nil, false
	}
	return coll, true
}
