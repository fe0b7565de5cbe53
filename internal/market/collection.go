package market

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/orbitalworks/salvage-exchange/internal/model"
)

// ListingCollection is the typed in-memory view over the listings
// document. All mutations are pure in-process transformations; writing
// the collection back through the document store is the ledger's job.
type ListingCollection struct {
	listings []model.Listing
}

// DecodeListings parses the listings document. A nil or empty body (key
// never written) decodes to an empty collection.
func DecodeListings(body []byte) (*ListingCollection, error) {
	c := &ListingCollection{}
	if len(body) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(body, &c.listings); err != nil {
		return nil, fmt.Errorf("decode listings document: %w", err)
	}
	return c, nil
}

// Encode serializes the collection as a bare JSON array, the document's
// wire format.
func (c *ListingCollection) Encode() ([]byte, error) {
	if c.listings == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal(c.listings)
}

// Active returns listings with active status, newest first.
func (c *ListingCollection) Active() []model.Listing {
	var active []model.Listing
	for _, l := range c.listings {
		if l.Status == model.StatusActive {
			active = append(active, l)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active
}

// FindActive locates an active listing by ID. Sold and removed listings
// are invisible here: to the buyer they no longer exist.
func (c *ListingCollection) FindActive(listingID string) *model.Listing {
	for i := range c.listings {
		if c.listings[i].ListingID == listingID && c.listings[i].Status == model.StatusActive {
			return &c.listings[i]
		}
	}
	return nil
}

// Append adds a listing to the collection.
func (c *ListingCollection) Append(l model.Listing) {
	c.listings = append(c.listings, l)
}

// MarkSold transitions an active listing to sold, attaching the buyer.
// Returns false when no active listing with that ID exists.
func (c *ListingCollection) MarkSold(listingID, buyerID, buyerName string, now time.Time) bool {
	l := c.FindActive(listingID)
	if l == nil {
		return false
	}
	l.Status = model.StatusSold
	l.BuyerID = buyerID
	l.BuyerName = buyerName
	l.SoldAt = &now
	return true
}

// MarkRemoved transitions an active listing to removed. The record stays
// in the document for auditability; only the status changes.
func (c *ListingCollection) MarkRemoved(listingID string, now time.Time) bool {
	l := c.FindActive(listingID)
	if l == nil {
		return false
	}
	l.Status = model.StatusRemoved
	l.RemovedAt = &now
	return true
}

// TradeCollection is the typed view over the trade-history document, an
// append-only log of completed sales.
type TradeCollection struct {
	trades []model.Trade
}

// DecodeTrades parses the trades document; empty body means no trades.
func DecodeTrades(body []byte) (*TradeCollection, error) {
	c := &TradeCollection{}
	if len(body) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(body, &c.trades); err != nil {
		return nil, fmt.Errorf("decode trades document: %w", err)
	}
	return c, nil
}

// Encode serializes the trade log as a bare JSON array.
func (c *TradeCollection) Encode() ([]byte, error) {
	if c.trades == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal(c.trades)
}

// Append adds a trade record to the log.
func (c *TradeCollection) Append(t model.Trade) {
	c.trades = append(c.trades, t)
}

// ForPlayer returns trades where the player is buyer or seller, most
// recent first.
func (c *TradeCollection) ForPlayer(playerID string) []model.Trade {
	var result []model.Trade
	for _, t := range c.trades {
		if t.SellerID == playerID || t.BuyerID == playerID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CompletedAt.After(result[j].CompletedAt)
	})
	return result
}
