package market_test

import (
	"testing"
	"time"

	"github.com/orbitalworks/salvage-exchange/internal/market"
	"github.com/orbitalworks/salvage-exchange/internal/model"
)

func listingAt(id, seller string, created time.Time, status string) model.Listing {
	return model.Listing{
		ListingID:   id,
		SellerID:    seller,
		SellerName:  seller,
		ItemType:    "ore",
		ItemName:    "Scrap ore",
		Quantity:    1,
		AskingPrice: 10,
		Status:      status,
		CreatedAt:   created,
	}
}

func TestDecodeListings_EmptyBody(t *testing.T) {
	coll, err := market.DecodeListings(nil)
	if err != nil {
		t.Fatalf("empty body should decode: %v", err)
	}
	if got := coll.Active(); len(got) != 0 {
		t.Errorf("expected no active listings, got %d", len(got))
	}

	body, err := coll.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(body) != `[]` {
		t.Errorf("empty collection must encode as [], got %s", body)
	}
}

func TestDecodeListings_Malformed(t *testing.T) {
	if _, err := market.DecodeListings([]byte(`{"not":"an array"`)); err == nil {
		t.Error("expected error for malformed document")
	}
}

func TestActive_FiltersAndSortsNewestFirst(t *testing.T) {
	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	coll, _ := market.DecodeListings(nil)
	coll.Append(listingAt("a", "s1", base, model.StatusActive))
	coll.Append(listingAt("b", "s1", base.Add(2*time.Minute), model.StatusSold))
	coll.Append(listingAt("c", "s2", base.Add(time.Minute), model.StatusActive))
	coll.Append(listingAt("d", "s2", base.Add(3*time.Minute), model.StatusActive))

	active := coll.Active()
	if len(active) != 3 {
		t.Fatalf("expected 3 active listings, got %d", len(active))
	}
	want := []string{"d", "c", "a"}
	for i, id := range want {
		if active[i].ListingID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, active[i].ListingID)
		}
	}
}

func TestFindActive_IgnoresFinalized(t *testing.T) {
	now := time.Now().UTC()
	coll, _ := market.DecodeListings(nil)
	coll.Append(listingAt("a", "s1", now, model.StatusSold))
	coll.Append(listingAt("b", "s1", now, model.StatusRemoved))
	coll.Append(listingAt("c", "s1", now, model.StatusActive))

	if coll.FindActive("a") != nil {
		t.Error("sold listing must not be findable")
	}
	if coll.FindActive("b") != nil {
		t.Error("removed listing must not be findable")
	}
	if coll.FindActive("c") == nil {
		t.Error("active listing should be found")
	}
	if coll.FindActive("missing") != nil {
		t.Error("unknown id should be absent")
	}
}

func TestMarkSold_TerminalTransition(t *testing.T) {
	now := time.Now().UTC()
	coll, _ := market.DecodeListings(nil)
	coll.Append(listingAt("a", "s1", now, model.StatusActive))

	if !coll.MarkSold("a", "buyer", "Buyer", now) {
		t.Fatal("expected MarkSold to succeed on active listing")
	}

	// A second transition of any kind must fail: sold is terminal.
	if coll.MarkSold("a", "buyer2", "Buyer Two", now) {
		t.Error("sold listing must not be sellable again")
	}
	if coll.MarkRemoved("a", now) {
		t.Error("sold listing must not be removable")
	}
}

func TestMarkRemoved_TerminalTransition(t *testing.T) {
	now := time.Now().UTC()
	coll, _ := market.DecodeListings(nil)
	coll.Append(listingAt("a", "s1", now, model.StatusActive))

	if !coll.MarkRemoved("a", now) {
		t.Fatal("expected MarkRemoved to succeed on active listing")
	}
	if coll.MarkSold("a", "buyer", "Buyer", now) {
		t.Error("removed listing must not be sellable")
	}
}

func TestTradeCollection_RoundTripAndFilter(t *testing.T) {
	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	coll, _ := market.DecodeTrades(nil)
	coll.Append(model.Trade{TradeID: "t1", SellerID: "alice", BuyerID: "bob", CompletedAt: base})
	coll.Append(model.Trade{TradeID: "t2", SellerID: "carol", BuyerID: "alice", CompletedAt: base.Add(time.Minute)})
	coll.Append(model.Trade{TradeID: "t3", SellerID: "carol", BuyerID: "dave", CompletedAt: base.Add(2 * time.Minute)})

	body, err := coll.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := market.DecodeTrades(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	alice := decoded.ForPlayer("alice")
	if len(alice) != 2 {
		t.Fatalf("expected 2 trades for alice, got %d", len(alice))
	}
	if alice[0].TradeID != "t2" || alice[1].TradeID != "t1" {
		t.Errorf("expected newest first, got %s then %s", alice[0].TradeID, alice[1].TradeID)
	}
}
