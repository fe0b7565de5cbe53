// Package model defines the core domain types shared across the salvage
// exchange backend. Prices are whole credits (int64); the game has no
// fractional currency.
package model

import "time"

// Listing status values. A listing is created active and transitions at
// most once, to either sold or removed. Both are terminal.
const (
	StatusActive  = "active"
	StatusSold    = "sold"
	StatusRemoved = "removed"
)

// Listing is a single sell offer on the shared marketplace.
// Quantity and asking price are immutable after creation; only the status
// (plus the buyer/removal fields that come with it) ever changes.
type Listing struct {
	ListingID   string    `json:"listing_id"`
	SellerID    string    `json:"seller_id"`
	SellerName  string    `json:"seller_name"`
	ItemType    string    `json:"item_type"`
	ItemName    string    `json:"item_name"`
	Quantity    int       `json:"quantity"`
	AskingPrice int64     `json:"asking_price"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	// Set on transition to sold.
	BuyerID   string     `json:"buyer_id,omitempty"`
	BuyerName string     `json:"buyer_name,omitempty"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`

	// Set on transition to removed.
	RemovedAt *time.Time `json:"removed_at,omitempty"`
}

// Trade is an immutable record of one completed sale. Item fields are
// copied from the listing at sale time, so history stays stable no matter
// what later happens to the listings document.
type Trade struct {
	TradeID     string    `json:"trade_id"`
	ListingID   string    `json:"listing_id"`
	SellerID    string    `json:"seller_id"`
	SellerName  string    `json:"seller_name"`
	BuyerID     string    `json:"buyer_id"`
	BuyerName   string    `json:"buyer_name"`
	ItemType    string    `json:"item_type"`
	ItemName    string    `json:"item_name"`
	Quantity    int       `json:"quantity"`
	FinalPrice  int64     `json:"final_price"`
	CompletedAt time.Time `json:"completed_at"`
}

// Position is a player's coordinate in the game world. Z carries the
// 2.5D depth layer and is zero for lobby-only movement.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Player holds persisted progression state.
type Player struct {
	PlayerID        string         `json:"player_id"`
	Name            string         `json:"name"`
	Credits         int64          `json:"credits"`
	ProgressionPath string         `json:"progression_path"`
	Position        Position       `json:"position"`
	Upgrades        map[string]int `json:"upgrades"`
}

// ZoneAccess records a player's clearance for one salvage zone and when
// they last visited it.
type ZoneAccess struct {
	ZoneID      string  `json:"zone_id"`
	PlayerID    string  `json:"player_id"`
	AccessLevel int     `json:"access_level"`
	LastVisited float64 `json:"last_visited"`
}

// InventoryItem is one stack of salvage in a player's hold.
type InventoryItem struct {
	ItemID    string  `json:"item_id"`
	ItemType  string  `json:"item_type"`
	Quantity  int     `json:"quantity"`
	Value     int64   `json:"value"`
	Timestamp float64 `json:"timestamp"`
}
