// Package player provides persistence and HTTP handlers for player
// progression: profile, inventory, upgrades, and credits. The store is
// injected at startup, PostgreSQL when configured and in-memory otherwise,
// so fallback mode is a swapped implementation, never ambient globals.
package player

import (
	"context"
	"errors"

	"github.com/orbitalworks/salvage-exchange/internal/model"
)

// ErrNotFound is returned for operations on an unknown player.
var ErrNotFound = errors.New("player: not found")

// Stats summarizes stored state for the /stats endpoint.
type Stats struct {
	TotalPlayers        int `json:"total_players"`
	TotalInventoryItems int `json:"total_inventory_items"`
	TotalZones          int `json:"total_zones"`
}

// Store is the persistence interface for player state.
type Store interface {
	// GetPlayer returns a player with their upgrade levels.
	GetPlayer(ctx context.Context, playerID string) (*model.Player, error)

	// SavePlayer creates or updates a player and their upgrade levels.
	SavePlayer(ctx context.Context, p *model.Player) error

	// ListInventory returns the player's inventory items.
	ListInventory(ctx context.Context, playerID string) ([]model.InventoryItem, error)

	// AddInventoryItem appends one item stack.
	AddInventoryItem(ctx context.Context, playerID string, item model.InventoryItem) error

	// ClearInventory removes and returns all items, used when selling a
	// full hold.
	ClearInventory(ctx context.Context, playerID string) ([]model.InventoryItem, error)

	// AdjustCredits applies a signed delta, clamping at zero. Returns
	// the balance before and after.
	AdjustCredits(ctx context.Context, playerID string, delta int64) (oldCredits, newCredits int64, err error)

	// ListZones returns the zones the player has access to.
	ListZones(ctx context.Context, playerID string) ([]model.ZoneAccess, error)

	// GrantZone records or refreshes zone access, stamping the visit
	// time. Granting the same zone again updates level and timestamp.
	GrantZone(ctx context.Context, playerID string, zoneID string, accessLevel int) (*model.ZoneAccess, error)

	// Stats returns aggregate counts.
	Stats(ctx context.Context) (Stats, error)
}
