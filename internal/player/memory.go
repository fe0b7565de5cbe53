package player

import (
	"context"
	"sync"
	"time"

	"github.com/orbitalworks/salvage-exchange/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// as the startup fallback when the database is unreachable. State does
// not survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	players   map[string]model.Player
	inventory map[string][]model.InventoryItem
	zones     map[string][]model.ZoneAccess
}

// NewMemoryStore creates an empty in-memory player store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:   make(map[string]model.Player),
		inventory: make(map[string][]model.InventoryItem),
		zones:     make(map[string][]model.ZoneAccess),
	}
}

func (s *MemoryStore) GetPlayer(_ context.Context, playerID string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	out.Upgrades = copyUpgrades(p.Upgrades)
	return &out, nil
}

func (s *MemoryStore) SavePlayer(_ context.Context, p *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *p
	stored.Upgrades = copyUpgrades(p.Upgrades)
	s.players[p.PlayerID] = stored
	if _, ok := s.inventory[p.PlayerID]; !ok {
		s.inventory[p.PlayerID] = nil
	}
	return nil
}

func (s *MemoryStore) ListInventory(_ context.Context, playerID string) ([]model.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.players[playerID]; !ok {
		return nil, ErrNotFound
	}
	items := s.inventory[playerID]
	out := make([]model.InventoryItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *MemoryStore) AddInventoryItem(_ context.Context, playerID string, item model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return ErrNotFound
	}
	s.inventory[playerID] = append(s.inventory[playerID], item)
	return nil
}

func (s *MemoryStore) ClearInventory(_ context.Context, playerID string) ([]model.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return nil, ErrNotFound
	}
	cleared := s.inventory[playerID]
	s.inventory[playerID] = nil
	return cleared, nil
}

func (s *MemoryStore) AdjustCredits(_ context.Context, playerID string, delta int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return 0, 0, ErrNotFound
	}
	oldCredits := p.Credits
	newCredits := oldCredits + delta
	if newCredits < 0 {
		newCredits = 0
	}
	p.Credits = newCredits
	s.players[playerID] = p
	return oldCredits, newCredits, nil
}

func (s *MemoryStore) ListZones(_ context.Context, playerID string) ([]model.ZoneAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.players[playerID]; !ok {
		return nil, ErrNotFound
	}
	zones := s.zones[playerID]
	out := make([]model.ZoneAccess, len(zones))
	copy(out, zones)
	return out, nil
}

func (s *MemoryStore) GrantZone(_ context.Context, playerID, zoneID string, accessLevel int) (*model.ZoneAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return nil, ErrNotFound
	}

	zone := model.ZoneAccess{
		ZoneID:      zoneID,
		PlayerID:    playerID,
		AccessLevel: accessLevel,
		LastVisited: float64(time.Now().UnixNano()) / 1e9,
	}
	zones := s.zones[playerID]
	for i := range zones {
		if zones[i].ZoneID == zoneID {
			zones[i] = zone
			return &zone, nil
		}
	}
	s.zones[playerID] = append(zones, zone)
	return &zone, nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := 0
	for _, inv := range s.inventory {
		items += len(inv)
	}
	zones := 0
	for _, z := range s.zones {
		zones += len(z)
	}
	return Stats{
		TotalPlayers:        len(s.players),
		TotalInventoryItems: items,
		TotalZones:          zones,
	}, nil
}

func copyUpgrades(in map[string]int) map[string]int {
	if in == nil {
		return map[string]int{}
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
