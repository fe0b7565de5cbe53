package player_test

import (
	"context"
	"errors"
	"testing"

	"github.com/orbitalworks/salvage-exchange/internal/model"
	"github.com/orbitalworks/salvage-exchange/internal/player"
)

func seedPlayer(t *testing.T, s *player.MemoryStore, id string, credits int64) {
	t.Helper()
	err := s.SavePlayer(context.Background(), &model.Player{
		PlayerID:        id,
		Name:            "Pilot " + id,
		Credits:         credits,
		ProgressionPath: "trader",
	})
	if err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}
}

func TestGetPlayer_Unknown(t *testing.T) {
	s := player.NewMemoryStore()
	_, err := s.GetPlayer(context.Background(), "ghost")
	if !errors.Is(err, player.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSavePlayer_RoundTrip(t *testing.T) {
	s := player.NewMemoryStore()
	in := &model.Player{
		PlayerID: "p1",
		Name:     "Pilot One",
		Credits:  500,
		Position: model.Position{X: 10, Y: 20, Z: 0},
		Upgrades: map[string]int{"speed_boost": 2},
	}
	if err := s.SavePlayer(context.Background(), in); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}

	got, err := s.GetPlayer(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if got.Name != "Pilot One" || got.Credits != 500 {
		t.Errorf("unexpected player: %+v", got)
	}
	if got.Upgrades["speed_boost"] != 2 {
		t.Errorf("expected upgrade level 2, got %v", got.Upgrades)
	}

	// Mutating the returned copy must not leak back into the store.
	got.Upgrades["speed_boost"] = 9
	again, _ := s.GetPlayer(context.Background(), "p1")
	if again.Upgrades["speed_boost"] != 2 {
		t.Error("stored upgrades mutated through returned copy")
	}
}

func TestSavePlayer_Overwrite(t *testing.T) {
	s := player.NewMemoryStore()
	seedPlayer(t, s, "p1", 100)
	seedPlayer(t, s, "p1", 900)

	got, err := s.GetPlayer(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if got.Credits != 900 {
		t.Errorf("expected overwritten credits 900, got %d", got.Credits)
	}

	stats, _ := s.Stats(context.Background())
	if stats.TotalPlayers != 1 {
		t.Errorf("expected 1 player after overwrite, got %d", stats.TotalPlayers)
	}
}

func TestInventory_AddListClear(t *testing.T) {
	s := player.NewMemoryStore()
	seedPlayer(t, s, "p1", 100)
	ctx := context.Background()

	if err := s.AddInventoryItem(ctx, "ghost", model.InventoryItem{ItemID: "i1", ItemType: "ore", Quantity: 1}); !errors.Is(err, player.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown player, got %v", err)
	}

	for i := 0; i < 3; i++ {
		item := model.InventoryItem{ItemID: "i" + string(rune('1'+i)), ItemType: "ore", Quantity: 2, Value: 50}
		if err := s.AddInventoryItem(ctx, "p1", item); err != nil {
			t.Fatalf("AddInventoryItem: %v", err)
		}
	}

	items, err := s.ListInventory(ctx, "p1")
	if err != nil {
		t.Fatalf("ListInventory: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	cleared, err := s.ClearInventory(ctx, "p1")
	if err != nil {
		t.Fatalf("ClearInventory: %v", err)
	}
	if len(cleared) != 3 {
		t.Errorf("expected 3 cleared items, got %d", len(cleared))
	}

	items, _ = s.ListInventory(ctx, "p1")
	if len(items) != 0 {
		t.Errorf("expected empty inventory after clear, got %d items", len(items))
	}
}

func TestAdjustCredits(t *testing.T) {
	s := player.NewMemoryStore()
	seedPlayer(t, s, "p1", 100)
	ctx := context.Background()

	oldC, newC, err := s.AdjustCredits(ctx, "p1", 250)
	if err != nil {
		t.Fatalf("AdjustCredits: %v", err)
	}
	if oldC != 100 || newC != 350 {
		t.Errorf("expected 100 -> 350, got %d -> %d", oldC, newC)
	}

	// Overdraft clamps at zero rather than going negative.
	oldC, newC, err = s.AdjustCredits(ctx, "p1", -1000)
	if err != nil {
		t.Fatalf("AdjustCredits: %v", err)
	}
	if oldC != 350 || newC != 0 {
		t.Errorf("expected 350 -> 0, got %d -> %d", oldC, newC)
	}

	if _, _, err := s.AdjustCredits(ctx, "ghost", 10); !errors.Is(err, player.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestZones_GrantAndList(t *testing.T) {
	s := player.NewMemoryStore()
	seedPlayer(t, s, "p1", 100)
	ctx := context.Background()

	if _, err := s.ListZones(ctx, "ghost"); !errors.Is(err, player.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown player, got %v", err)
	}
	if _, err := s.GrantZone(ctx, "ghost", "debris-field", 1); !errors.Is(err, player.ErrNotFound) {
		t.Fatalf("expected ErrNotFound granting to unknown player, got %v", err)
	}

	// New players have no zone access.
	zones, err := s.ListZones(ctx, "p1")
	if err != nil {
		t.Fatalf("ListZones: %v", err)
	}
	if len(zones) != 0 {
		t.Fatalf("expected no zones, got %d", len(zones))
	}

	zone, err := s.GrantZone(ctx, "p1", "debris-field", 1)
	if err != nil {
		t.Fatalf("GrantZone: %v", err)
	}
	if zone.PlayerID != "p1" || zone.AccessLevel != 1 || zone.LastVisited == 0 {
		t.Errorf("unexpected zone record: %+v", zone)
	}
	s.GrantZone(ctx, "p1", "outer-rim", 3)

	zones, _ = s.ListZones(ctx, "p1")
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}

	// Re-granting a zone updates in place instead of duplicating.
	if _, err := s.GrantZone(ctx, "p1", "debris-field", 2); err != nil {
		t.Fatalf("re-grant failed: %v", err)
	}
	zones, _ = s.ListZones(ctx, "p1")
	if len(zones) != 2 {
		t.Fatalf("re-grant must not duplicate, got %d zones", len(zones))
	}
	for _, z := range zones {
		if z.ZoneID == "debris-field" && z.AccessLevel != 2 {
			t.Errorf("expected upgraded access level 2, got %d", z.AccessLevel)
		}
	}
}

func TestStats(t *testing.T) {
	s := player.NewMemoryStore()
	ctx := context.Background()

	seedPlayer(t, s, "p1", 0)
	seedPlayer(t, s, "p2", 0)
	s.AddInventoryItem(ctx, "p1", model.InventoryItem{ItemID: "i1", ItemType: "ore", Quantity: 1})
	s.AddInventoryItem(ctx, "p2", model.InventoryItem{ItemID: "i2", ItemType: "ore", Quantity: 1})
	s.AddInventoryItem(ctx, "p2", model.InventoryItem{ItemID: "i3", ItemType: "alloy", Quantity: 4})
	s.GrantZone(ctx, "p1", "debris-field", 1)
	s.GrantZone(ctx, "p2", "debris-field", 1)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalPlayers != 2 || stats.TotalInventoryItems != 3 || stats.TotalZones != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
