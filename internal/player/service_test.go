package player_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/orbitalworks/salvage-exchange/internal/model"
	"github.com/orbitalworks/salvage-exchange/internal/player"
)

func newTestEnv(t *testing.T) (*player.MemoryStore, chi.Router) {
	t.Helper()
	store := player.NewMemoryStore()
	svc := player.NewService(store)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		svc.Routes(r)
	})
	return store, r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestSaveAndGetPlayer_API(t *testing.T) {
	_, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/players/p1", model.Player{
		Name:     "Pilot One",
		Credits:  750,
		Upgrades: map[string]int{"speed_boost": 1},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save returned %d: %s", w.Code, w.Body.String())
	}
	if msg := decodeBody(t, w)["message"]; msg != "Player saved successfully" {
		t.Errorf("unexpected message: %v", msg)
	}

	w = doJSON(t, router, "GET", "/api/v1/players/p1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get returned %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["name"] != "Pilot One" || body["credits"] != float64(750) {
		t.Errorf("unexpected player body: %v", body)
	}
}

func TestGetPlayer_API_Unknown(t *testing.T) {
	_, router := newTestEnv(t)

	w := doJSON(t, router, "GET", "/api/v1/players/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if msg := decodeBody(t, w)["error"]; msg != "Player not found" {
		t.Errorf("unexpected error message: %v", msg)
	}
}

func TestSavePlayer_API_Rejections(t *testing.T) {
	_, router := newTestEnv(t)

	cases := []struct {
		name string
		body model.Player
	}{
		{"missing name", model.Player{Credits: 100}},
		{"unknown upgrade", model.Player{Name: "P", Upgrades: map[string]int{"warp_drive": 1}}},
		{"level too high", model.Player{Name: "P", Upgrades: map[string]int{"speed_boost": 99}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, "POST", "/api/v1/players/p1", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestInventory_API(t *testing.T) {
	_, router := newTestEnv(t)
	doJSON(t, router, "POST", "/api/v1/players/p1", model.Player{Name: "Pilot"})

	w := doJSON(t, router, "POST", "/api/v1/players/p1/inventory", model.InventoryItem{
		ItemID: "i1", ItemType: "ore", Quantity: 3, Value: 90,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add returned %d: %s", w.Code, w.Body.String())
	}

	// Bad items are rejected before touching the store.
	w = doJSON(t, router, "POST", "/api/v1/players/p1/inventory", model.InventoryItem{ItemID: "i2", ItemType: "ore", Quantity: 0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero quantity, got %d", w.Code)
	}

	w = doJSON(t, router, "GET", "/api/v1/players/p1/inventory", nil)
	body := decodeBody(t, w)
	if body["total_items"] != float64(1) {
		t.Fatalf("expected 1 item, got %v", body["total_items"])
	}

	w = doJSON(t, router, "DELETE", "/api/v1/players/p1/inventory", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear returned %d", w.Code)
	}
	if cleared := decodeBody(t, w)["total_cleared"]; cleared != float64(1) {
		t.Errorf("expected 1 cleared item, got %v", cleared)
	}
}

func TestAdjustCredits_API(t *testing.T) {
	_, router := newTestEnv(t)
	doJSON(t, router, "POST", "/api/v1/players/p1", model.Player{Name: "Pilot", Credits: 200})

	w := doJSON(t, router, "POST", "/api/v1/players/p1/credits", player.CreditsRequest{CreditsChange: -500})
	if w.Code != http.StatusOK {
		t.Fatalf("adjust returned %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["old_credits"] != float64(200) || body["new_credits"] != float64(0) {
		t.Errorf("expected clamp to zero, got %v", body)
	}

	w = doJSON(t, router, "POST", "/api/v1/players/ghost/credits", player.CreditsRequest{CreditsChange: 10})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown player, got %d", w.Code)
	}
}

func TestZones_API(t *testing.T) {
	_, router := newTestEnv(t)
	doJSON(t, router, "POST", "/api/v1/players/p1", model.Player{Name: "Pilot"})

	// Unknown player: 404, same as the other player routes.
	w := doJSON(t, router, "GET", "/api/v1/players/ghost/zones", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown player, got %d", w.Code)
	}

	// A fresh player has access to nothing.
	w = doJSON(t, router, "GET", "/api/v1/players/p1/zones", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("zones returned %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["player_id"] != "p1" || body["total_zones"] != float64(0) {
		t.Errorf("unexpected empty zones body: %v", body)
	}

	// Missing zone_id is rejected.
	w = doJSON(t, router, "POST", "/api/v1/players/p1/zones", player.ZoneRequest{AccessLevel: 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without zone_id, got %d", w.Code)
	}

	w = doJSON(t, router, "POST", "/api/v1/players/p1/zones", player.ZoneRequest{ZoneID: "debris-field", AccessLevel: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("grant returned %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "GET", "/api/v1/players/p1/zones", nil)
	body = decodeBody(t, w)
	if body["total_zones"] != float64(1) {
		t.Fatalf("expected 1 zone, got %v", body["total_zones"])
	}
	zone := body["zones"].([]any)[0].(map[string]any)
	if zone["zone_id"] != "debris-field" || zone["player_id"] != "p1" || zone["access_level"] != float64(2) {
		t.Errorf("unexpected zone entry: %v", zone)
	}
	if zone["last_visited"] == float64(0) {
		t.Error("expected last_visited to be stamped")
	}
}

func TestStats_API(t *testing.T) {
	_, router := newTestEnv(t)
	doJSON(t, router, "POST", "/api/v1/players/p1", model.Player{Name: "Pilot"})
	doJSON(t, router, "POST", "/api/v1/players/p2", model.Player{Name: "Copilot"})
	doJSON(t, router, "POST", "/api/v1/players/p1/zones", player.ZoneRequest{ZoneID: "debris-field", AccessLevel: 1})

	w := doJSON(t, router, "GET", "/api/v1/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats returned %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total_players"] != float64(2) {
		t.Errorf("expected 2 players, got %v", body["total_players"])
	}
	if body["total_zones"] != float64(1) {
		t.Errorf("expected 1 zone, got %v", body["total_zones"])
	}
	if body["timestamp"] == "" {
		t.Error("expected timestamp in stats response")
	}
}
