package player

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orbitalworks/salvage-exchange/internal/model"
	"github.com/orbitalworks/salvage-exchange/internal/upgrade"
)

// Service exposes player persistence over HTTP.
type Service struct {
	store Store
}

// NewService creates the player HTTP boundary over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Routes mounts the player endpoints on a chi router.
func (s *Service) Routes(r chi.Router) {
	r.Get("/players/{playerID}", s.GetPlayer)
	r.Post("/players/{playerID}", s.SavePlayer)
	r.Get("/players/{playerID}/inventory", s.GetInventory)
	r.Post("/players/{playerID}/inventory", s.AddInventoryItem)
	r.Delete("/players/{playerID}/inventory", s.ClearInventory)
	r.Post("/players/{playerID}/credits", s.AdjustCredits)
	r.Get("/players/{playerID}/zones", s.GetZones)
	r.Post("/players/{playerID}/zones", s.GrantZone)
	r.Get("/stats", s.GetStats)
}

// GetPlayer handles GET /players/{playerID}.
func (s *Service) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	p, err := s.store.GetPlayer(r.Context(), playerID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SavePlayer handles POST /players/{playerID}: create or update.
func (s *Service) SavePlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var p model.Player
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.PlayerID = playerID

	if p.Name == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing required field: name")
		return
	}
	if err := upgrade.ValidateLevels(p.Upgrades); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SavePlayer(r.Context(), &p); err != nil {
		s.writeStoreError(w, err)
		return
	}

	slog.Info("player saved", "player_id", playerID, "credits", p.Credits)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Player saved successfully",
		"player_id": playerID,
	})
}

// GetInventory handles GET /players/{playerID}/inventory.
func (s *Service) GetInventory(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	items, err := s.store.ListInventory(r.Context(), playerID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player_id":   playerID,
		"inventory":   items,
		"total_items": len(items),
	})
}

// AddInventoryItem handles POST /players/{playerID}/inventory.
func (s *Service) AddInventoryItem(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var item model.InventoryItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if item.ItemID == "" || item.ItemType == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing item_id or item_type")
		return
	}
	if item.Quantity <= 0 {
		writeErrorMsg(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	if err := s.store.AddInventoryItem(r.Context(), playerID, item); err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Item added to inventory",
		"item":    item,
	})
}

// ClearInventory handles DELETE /players/{playerID}/inventory, used when
// a player sells their whole hold.
func (s *Service) ClearInventory(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	cleared, err := s.store.ClearInventory(r.Context(), playerID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if cleared == nil {
		cleared = []model.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Inventory cleared",
		"cleared_items": cleared,
		"total_cleared": len(cleared),
	})
}

// CreditsRequest is the JSON body for POST /players/{playerID}/credits.
type CreditsRequest struct {
	CreditsChange int64 `json:"credits_change"`
}

// AdjustCredits handles POST /players/{playerID}/credits. Negative
// deltas subtract; the balance never drops below zero.
func (s *Service) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var req CreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	oldCredits, newCredits, err := s.store.AdjustCredits(r.Context(), playerID, req.CreditsChange)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	slog.Info("credits updated", "player_id", playerID, "old", oldCredits, "new", newCredits)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Credits updated",
		"old_credits": oldCredits,
		"new_credits": newCredits,
		"change":      req.CreditsChange,
	})
}

// GetZones handles GET /players/{playerID}/zones.
func (s *Service) GetZones(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	zones, err := s.store.ListZones(r.Context(), playerID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if zones == nil {
		zones = []model.ZoneAccess{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player_id":   playerID,
		"zones":       zones,
		"total_zones": len(zones),
	})
}

// ZoneRequest is the JSON body for POST /players/{playerID}/zones.
type ZoneRequest struct {
	ZoneID      string `json:"zone_id"`
	AccessLevel int    `json:"access_level"`
}

// GrantZone handles POST /players/{playerID}/zones, recording zone
// access when a player unlocks or visits a zone.
func (s *Service) GrantZone(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var req ZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ZoneID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing required field: zone_id")
		return
	}
	if req.AccessLevel < 0 {
		writeErrorMsg(w, http.StatusBadRequest, "access_level must not be negative")
		return
	}

	zone, err := s.store.GrantZone(r.Context(), playerID, req.ZoneID, req.AccessLevel)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	slog.Info("zone access granted", "player_id", playerID, "zone", req.ZoneID, "level", req.AccessLevel)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Zone access recorded",
		"zone":    zone,
	})
}

// GetStats handles GET /stats.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_players":         stats.TotalPlayers,
		"total_inventory_items": stats.TotalInventoryItems,
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Service) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeErrorMsg(w, http.StatusNotFound, "Player not found")
		return
	}
	slog.Error("player store failure", "err", err)
	writeErrorMsg(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorMsg(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
