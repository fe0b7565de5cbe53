package market

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orbitalworks/salvage-exchange/internal/model"
)

// Service translates HTTP requests into ledger calls and ledger results
// into response envelopes. Business rejections come back from the ledger
// fully retried-or-terminal; the boundary never retries again.
type Service struct {
	ledger *Ledger
}

// NewService creates the marketplace HTTP boundary.
func NewService(ledger *Ledger) *Service {
	return &Service{ledger: ledger}
}

// Routes mounts the marketplace endpoints on a chi router.
func (s *Service) Routes(r chi.Router) {
	r.Get("/listings", s.ListListings)
	r.Post("/listings", s.CreateListing)
	r.Post("/listings/{listingID}/buy", s.BuyListing)
	r.Delete("/listings/{listingID}", s.CancelListing)
	r.Get("/history/{playerID}", s.TradeHistory)
}

// CreateListingRequest is the JSON body for POST /listings.
type CreateListingRequest struct {
	SellerID    string `json:"seller_id"`
	SellerName  string `json:"seller_name"`
	ItemType    string `json:"item_type"`
	ItemName    string `json:"item_name"`
	Quantity    int    `json:"quantity"`
	AskingPrice int64  `json:"asking_price"`
	Description string `json:"description"`
}

// BuyListingRequest is the JSON body for POST /listings/{id}/buy.
// ExpectedPrice is optional; when present the buy fails if the listing's
// asking price differs.
type BuyListingRequest struct {
	BuyerID       string `json:"buyer_id"`
	BuyerName     string `json:"buyer_name"`
	ExpectedPrice *int64 `json:"expected_price,omitempty"`
}

// CancelListingRequest is the JSON body for DELETE /listings/{id}.
type CancelListingRequest struct {
	SellerID string `json:"seller_id"`
}

// ListListings handles GET /listings.
func (s *Service) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.ledger.ActiveListings(r.Context())
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"listings": listings,
		"total":    len(listings),
	})
}

// CreateListing handles POST /listings.
func (s *Service) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := s.ledger.CreateListing(r.Context(), CreateListingParams{
		SellerID:    req.SellerID,
		SellerName:  req.SellerName,
		ItemType:    req.ItemType,
		ItemName:    req.ItemName,
		Quantity:    req.Quantity,
		AskingPrice: req.AskingPrice,
		Description: req.Description,
	})
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"listing": listing,
	})
}

// BuyListing handles POST /listings/{listingID}/buy.
func (s *Service) BuyListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")

	var req BuyListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trade, err := s.ledger.BuyListing(r.Context(), listingID, BuyParams{
		BuyerID:       req.BuyerID,
		BuyerName:     req.BuyerName,
		ExpectedPrice: req.ExpectedPrice,
	})
	if errors.Is(err, ErrConflict) {
		// Losing the buy race means someone else got the item.
		writeError(w, http.StatusConflict, "item was purchased by another player")
		return
	}
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"trade":   trade,
		"item": map[string]any{
			"item_type":  trade.ItemType,
			"item_name":  trade.ItemName,
			"quantity":   trade.Quantity,
			"price_paid": trade.FinalPrice,
		},
	})
}

// CancelListing handles DELETE /listings/{listingID}.
func (s *Service) CancelListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")

	var req CancelListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := s.ledger.CancelListing(r.Context(), listingID, req.SellerID)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"listing": listing,
	})
}

// TradeHistory handles GET /history/{playerID}.
func (s *Service) TradeHistory(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	trades, err := s.ledger.TradeHistory(r.Context(), playerID)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"trades":  trades,
		"total":   len(trades),
	})
}

// writeLedgerError maps the ledger error taxonomy onto status codes and
// response envelopes. Every rejection carries enough structured detail
// for a client to explain the failure without guessing.
func (s *Service) writeLedgerError(w http.ResponseWriter, err error) {
	var capErr *CapacityError
	var priceErr *PriceChangedError

	switch {
	case errors.As(err, &capErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"success":            false,
			"error":              capErr.Error(),
			"item_type":          capErr.ItemType,
			"existing_quantity":  capErr.Existing,
			"requested_quantity": capErr.Requested,
			"max_quantity":       capErr.Max,
		})
	case errors.As(err, &priceErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"success":        false,
			"error":          priceErr.Error(),
			"current_price":  priceErr.Current,
			"expected_price": priceErr.Expected,
		})
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSelfTrade):
		writeError(w, http.StatusBadRequest, "cannot buy your own listing")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "listing belongs to another seller")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "listing not found or already sold")
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, "marketplace was updated concurrently, please try again")
	case errors.Is(err, ErrStoreUnavailable):
		slog.Error("document store failure", "err", err)
		writeError(w, http.StatusServiceUnavailable, "marketplace temporarily unavailable")
	default:
		slog.Error("unexpected marketplace error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError writes the standard failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
