// Package http provides HTTP handlers for card and user operations.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cardvault/internal/models"
	"cardvault/internal/service"
	"cardvault/internal/validation"
)

// CardService defines the card operations required by the CardHandler.
type CardService interface {
	// Store records a new card and returns the vault entry name it was
	// stored under.
	Store(ctx context.Context, userID int64, cardNumber, expiryDate string) (string, error)
	// Update overwrites the payload of the matching card. Returns false
	// when the user has no active card with that number.
	Update(ctx context.Context, userID int64, cardNumber, expiryDate string) (bool, error)
	// Delete deactivates the matching card. Returns false when the user
	// has no active card with that number.
	Delete(ctx context.Context, userID int64, cardNumber string) (bool, error)
	// FetchAll returns the payloads of the user's active cards.
	FetchAll(ctx context.Context, userID int64) ([]models.CardPayload, error)
}

// CardHandler handles HTTP requests for card operations.
type CardHandler struct {
	CardService CardService
}

// CardRequest represents the JSON payload for card operations.
type CardRequest struct {
	// UserID identifies the owning user.
	UserID int64 `json:"userId"`
	// CardNumber is the primary account number.
	CardNumber string `json:"cardNumber"`
	// ExpiryDate is the expiry in MM/YY format.
	ExpiryDate string `json:"expiryDate"`
}

// Store handles POST /api/cards. It validates the card details and stores
// them, responding 201 with the created secret name.
func (h *CardHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Card object is invalid. Please provide card details in the request body.")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "Provide correct User Id details")
		return
	}
	if err := validation.Card(req.CardNumber, req.ExpiryDate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, err := h.CardService.Store(r.Context(), req.UserID, normalizeCardNumber(req.CardNumber), req.ExpiryDate)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to store card details")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":    "Card details stored successfully",
		"secretName": name,
	})
}

// Update handles PUT /api/cards. A request for a card the user does not
// hold is answered 200 with a message, not an error.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Card object is invalid. Please provide card details in the request body.")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "Provide correct User Id details")
		return
	}
	if err := validation.Card(req.CardNumber, req.ExpiryDate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.CardService.Update(r.Context(), req.UserID, normalizeCardNumber(req.CardNumber), req.ExpiryDate)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update card details")
		return
	}
	if !updated {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No matching card found for user"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Card details updated successfully"})
}

// Delete handles DELETE /api/cards. As with Update, "no matching card" is
// answered 200 with a message.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Card object is invalid. Please provide card details in the request body.")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "Provide correct User Id details")
		return
	}
	number := normalizeCardNumber(req.CardNumber)
	if number == "" {
		writeError(w, http.StatusBadRequest, "Card Number is required")
		return
	}

	deleted, err := h.CardService.Delete(r.Context(), req.UserID, number)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete card details")
		return
	}
	if !deleted {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No matching card found for user"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Card deleted successfully"})
}

// FetchAll handles GET /api/cards/{userID}, returning the user's active
// card payloads as a JSON array.
func (h *CardHandler) FetchAll(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "Please input the user Id for which you would like to retrieve the credit cards information")
		return
	}

	cards, err := h.CardService.FetchAll(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get the card details")
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// Validate handles POST /api/cards/validate, running the full validation
// chain without touching any store.
func (h *CardHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Card object is invalid. Please provide card details in the request body.")
		return
	}
	if err := validation.Card(req.CardNumber, req.ExpiryDate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Card validated successfully"})
}

// normalizeCardNumber strips whitespace so the stored number and the
// exact-match lookups always use the bare digits.
func normalizeCardNumber(cardNumber string) string {
	return strings.ReplaceAll(cardNumber, " ", "")
}

// writeJSON writes v as the JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status code. Messages
// describe the failure without exposing vault or database internals.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
