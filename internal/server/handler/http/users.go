package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cardvault/internal/models"
	"cardvault/internal/service"
)

// emailPattern is the accepted email address shape for user registration.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)

// UserService defines the user operations required by the UserHandler.
type UserService interface {
	// Create registers a new user.
	Create(ctx context.Context, name, email string) (models.User, error)
	// Get returns the active user with the given id, or nil.
	Get(ctx context.Context, userID int64) (*models.User, error)
	// Update changes the profile fields of an active user.
	Update(ctx context.Context, userID int64, name, email string) (bool, error)
	// Deactivate soft-deletes the user.
	Deactivate(ctx context.Context, userID int64) (bool, error)
}

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	UserService UserService
}

// UserRequest represents the JSON payload for user operations.
type UserRequest struct {
	// Name is the display name of the user.
	Name string `json:"userName"`
	// Email is the contact address of the user.
	Email string `json:"emailAddress"`
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "User object is invalid. Please provide user details in the request body.")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid Email Format")
		return
	}

	user, err := h.UserService.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{userID}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	user, err := h.UserService.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user details")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{userID}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "User object is invalid. Please provide user details in the request body.")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid Email Format")
		return
	}

	updated, err := h.UserService.Update(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update user details")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User details updated successfully"})
}

// Delete handles DELETE /api/users/{userID}, deactivating the user record.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	deleted, err := h.UserService.Deactivate(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// parseUserID extracts the userID route parameter, writing a 400 response
// and returning ok=false when it is missing or not a positive integer.
func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "Provide correct User Id details")
		return 0, false
	}
	return userID, true
}
