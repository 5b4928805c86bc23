package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/logging"
	"github.com/hasnain-a7/nextProjectFlow/middleware"
	"github.com/hasnain-a7/nextProjectFlow/models"
	"github.com/hasnain-a7/nextProjectFlow/services"
	"github.com/hasnain-a7/nextProjectFlow/store"
)

type UserHandler struct {
	service  *services.UserService
	registry *services.CacheRegistry
}

func NewUserHandler(service *services.UserService, registry *services.CacheRegistry) *UserHandler {
	return &UserHandler{service: service, registry: registry}
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"fullname"`
	Location     string `json:"location"`
	Occupation   string `json:"occupation"`
	Organization string `json:"organization"`
	Bio          string `json:"bio"`
	Avatar       string `json:"avatar"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user := models.User{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Location:     req.Location,
		Occupation:   req.Occupation,
		Organization: req.Organization,
		Bio:          req.Bio,
		Avatar:       req.Avatar,
	}

	if err := h.service.RegisterUser(user); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"message": "Verification code sent"})
}

func (h *UserHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.service.ConfirmEmail(req.Email, req.Code); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Account activated"})
}

// Login checks the credentials and, on success, starts populating the
// session cache in the background so the first project listing is warm.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, token, err := h.service.LoginUser(req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	userID := user.ID.Hex()
	cache := h.registry.ForUser(userID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cache.BulkLoad(ctx); err != nil {
			logging.Logger.Errorf("Event ID: LOGIN_WARMUP_FAILED, Description: Background bulk load failed for user %s: %v", userID, err)
		}
		if _, err := cache.LoadUserData(ctx); err != nil {
			logging.Logger.Errorf("Event ID: LOGIN_WARMUP_FAILED, Description: Background user fetch failed for user %s: %v", userID, err)
		}
	}()

	user.Password = ""
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Logout drops the session cache; a later sign-in re-fetches everything.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	h.registry.Drop(claims.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Password updated"})
}

// DeleteAccount removes the account with its owned projects and drops the
// session cache. Destructive, so it demands explicit confirmation.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	if r.URL.Query().Get("confirm") != "true" {
		http.Error(w, "destructive action requires confirm=true", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), claims.UserID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.registry.Drop(claims.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)

	user := cache.UserData()
	if user.ID.IsZero() {
		loaded, err := cache.LoadUserData(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		user = *loaded
	}

	user.Password = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	cache := h.registry.ForUser(claims.UserID)

	var req struct {
		FullName     string `json:"fullname"`
		Location     string `json:"location"`
		Email        string `json:"email"`
		Occupation   string `json:"occupation"`
		Organization string `json:"organization"`
		IsActive     bool   `json:"isActive"`
		Bio          string `json:"bio"`
		Avatar       string `json:"avatar"`
		CoverImage   string `json:"coverImage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	err := cache.UpdateUserData(r.Context(), store.UserFields{
		FullName:     req.FullName,
		Location:     req.Location,
		Email:        req.Email,
		Occupation:   req.Occupation,
		Organization: req.Organization,
		IsActive:     req.IsActive,
		Bio:          req.Bio,
		Avatar:       req.Avatar,
		CoverImage:   req.CoverImage,
	})
	if err != nil {
		writeCacheError(w, err)
		return
	}

	user := cache.UserData()
	user.Password = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
