package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hasnain-a7/nextProjectFlow/middleware"
	"github.com/hasnain-a7/nextProjectFlow/services"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	notifications, err := h.service.GetNotificationsByUserID(claims.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	var req struct {
		NotificationID string `json:"notificationId"`
		CreatedAt      string `json:"createdAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkNotificationAsRead(claims.UserID, req.NotificationID, req.CreatedAt); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "Notification marked as read"})
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	var req struct {
		NotificationID string `json:"notificationId"`
		CreatedAt      string `json:"createdAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteNotification(claims.UserID, req.NotificationID, req.CreatedAt); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
