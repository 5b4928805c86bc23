package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hasnain-a7/nextProjectFlow/services"
)

type AssistantHandler struct {
	service *services.AssistantService
}

func NewAssistantHandler(service *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// Chat proxies the conversation to the completion service. Every failure
// collapses into the one generic reply the client already knows how to
// render.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []services.ChatTurn `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if len(req.Messages) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"generated_text": "No messages provided."})
		return
	}

	text, err := h.service.Generate(r.Context(), req.Messages)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"generated_text": services.GenericFailureText})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"generated_text": text})
}
