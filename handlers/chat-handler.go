package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/logging"
	"github.com/hasnain-a7/nextProjectFlow/middleware"
	"github.com/hasnain-a7/nextProjectFlow/services"
	"github.com/hasnain-a7/nextProjectFlow/store"
	"github.com/hasnain-a7/nextProjectFlow/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrChatForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "project not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// History returns one page of chat messages, newest first. The client
// walks backwards by passing the oldest createdAt it has as "before".
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	projectID := mux.Vars(r)["projectId"]

	var before time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			http.Error(w, "invalid before timestamp", http.StatusBadRequest)
			return
		}
		before = parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	messages, err := h.service.History(r.Context(), projectID, claims.UserID, before, limit)
	if err != nil {
		writeChatError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

// Send stores one message and pushes it to live subscribers.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	projectID := mux.Vars(r)["projectId"]

	var req struct {
		SenderName string `json:"senderName"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), projectID, claims.UserID, req.SenderName, req.Text)
	if err != nil {
		writeChatError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

// Subscribe upgrades to a websocket and streams messages appended to the
// project's chat. Browsers cannot set headers on websocket dials, so the
// token travels as a query parameter here.
func (h *ChatHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	claims, err := utils.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	ok, err := h.service.CanAccess(r.Context(), projectID, claims.UserID)
	if err != nil {
		writeChatError(w, err)
		return
	}
	if !ok {
		http.Error(w, "user is not a member of this project", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Errorf("Event ID: CHAT_UPGRADE_FAILED, Description: Websocket upgrade failed for project %s: %v", projectID, err)
		return
	}

	sub := h.service.Subscribe(projectID)
	defer h.service.Unsubscribe(sub)
	defer conn.Close()

	// Reader goroutine: inbound frames are sends; a read error means the
	// peer went away and unblocks the writer below through done.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var inbound struct {
				SenderName string `json:"senderName"`
				Text       string `json:"text"`
			}
			if err := conn.ReadJSON(&inbound); err != nil {
				return
			}
			if _, err := h.service.SendMessage(r.Context(), projectID, claims.UserID, inbound.SenderName, inbound.Text); err != nil {
				logging.Logger.Warnf("Event ID: CHAT_WS_SEND_FAILED, Description: Inbound message rejected on project %s: %v", projectID, err)
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
