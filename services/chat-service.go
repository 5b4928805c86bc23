package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/logging"
	"github.com/hasnain-a7/nextProjectFlow/models"
	"github.com/hasnain-a7/nextProjectFlow/store"
)

// DefaultChatPageSize matches the chat window's fetch window of ten
// messages per page.
const DefaultChatPageSize = 10

var ErrChatForbidden = errors.New("user is not a member of this project")

// Subscriber receives messages appended to one project's chat after the
// subscription was taken.
type Subscriber struct {
	C         chan models.ChatMessage
	projectID string
}

// ChatService persists per-project chat messages and pushes appended
// messages to live subscribers.
type ChatService struct {
	store store.DocumentStore

	mu          sync.Mutex
	subscribers map[string]map[*Subscriber]bool
}

func NewChatService(documentStore store.DocumentStore) *ChatService {
	return &ChatService{
		store:       documentStore,
		subscribers: make(map[string]map[*Subscriber]bool),
	}
}

// CanAccess reports whether userID owns the project or is assigned to it.
func (s *ChatService) CanAccess(ctx context.Context, projectID, userID string) (bool, error) {
	project, err := s.store.ProjectByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	if project.UserID == userID {
		return true, nil
	}
	for _, id := range project.AssignedUsers {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// SendMessage stores one chat message and broadcasts it to the project's
// subscribers. The sender must be a project member.
func (s *ChatService) SendMessage(ctx context.Context, projectID, senderID, senderName, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}

	ok, err := s.CanAccess(ctx, projectID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrChatForbidden
	}

	msg := models.ChatMessage{
		ProjectID:  projectID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		CreatedAt:  time.Now(),
	}

	if _, err := s.store.InsertChatMessage(ctx, &msg); err != nil {
		logging.Logger.Errorf("Event ID: CHAT_SEND_FAILED, Description: Failed to store message in project %s: %v", projectID, err)
		return nil, err
	}

	s.broadcast(projectID, msg)
	return &msg, nil
}

// History returns one page of messages older than before, newest first.
// Pass a zero before for the latest page. The page size is capped at the
// default window.
func (s *ChatService) History(ctx context.Context, projectID, userID string, before time.Time, limit int) ([]models.ChatMessage, error) {
	ok, err := s.CanAccess(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrChatForbidden
	}

	if limit <= 0 || limit > DefaultChatPageSize {
		limit = DefaultChatPageSize
	}
	return s.store.ChatMessagesBefore(ctx, projectID, before, limit)
}

// Subscribe registers a live listener for the project's chat. The caller
// must drain the channel and call Unsubscribe when done.
func (s *ChatService) Subscribe(projectID string) *Subscriber {
	sub := &Subscriber{
		C:         make(chan models.ChatMessage, 16),
		projectID: projectID,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribers[projectID] == nil {
		s.subscribers[projectID] = make(map[*Subscriber]bool)
	}
	s.subscribers[projectID][sub] = true
	return sub
}

// Unsubscribe removes the listener and closes its channel.
func (s *ChatService) Unsubscribe(sub *Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscribers[sub.projectID]
	if subs == nil || !subs[sub] {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(s.subscribers, sub.projectID)
	}
	close(sub.C)
}

func (s *ChatService) broadcast(projectID string, msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subscribers[projectID] {
		select {
		case sub.C <- msg:
		default:
			// Slow consumer, drop the message rather than block the
			// sender.
		}
	}
}
