package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/models"
)

func seedChatProject(fs *fakeStore) string {
	return fs.seedProject(models.Project{
		Title:         "Website",
		UserID:        "owner",
		AssignedUsers: []string{"member"},
	})
}

func TestChatAccess(t *testing.T) {
	fs := newFakeStore()
	projectID := seedChatProject(fs)
	svc := NewChatService(fs)

	cases := []struct {
		userID string
		want   bool
	}{
		{"owner", true},
		{"member", true},
		{"stranger", false},
	}
	for _, tc := range cases {
		ok, err := svc.CanAccess(context.Background(), projectID, tc.userID)
		if err != nil {
			t.Fatalf("CanAccess(%s) failed: %v", tc.userID, err)
		}
		if ok != tc.want {
			t.Errorf("CanAccess(%s) = %v, want %v", tc.userID, ok, tc.want)
		}
	}
}

func TestSendMessageRequiresMembership(t *testing.T) {
	fs := newFakeStore()
	projectID := seedChatProject(fs)
	svc := NewChatService(fs)

	if _, err := svc.SendMessage(context.Background(), projectID, "stranger", "Stranger", "hi"); !errors.Is(err, ErrChatForbidden) {
		t.Fatalf("expected ErrChatForbidden, got %v", err)
	}
	if len(fs.chat[projectID]) != 0 {
		t.Error("expected no message to be stored for a non-member")
	}
}

func TestSendMessageRejectsBlankText(t *testing.T) {
	fs := newFakeStore()
	projectID := seedChatProject(fs)
	svc := NewChatService(fs)

	if _, err := svc.SendMessage(context.Background(), projectID, "owner", "Owner", "   "); err == nil {
		t.Fatal("expected an error for blank text")
	}
}

func TestSendMessageStoresAndBroadcasts(t *testing.T) {
	fs := newFakeStore()
	projectID := seedChatProject(fs)
	svc := NewChatService(fs)

	sub := svc.Subscribe(projectID)
	defer svc.Unsubscribe(sub)

	sent, err := svc.SendMessage(context.Background(), projectID, "member", "Member", "  hello  ")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if sent.Text != "hello" {
		t.Errorf("expected text to be trimmed, got %q", sent.Text)
	}
	if sent.ID.IsZero() {
		t.Error("expected the stored message to carry an identifier")
	}

	select {
	case got := <-sub.C:
		if got.Text != "hello" || got.SenderID != "member" {
			t.Errorf("unexpected broadcast message: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the broadcast")
	}
}

func TestHistoryPagination(t *testing.T) {
	fs := newFakeStore()
	projectID := seedChatProject(fs)
	svc := NewChatService(fs)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		fs.chat[projectID] = append(fs.chat[projectID], models.ChatMessage{
			ProjectID: projectID,
			SenderID:  "owner",
			Text:      "m",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	// Latest page: newest 10, newest first.
	page, err := svc.History(context.Background(), projectID, "owner", time.Time{}, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(page) != DefaultChatPageSize {
		t.Fatalf("expected %d messages, got %d", DefaultChatPageSize, len(page))
	}
	if !page[0].CreatedAt.Equal(base.Add(24 * time.Minute)) {
		t.Errorf("expected the newest message first, got %v", page[0].CreatedAt)
	}
	for i := 1; i < len(page); i++ {
		if page[i].CreatedAt.After(page[i-1].CreatedAt) {
			t.Fatal("expected messages ordered newest first")
		}
	}

	// Next page: strictly older than the oldest of the first page.
	oldest := page[len(page)-1].CreatedAt
	next, err := svc.History(context.Background(), projectID, "owner", oldest, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(next) != DefaultChatPageSize {
		t.Fatalf("expected %d messages on the second page, got %d", DefaultChatPageSize, len(next))
	}
	if !next[0].CreatedAt.Before(oldest) {
		t.Error("expected the second page to be strictly older than the cursor")
	}

	// A limit above the window is capped.
	capped, err := svc.History(context.Background(), projectID, "owner", time.Time{}, 50)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(capped) != DefaultChatPageSize {
		t.Errorf("expected the page size to be capped at %d, got %d", DefaultChatPageSize, len(capped))
	}
}

func TestHistoryRequiresMembership(t *testing.T) {
	fs := newFakeStore()
	projectID := seedChatProject(fs)
	svc := NewChatService(fs)

	if _, err := svc.History(context.Background(), projectID, "stranger", time.Time{}, 0); !errors.Is(err, ErrChatForbidden) {
		t.Fatalf("expected ErrChatForbidden, got %v", err)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	fs := newFakeStore()
	projectID := seedChatProject(fs)
	svc := NewChatService(fs)

	sub := svc.Subscribe(projectID)
	svc.Unsubscribe(sub)

	if _, open := <-sub.C; open {
		t.Error("expected the channel to be closed after Unsubscribe")
	}

	// A second Unsubscribe must not panic on the closed channel.
	svc.Unsubscribe(sub)

	// Broadcasts after unsubscribe must not reach the removed listener.
	if _, err := svc.SendMessage(context.Background(), projectID, "owner", "Owner", "after"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
}
