// Package store wraps the hosted document database behind a narrow
// interface so the session cache and chat never touch driver types
// directly.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/models"
)

var (
	// ErrNotFound is returned when the referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned by conditional updates when the stored
	// document has been modified since the caller last read it.
	ErrConflict = errors.New("document changed since last read")
)

// ProjectFields is the full editable field set written by a project
// update. Assigned users are managed separately with set semantics.
type ProjectFields struct {
	Title        string
	Description  string
	Category     string
	Attachments  []string
	DueDate      string
	Status       models.ProjectStatus
	ProjectEmoji string
	UpdatedAt    time.Time
}

// TaskFields is the editable field set written by a task update.
type TaskFields struct {
	Title       string
	Todo        string
	Status      models.ProjectStatus
	Attachments []string
	DueDate     string
	TodoEmoji   string
	UpdatedAt   time.Time
}

// UserFields is the editable profile field set for a user document.
type UserFields struct {
	FullName     string
	Location     string
	Email        string
	Occupation   string
	Organization string
	IsActive     bool
	Bio          string
	Avatar       string
	CoverImage   string
	UpdatedAt    time.Time
}

// DocumentStore is the contract the session cache and chat depend on.
// Implemented by MongoStore in production and by an in-memory fake in
// tests.
type DocumentStore interface {
	// Projects
	ProjectsByOwner(ctx context.Context, userID string) ([]models.Project, error)
	ProjectsByAssignee(ctx context.Context, userID string) ([]models.Project, error)
	ProjectByID(ctx context.Context, projectID string) (*models.Project, error)
	InsertProject(ctx context.Context, project *models.Project) (string, error)
	// UpdateProject performs a conditional write: when lastSeen is
	// non-zero the write only applies if the stored updatedAt still
	// equals it, otherwise ErrConflict.
	UpdateProject(ctx context.Context, projectID string, fields ProjectFields, lastSeen time.Time) error
	AddAssignedUsers(ctx context.Context, projectID string, userIDs []string) error
	RemoveAssignedUsers(ctx context.Context, projectID string, userIDs []string) error
	DeleteProject(ctx context.Context, projectID string) error

	// Tasks (sub-collection keyed by projectId)
	TasksByProject(ctx context.Context, projectID string) ([]models.Task, error)
	// TasksDueBetween returns tasks whose due date falls inside the
	// inclusive [from, to] range. Due dates are YYYY-MM-DD strings, so
	// lexicographic comparison is chronological.
	TasksDueBetween(ctx context.Context, from, to string) ([]models.Task, error)
	InsertTask(ctx context.Context, task *models.Task) (string, error)
	UpdateTask(ctx context.Context, projectID, taskID string, fields TaskFields, lastSeen time.Time) error
	DeleteTask(ctx context.Context, projectID, taskID string) error
	DeleteTasksByProject(ctx context.Context, projectID string) error

	// Users
	UserByID(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, fields UserFields) error
	DeleteUser(ctx context.Context, userID string) error

	// Chat (sub-collection keyed by projectId)
	InsertChatMessage(ctx context.Context, msg *models.ChatMessage) (string, error)
	// ChatMessagesBefore returns up to limit messages older than before,
	// newest first. A zero before means "from the latest".
	ChatMessagesBefore(ctx context.Context, projectID string, before time.Time, limit int) ([]models.ChatMessage, error)
	DeleteChatByProject(ctx context.Context, projectID string) error
}
