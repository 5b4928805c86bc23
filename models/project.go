package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectStatus is the shared status vocabulary for projects and tasks.
// It is advisory: neither the store nor the cache rejects values outside
// the list, the pipeline below is a UI convention.
type ProjectStatus string

const (
	StatusBacklog   ProjectStatus = "backlog"
	StatusPending   ProjectStatus = "pending"
	StatusActive    ProjectStatus = "active"
	StatusInactive  ProjectStatus = "inactive"
	StatusCancelled ProjectStatus = "cancelled"
	StatusCompleted ProjectStatus = "completed"
)

type Project struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description" bson:"description"`
	Category      string             `json:"category" bson:"category"`
	UserID        string             `json:"userId" bson:"userId"`
	AssignedUsers []string           `json:"assignedUsers" bson:"assignedUsers"`
	Attachments   []string           `json:"attachments" bson:"attachments"`
	DueDate       string             `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Status        ProjectStatus      `json:"status" bson:"status"`
	ProjectEmoji  string             `json:"projectEmoji,omitempty" bson:"projectEmoji,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`

	// Tasks live in their own collection keyed by projectId; the field is
	// populated in memory only and never written back with the project.
	Tasks []Task `json:"tasks" bson:"-"`
}
