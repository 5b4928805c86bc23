package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Task struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID   string             `json:"projectId" bson:"projectId"`
	Title       string             `json:"title" bson:"title"`
	Todo        string             `json:"todo" bson:"todo"`
	Status      ProjectStatus      `json:"status" bson:"status"`
	Attachments []string           `json:"attachments" bson:"attachments"`
	DueDate     string             `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	TodoEmoji   string             `json:"todoEmoji,omitempty" bson:"todoEmoji,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
