package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatMessage is one entry in a project's chat sub-collection.
type ChatMessage struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID  string             `json:"projectId" bson:"projectId"`
	SenderID   string             `json:"senderId" bson:"senderId"`
	SenderName string             `json:"senderName" bson:"senderName"`
	Text       string             `json:"text" bson:"text"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}
