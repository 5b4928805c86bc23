package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email              string             `json:"email" bson:"email"`
	Password           string             `json:"password,omitempty" bson:"password"`
	FullName           string             `json:"fullname" bson:"fullname"`
	Location           string             `json:"location,omitempty" bson:"location,omitempty"`
	Occupation         string             `json:"occupation,omitempty" bson:"occupation,omitempty"`
	Organization       string             `json:"organization,omitempty" bson:"organization,omitempty"`
	IsActive           bool               `json:"isActive" bson:"isActive"`
	Bio                string             `json:"bio,omitempty" bson:"bio,omitempty"`
	Avatar             string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CoverImage         string             `json:"coverImage,omitempty" bson:"coverImage,omitempty"`
	VerificationCode   string             `json:"-" bson:"verificationCode,omitempty"`
	VerificationExpiry time.Time          `json:"-" bson:"verificationExpiry,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
