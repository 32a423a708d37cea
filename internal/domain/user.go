package domain

import (
	"time"
)

type User struct {
	ID             string    `json:"id" bson:"_id"`
	Email          string    `json:"email" bson:"email"`
	Username       string    `json:"username" bson:"username"`
	Nickname       string    `json:"nickname" bson:"nickname"`
	PasswordHash   string    `json:"-" bson:"password_hash"`
	ProfileImageID string    `json:"-" bson:"profile_image_id,omitempty"`
	Token          string    `json:"-" bson:"token,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updated_at"`
}

// HasProfileImage reports whether an image has been uploaded for the user.
func (u *User) HasProfileImage() bool {
	return u.ProfileImageID != ""
}
