package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can sign in and own polls
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Identity is the authenticated caller handed to the poll service.
// A nil *Identity means the request is anonymous.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Owns reports whether the identity is the owner of the given poll owner id
func (i *Identity) Owns(ownerID string) bool {
	return i != nil && i.UserID != "" && i.UserID == ownerID
}
