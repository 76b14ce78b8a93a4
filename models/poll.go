package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Poll represents a question owned by the user who created it
type Poll struct {
	ID        string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	Question  string       `gorm:"not null" json:"question"`
	UserID    string       `gorm:"type:varchar(36);not null;index" json:"user_id"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Options   []PollOption `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE;" json:"poll_options"`
	Votes     []Vote       `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE;" json:"-"`
}

// PollOption is one selectable choice of a poll
type PollOption struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PollID    string    `gorm:"type:varchar(36);not null;index" json:"poll_id"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Votes     []Vote    `gorm:"foreignKey:PollOptionID;constraint:OnDelete:CASCADE;" json:"-"`
}

// Vote records a user's choice. Votes go away with their option or poll.
type Vote struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	PollOptionID string    `gorm:"type:varchar(36);not null;index" json:"poll_option_id"`
	PollID       string    `gorm:"type:varchar(36);not null;index" json:"poll_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (p *Poll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (o *PollOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
