package models

import (
	"time"
)

// Like represents a user's like on a story. The (UserID, StoryID) pair is
// unique, so the table behaves as a membership set and the toggle endpoint
// stays idempotent even under concurrent requests.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_story" json:"user_id"`
	StoryID   uint      `gorm:"not null;uniqueIndex:idx_user_story" json:"story_id"`
	CreatedAt time.Time `json:"created_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Story Story `gorm:"foreignKey:StoryID" json:"story,omitempty"`
}
