package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a reader comment on a story. Comments are append-only;
// there is no deletion path in the API.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"not null" json:"content"`
	UserID    uint           `gorm:"not null" json:"user_id"`
	StoryID   uint           `gorm:"not null;index" json:"story_id"`
	User      User           `gorm:"foreignKey:UserID" json:"author"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
