// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered Taleweave author.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	// Avatar is the public URL of the profile picture, either on the asset
	// host or under the local /uploads path.
	Avatar string `json:"avatar,omitempty"`
	// AvatarAssetID is the opaque asset-host identifier of the current
	// avatar, kept so the previous asset can be retired on replacement.
	AvatarAssetID string `json:"-"`

	ResetToken          string     `gorm:"index" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	// StoryCount is not persisted; computed at query time.
	StoryCount int `gorm:"-" json:"story_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Stories   []Story        `gorm:"foreignKey:UserID" json:"stories,omitempty"`
}
