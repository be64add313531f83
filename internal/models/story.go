package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Story statuses. New stories default to published; drafts are only
// visible to their author.
const (
	StoryStatusDraft     = "draft"
	StoryStatusPublished = "published"
)

// Genres is the fixed set of story genres. The generation proxy classifies
// into this set as well; anything else normalizes to "other".
var Genres = []string{
	"fantasy",
	"science fiction",
	"mystery",
	"thriller",
	"romance",
	"horror",
	"adventure",
	"historical fiction",
	"literary fiction",
	"young adult",
	"children",
	"comedy",
	"drama",
	"crime",
	"western",
	"dystopian",
	"memoir",
	"poetry",
	"fairy tale",
	"other",
}

// IsValidGenre reports whether g is one of the fixed genres.
func IsValidGenre(g string) bool {
	for _, genre := range Genres {
		if genre == g {
			return true
		}
	}
	return false
}

// Story represents a published or drafted story.
type Story struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	Genre   string `gorm:"not null;index" json:"genre"`
	// UserID is the author and is immutable after creation.
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"author"`

	IsAIGenerated bool `gorm:"default:false" json:"is_ai_generated"`
	// WordCount always equals the whitespace-delimited token count of
	// Content at last save.
	WordCount int    `gorm:"not null" json:"word_count"`
	Status    string `gorm:"not null;default:published;index" json:"status"`
	ImageURL  string `json:"image_url,omitempty"`

	Comments []Comment `gorm:"foreignKey:StoryID" json:"comments,omitempty"`

	// LikesCount is not persisted; computed at query time.
	LikesCount int `gorm:"-" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time.
	CommentsCount int `gorm:"-" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this story (computed).
	Liked bool `gorm:"-" json:"liked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CountWords returns the whitespace-delimited token count of content.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
