package repository

import (
	"context"

	"taleweave/internal/cache"
	"taleweave/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for story comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByStoryID(ctx context.Context, storyID uint) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStory(ctx, comment.StoryID)
	return nil
}

// ListByStoryID returns the story's comments oldest-first with their authors
// resolved.
func (r *commentRepository) ListByStoryID(ctx context.Context, storyID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("story_id = ?", storyID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
