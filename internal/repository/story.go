package repository

import (
	"context"
	"errors"

	"taleweave/internal/cache"
	"taleweave/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoryFilter narrows a story listing. Zero values mean "no filter".
type StoryFilter struct {
	Genre  string
	Search string
	// Author filters by author username.
	Author string
	// AuthorID filters by author id (used by the self-only listing).
	AuthorID uint
	// IncludeDrafts widens the listing beyond published stories. Only the
	// self-only listing sets it.
	IncludeDrafts bool
}

// StoryRepository defines the interface for story data operations
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Story, error)
	List(ctx context.Context, filter StoryFilter, limit, offset int, currentUserID uint) ([]*models.Story, int64, error)
	Update(ctx context.Context, story *models.Story) error
	Delete(ctx context.Context, id uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	IsLiked(ctx context.Context, userID, storyID uint) (bool, error)
	Like(ctx context.Context, userID, storyID uint) error
	Unlike(ctx context.Context, userID, storyID uint) error
	LikeCount(ctx context.Context, storyID uint) (int64, error)
}

type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *storyRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Story, error) {
	var story models.Story

	fetch := func() error {
		err := r.applyStoryDetails(r.db.WithContext(ctx), currentUserID).
			Preload("User").
			Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Order("comments.created_at ASC")
			}).
			Preload("Comments.User").
			First(&story, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Story", id)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	// Anonymous reads share one cacheable view; viewer-specific reads carry
	// the liked flag and bypass the cache.
	var err error
	if currentUserID == 0 {
		err = cache.Aside(ctx, cache.StoryKey(id), &story, cache.StoryTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) List(ctx context.Context, filter StoryFilter, limit, offset int, currentUserID uint) ([]*models.Story, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Story{})

	if !filter.IncludeDrafts {
		base = base.Where("stories.status = ?", models.StoryStatusPublished)
	}
	if filter.Genre != "" {
		base = base.Where("stories.genre = ?", filter.Genre)
	}
	if filter.AuthorID != 0 {
		base = base.Where("stories.user_id = ?", filter.AuthorID)
	}
	if filter.Author != "" {
		base = base.Joins("JOIN users ON users.id = stories.user_id").
			Where("users.username = ?", filter.Author)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		base = base.Where("LOWER(stories.title) LIKE LOWER(?) OR LOWER(stories.content) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var stories []*models.Story
	err := r.applyStoryDetails(base.Session(&gorm.Session{}), currentUserID).
		Preload("User").
		Order("stories.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&stories).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	return stories, total, nil
}

// applyStoryDetails adds subqueries to fetch counts and liked status in a single query.
func (r *storyRepository) applyStoryDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "stories.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.story_id = stories.id AND comments.deleted_at IS NULL) as comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.story_id = stories.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.story_id = stories.id AND likes.user_id = ?) as liked", currentUserID)
	}

	return db.Select(selectQuery + ", false as liked")
}

func (r *storyRepository) Update(ctx context.Context, story *models.Story) error {
	// The story may carry preloaded author/comments; only its own columns change.
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(story).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStory(ctx, story.ID)
	return nil
}

func (r *storyRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Story{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStory(ctx, id)
	return nil
}

// DeleteByUserID soft-deletes all stories by one author. Used on account
// deletion; likes the author placed on other stories are intentionally left.
func (r *storyRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Story{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Delete(&models.Story{}, ids).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, id := range ids {
		cache.InvalidateStory(ctx, id)
	}
	return nil
}

func (r *storyRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Story{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *storyRepository) IsLiked(ctx context.Context, userID, storyID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *storyRepository) Like(ctx context.Context, userID, storyID uint) error {
	// INSERT ... ON CONFLICT DO NOTHING keeps the membership set
	// duplicate-free even when two toggles race.
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO likes (user_id, story_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, story_id) DO NOTHING`,
		userID, storyID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	cache.InvalidateStory(ctx, storyID)
	return nil
}

func (r *storyRepository) Unlike(ctx context.Context, userID, storyID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStory(ctx, storyID)
	return nil
}

func (r *storyRepository) LikeCount(ctx context.Context, storyID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("story_id = ?", storyID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
