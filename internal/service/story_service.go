package service

import (
	"context"
	"errors"
	"fmt"

	"taleweave/internal/models"
	"taleweave/internal/repository"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateStoryInput is the payload for creating a story.
type CreateStoryInput struct {
	UserID        uint   `validate:"required"`
	Title         string `validate:"required,max=100"`
	Content       string `validate:"required,min=100"`
	Genre         string `validate:"required"`
	Status        string `validate:"omitempty,oneof=draft published"`
	ImageURL      string
	IsAIGenerated bool
}

// UpdateStoryInput carries partial-field update semantics: empty fields are
// left untouched.
type UpdateStoryInput struct {
	UserID   uint
	StoryID  uint
	Title    string `validate:"omitempty,max=100"`
	Content  string `validate:"omitempty,min=100"`
	Genre    string
	Status   string `validate:"omitempty,oneof=draft published"`
	ImageURL string
}

// ListStoriesInput selects a page of published stories.
type ListStoriesInput struct {
	Page   int
	Limit  int
	Genre  string
	Search string
	Author string
}

// StoryPage is one page of a story listing.
type StoryPage struct {
	Stories []*models.Story `json:"stories"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Pages   int             `json:"pages"`
	Limit   int             `json:"limit"`
}

// LikeState is the outcome of a like toggle.
type LikeState struct {
	Likes int64 `json:"likes"`
	Liked bool  `json:"liked"`
}

// StoryService implements story CRUD, likes, and comments.
type StoryService struct {
	storyRepo   repository.StoryRepository
	commentRepo repository.CommentRepository
}

// NewStoryService creates a new story service.
func NewStoryService(storyRepo repository.StoryRepository, commentRepo repository.CommentRepository) *StoryService {
	return &StoryService{storyRepo: storyRepo, commentRepo: commentRepo}
}

// Create validates and persists a new story. The word count is always
// derived from the content server-side.
func (s *StoryService) Create(ctx context.Context, in CreateStoryInput) (*models.Story, error) {
	if err := validate.Struct(in); err != nil {
		return nil, storyValidationError(err)
	}
	if !models.IsValidGenre(in.Genre) {
		return nil, models.NewValidationError("Unknown genre")
	}

	status := in.Status
	if status == "" {
		status = models.StoryStatusPublished
	}

	story := &models.Story{
		Title:         in.Title,
		Content:       in.Content,
		Genre:         in.Genre,
		UserID:        in.UserID,
		Status:        status,
		ImageURL:      in.ImageURL,
		IsAIGenerated: in.IsAIGenerated,
		WordCount:     models.CountWords(in.Content),
	}
	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, err
	}

	// Reload with the author populated for the response.
	return s.storyRepo.GetByID(ctx, story.ID, in.UserID)
}

// Get returns one story with its author and comment authors resolved.
func (s *StoryService) Get(ctx context.Context, id, viewerID uint) (*models.Story, error) {
	return s.storyRepo.GetByID(ctx, id, viewerID)
}

// List returns a page of published stories, newest first.
func (s *StoryService) List(ctx context.Context, in ListStoriesInput) (*StoryPage, error) {
	page, limit := normalizePage(in.Page, in.Limit)
	filter := repository.StoryFilter{
		Genre:  in.Genre,
		Search: in.Search,
		Author: in.Author,
	}
	if filter.Genre != "" && !models.IsValidGenre(filter.Genre) {
		return nil, models.NewValidationError("Unknown genre")
	}

	stories, total, err := s.storyRepo.List(ctx, filter, limit, (page-1)*limit, 0)
	if err != nil {
		return nil, err
	}

	return newStoryPage(stories, total, page, limit), nil
}

// ListByUser returns a page of one author's stories, drafts included.
// Only the author may request it.
func (s *StoryService) ListByUser(ctx context.Context, requesterID, authorID uint, pageNum, limit int) (*StoryPage, error) {
	if requesterID != authorID {
		return nil, models.NewForbiddenError("You can only list your own stories")
	}

	page, lim := normalizePage(pageNum, limit)
	filter := repository.StoryFilter{AuthorID: authorID, IncludeDrafts: true}
	stories, total, err := s.storyRepo.List(ctx, filter, lim, (page-1)*lim, requesterID)
	if err != nil {
		return nil, err
	}

	return newStoryPage(stories, total, page, lim), nil
}

// Update applies a partial update. Only the author may modify a story, and
// the author itself can never change.
func (s *StoryService) Update(ctx context.Context, in UpdateStoryInput) (*models.Story, error) {
	if err := validate.Struct(in); err != nil {
		return nil, storyValidationError(err)
	}

	story, err := s.storyRepo.GetByID(ctx, in.StoryID, in.UserID)
	if err != nil {
		return nil, err
	}
	if story.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own stories")
	}

	if in.Title != "" {
		story.Title = in.Title
	}
	if in.Content != "" {
		story.Content = in.Content
		story.WordCount = models.CountWords(in.Content)
	}
	if in.Genre != "" {
		if !models.IsValidGenre(in.Genre) {
			return nil, models.NewValidationError("Unknown genre")
		}
		story.Genre = in.Genre
	}
	if in.Status != "" {
		story.Status = in.Status
	}
	if in.ImageURL != "" {
		story.ImageURL = in.ImageURL
	}

	if err := s.storyRepo.Update(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

// Delete removes a story. Only the author may delete it.
func (s *StoryService) Delete(ctx context.Context, userID, storyID uint) error {
	story, err := s.storyRepo.GetByID(ctx, storyID, userID)
	if err != nil {
		return err
	}
	if story.UserID != userID {
		return models.NewForbiddenError("You can only delete your own stories")
	}
	return s.storyRepo.Delete(ctx, storyID)
}

// ToggleLike flips the requester's like membership on the story and returns
// the resulting count and state. Calling it twice restores the original state.
func (s *StoryService) ToggleLike(ctx context.Context, userID, storyID uint) (*LikeState, error) {
	// Ensure the story exists before touching the membership set.
	if _, err := s.storyRepo.GetByID(ctx, storyID, userID); err != nil {
		return nil, err
	}

	liked, err := s.storyRepo.IsLiked(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}

	if liked {
		err = s.storyRepo.Unlike(ctx, userID, storyID)
	} else {
		err = s.storyRepo.Like(ctx, userID, storyID)
	}
	if err != nil {
		return nil, err
	}

	count, err := s.storyRepo.LikeCount(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return &LikeState{Likes: count, Liked: !liked}, nil
}

// AddComment appends a comment and returns the story's full comment list
// with authors resolved.
func (s *StoryService) AddComment(ctx context.Context, userID, storyID uint, content string) ([]models.Comment, error) {
	if content == "" {
		return nil, models.NewValidationError("Comment text is required")
	}

	if _, err := s.storyRepo.GetByID(ctx, storyID, userID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: content,
		UserID:  userID,
		StoryID: storyID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.ListByStoryID(ctx, storyID)
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func newStoryPage(stories []*models.Story, total int64, page, limit int) *StoryPage {
	pages := int((total + int64(limit) - 1) / int64(limit))
	if stories == nil {
		stories = []*models.Story{}
	}
	return &StoryPage{
		Stories: stories,
		Total:   total,
		Page:    page,
		Pages:   pages,
		Limit:   limit,
	}
}

// storyValidationError translates validator tag failures into the API's
// user-facing messages.
func storyValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError("Invalid story payload")
	}

	fe := verrs[0]
	switch {
	case fe.Field() == "Title" && fe.Tag() == "max":
		return models.NewValidationError("Title must not exceed 100 characters")
	case fe.Field() == "Title":
		return models.NewValidationError("Title is required")
	case fe.Field() == "Content" && fe.Tag() == "min":
		return models.NewValidationError("Content must be at least 100 characters")
	case fe.Field() == "Content":
		return models.NewValidationError("Content is required")
	case fe.Field() == "Genre":
		return models.NewValidationError("Genre is required")
	case fe.Field() == "Status":
		return models.NewValidationError("Status must be draft or published")
	default:
		return models.NewValidationError(fmt.Sprintf("Invalid %s", fe.Field()))
	}
}
