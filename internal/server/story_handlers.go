package server

import (
	"strings"

	"taleweave/internal/models"
	"taleweave/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateStory handles POST /api/stories. The request may be JSON or
// multipart; multipart requests may attach an optional "image" field which
// is published before the story is persisted.
func (s *Server) CreateStory(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Title   string `json:"title" form:"title"`
		Content string `json:"content" form:"content"`
		Genre   string `json:"genre" form:"genre"`
		Status  string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var imageURL string
	if file, err := c.FormFile("image"); err == nil && file != nil {
		content, contentType, readErr := readFormImage(c)
		if readErr != nil {
			return models.RespondWithError(c, models.StatusFor(readErr), readErr)
		}
		url, _, pubErr := s.mediaService.Publish(c.UserContext(), content, contentType, service.FolderStories)
		if pubErr != nil {
			return models.RespondWithError(c, models.StatusFor(pubErr), pubErr)
		}
		imageURL = url
	}

	story, err := s.storyService.Create(c.UserContext(), service.CreateStoryInput{
		UserID:   userID,
		Title:    req.Title,
		Content:  req.Content,
		Genre:    req.Genre,
		Status:   req.Status,
		ImageURL: imageURL,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusCreated, story)
}

// GetStories handles GET /api/stories
func (s *Server) GetStories(c *fiber.Ctx) error {
	p := parsePagination(c, 10)

	page, err := s.storyService.List(c.UserContext(), service.ListStoriesInput{
		Page:   p.Page,
		Limit:  p.Limit,
		Genre:  strings.TrimSpace(c.Query("genre")),
		Search: strings.TrimSpace(c.Query("search")),
		Author: strings.TrimSpace(c.Query("author")),
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, page)
}

// GetStory handles GET /api/stories/:id
func (s *Server) GetStory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	story, err := s.storyService.Get(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, story)
}

// GetUserStories handles GET /api/stories/user/:userId. A requester may only
// list their own stories.
func (s *Server) GetUserStories(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 10)
	page, err := s.storyService.ListByUser(c.UserContext(), currentUserID(c), authorID, p.Page, p.Limit)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	if page.Total == 0 {
		return models.RespondData(c, fiber.StatusOK, "You haven't written any stories yet", page)
	}
	return models.Respond(c, fiber.StatusOK, page)
}

// UpdateStory handles PUT /api/stories/:id
func (s *Server) UpdateStory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title    string `json:"title" form:"title"`
		Content  string `json:"content" form:"content"`
		Genre    string `json:"genre" form:"genre"`
		Status   string `json:"status" form:"status"`
		ImageURL string `json:"image_url" form:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	story, err := s.storyService.Update(c.UserContext(), service.UpdateStoryInput{
		UserID:   currentUserID(c),
		StoryID:  id,
		Title:    req.Title,
		Content:  req.Content,
		Genre:    req.Genre,
		Status:   req.Status,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, story)
}

// DeleteStory handles DELETE /api/stories/:id
func (s *Server) DeleteStory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.storyService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.RespondMessage(c, fiber.StatusOK, "Story deleted")
}

// ToggleLike handles POST /api/stories/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.storyService.ToggleLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, state)
}

// AddComment handles POST /api/stories/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comments, err := s.storyService.AddComment(c.UserContext(), currentUserID(c), id, strings.TrimSpace(req.Content))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusCreated, comments)
}

// GenerateStory handles POST /api/stories/generate. The generated result is
// returned without persisting; saving it is a separate create-story call.
func (s *Server) GenerateStory(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.generator.Generate(c.UserContext(), strings.TrimSpace(req.Prompt))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, result)
}
