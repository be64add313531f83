package server

import (
	"io"

	"taleweave/internal/models"
	"taleweave/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/users/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), userID, service.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, user)
}

// DeleteProfile handles DELETE /api/users/profile
func (s *Server) DeleteProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if err := s.userService.DeleteAccount(c.UserContext(), userID); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.RespondMessage(c, fiber.StatusOK, "Account deleted")
}

// UploadProfilePicture handles POST /api/users/profile/picture
func (s *Server) UploadProfilePicture(c *fiber.Ctx) error {
	userID := currentUserID(c)

	content, contentType, err := readFormImage(c)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	user, err := s.userService.UpdateAvatar(c.UserContext(), userID, content, contentType)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, user)
}

// readFormImage reads the multipart "image" field.
func readFormImage(c *fiber.Ctx) ([]byte, string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, "", models.NewValidationError("No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, "", models.NewValidationError("Unable to read uploaded file")
	}

	return content, file.Header.Get("Content-Type"), nil
}
