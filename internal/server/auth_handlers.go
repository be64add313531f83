package server

import (
	"taleweave/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/users/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	session, err := s.authService.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusCreated, fiber.Map{
		"token": session.Token,
		"user":  session.User,
	})
}

// Login handles POST /api/users/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	session, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.Respond(c, fiber.StatusOK, fiber.Map{
		"token": session.Token,
		"user":  session.User,
	})
}

// ForgotPassword handles POST /api/users/forgot-password. The reset token is
// delivered out of band; the response only acknowledges the request.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}

	if err := s.authService.IssueResetToken(c.UserContext(), req.Email); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.RespondMessage(c, fiber.StatusOK, "Password reset instructions sent")
}

// ResetPassword handles POST /api/users/reset-password
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.authService.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return models.RespondMessage(c, fiber.StatusOK, "Password has been reset")
}
