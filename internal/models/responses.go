package models

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var production bool

// SetEnvironment records the running environment once at startup. Error
// details are suppressed from responses when it is production.
func SetEnvironment(env string) {
	production = env == "production" || env == "prod"
}

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	// Details carries the underlying error text and is only populated
	// outside production.
	Details string `json:"details,omitempty"`
}

// Respond writes a success envelope with a data payload.
func Respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data})
}

// RespondMessage writes a success envelope carrying only a message.
func RespondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: true, Message: message})
}

// RespondData writes a success envelope with both a message and a payload.
func RespondData(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Message: message, Data: data})
}

// RespondWithError writes a failure envelope for the given error.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	resp := Envelope{Success: false}

	var appErr *AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		if appErr.Err != nil && !production {
			resp.Details = appErr.Err.Error()
		}
	} else {
		resp.Message = err.Error()
	}

	return c.Status(status).JSON(resp)
}
