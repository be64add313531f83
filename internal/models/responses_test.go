package models

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorEnvelope(t *testing.T, err error) Envelope {
	t.Helper()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, StatusFor(err), err)
	})

	resp, reqErr := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, reqErr)
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)

	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestRespondWithErrorDetailsFollowEnvironment(t *testing.T) {
	t.Cleanup(func() { SetEnvironment("test") })

	cause := errors.New("dial tcp: connection refused")
	appErr := NewInternalError(cause)

	SetEnvironment("development")
	env := errorEnvelope(t, appErr)
	assert.False(t, env.Success)
	assert.Equal(t, appErr.Message, env.Message)
	assert.Equal(t, cause.Error(), env.Details)

	SetEnvironment("production")
	env = errorEnvelope(t, appErr)
	assert.False(t, env.Success)
	assert.Equal(t, appErr.Message, env.Message)
	assert.Empty(t, env.Details)
}

func TestRespondWithErrorPlainError(t *testing.T) {
	t.Cleanup(func() { SetEnvironment("test") })
	SetEnvironment("development")

	env := errorEnvelope(t, errors.New("something odd"))
	assert.False(t, env.Success)
	assert.Equal(t, "something odd", env.Message)
	assert.Empty(t, env.Details)
}
