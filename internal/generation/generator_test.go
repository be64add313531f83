package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taleweave/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient replays canned completions in call order.
type stubClient struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubClient) Complete(ctx context.Context, system, user string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.responses[i], nil
}

func TestGenerateSuccess(t *testing.T) {
	stub := &stubClient{responses: []string{
		strings.Repeat("once upon a time ", 125),
		"The Clockwork Garden",
		"fantasy",
	}}
	g := NewGenerator(stub)

	res, err := g.Generate(context.Background(), "a garden where machines grow")
	require.NoError(t, err)
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, "The Clockwork Garden", res.Title)
	assert.NotEmpty(t, res.Content)
	assert.Equal(t, "fantasy", res.Genre)
	assert.True(t, res.IsAIGenerated)
}

func TestGenerateTitleStepFailureReturnsNoPartialResult(t *testing.T) {
	stub := &stubClient{
		responses: []string{"a full narrative", "", ""},
		errs:      []error{nil, ErrNoCompletion, nil},
	}
	g := NewGenerator(stub)

	res, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Nil(t, res, "no partial result may leak out")
	assert.Equal(t, 2, stub.calls, "genre call must not happen after title failure")

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UPSTREAM_ERROR", appErr.Code)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	g := NewGenerator(&stubClient{})
	_, err := g.Generate(context.Background(), "   ")

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestGenerateWithoutCredential(t *testing.T) {
	g := NewGenerator(nil)
	_, err := g.Generate(context.Background(), "prompt")

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestNormalizeGenre(t *testing.T) {
	assert.Equal(t, "science fiction", normalizeGenre(" Science Fiction. "))
	assert.Equal(t, "other", normalizeGenre("space opera"))
	assert.Equal(t, "other", normalizeGenre(""))
}

func TestClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  a story  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	got, err := c.Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "a story", got)
}

func TestClientCompleteMissingChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrNoCompletion)
}

func TestClientCompleteProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid api key"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key")
	_, err := c.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}
