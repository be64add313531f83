package generation

import (
	"context"
	"fmt"
	"strings"

	"taleweave/internal/models"
)

const (
	storyInstruction = "You are a creative storyteller. Write an engaging, " +
		"well-structured short story of 500 to 1000 words based on the " +
		"user's idea. Respond with the story text only."
	titleInstruction = "You create story titles. Respond with a title of at " +
		"most 5 words for the story you are given. Respond with the title " +
		"only, without quotes."
	genreInstruction = "You classify stories by genre. Respond with exactly " +
		"one genre from this list, in lowercase, and nothing else: "
)

// Result is a generated story ready to be passed to the create-story
// operation. Nothing is persisted by the generator itself.
type Result struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Genre         string `json:"genre"`
	IsAIGenerated bool   `json:"is_ai_generated"`
}

// Generator turns a free-text prompt into a full story via three provider
// calls: narrative, then title, then genre classification.
type Generator struct {
	client CompletionClient
}

// NewGenerator wires a Generator to a completion client. A nil client means
// no provider credential is configured.
func NewGenerator(client CompletionClient) *Generator {
	return &Generator{client: client}
}

// Generate produces a story from the prompt. Any step failing aborts the
// whole operation; no partial result is ever returned.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, models.NewValidationError("Prompt is required")
	}
	if g.client == nil {
		return nil, models.NewConfigError("Story generation is not configured")
	}

	content, err := g.client.Complete(ctx, storyInstruction, prompt)
	if err != nil {
		return nil, models.NewUpstreamError("Story generation failed", err)
	}

	title, err := g.client.Complete(ctx, titleInstruction, content)
	if err != nil {
		return nil, models.NewUpstreamError("Title generation failed", err)
	}

	genreList := strings.Join(models.Genres, ", ")
	genre, err := g.client.Complete(ctx, genreInstruction+genreList, content)
	if err != nil {
		return nil, models.NewUpstreamError("Genre classification failed", err)
	}

	return &Result{
		Title:         strings.Trim(title, `"`),
		Content:       content,
		Genre:         normalizeGenre(genre),
		IsAIGenerated: true,
	}, nil
}

// normalizeGenre maps a provider answer onto the fixed genre set; anything
// unrecognized becomes "other".
func normalizeGenre(genre string) string {
	cleaned := strings.ToLower(strings.TrimSpace(strings.Trim(genre, `."`)))
	if models.IsValidGenre(cleaned) {
		return cleaned
	}
	return "other"
}

// String implements fmt.Stringer for logging.
func (r *Result) String() string {
	return fmt.Sprintf("generated story %q (%s, %d words)", r.Title, r.Genre, models.CountWords(r.Content))
}
