package service

import (
	"context"
	"strings"
	"testing"

	"taleweave/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStoryContentBoundary(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "boundary")
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "Almost long enough",
		Content: strings.Repeat("x", 99),
		Genre:   "fantasy",
	})
	requireAppCode(t, err, "VALIDATION_ERROR")

	story, err := svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "Exactly long enough",
		Content: strings.Repeat("x", 100),
		Genre:   "fantasy",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StoryStatusPublished, story.Status)
}

func TestCreateStoryComputesWordCount(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "counter")

	content := storyContent(120)
	story, err := svc.Create(context.Background(), CreateStoryInput{
		UserID:  author.ID,
		Title:   "Counted",
		Content: content,
		Genre:   "mystery",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CountWords(content), story.WordCount)
	assert.Equal(t, 120, story.WordCount)
}

func TestCreateStoryRejectsUnknownGenre(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "genreless")

	_, err := svc.Create(context.Background(), CreateStoryInput{
		UserID:  author.ID,
		Title:   "Uncatalogued",
		Content: storyContent(120),
		Genre:   "vogon-poetry",
	})
	requireAppCode(t, err, "VALIDATION_ERROR")
}

func TestToggleLikeSelfInverse(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "liked")
	reader := seedUser(t, db, "reader")
	ctx := context.Background()

	story, err := svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "Likeable",
		Content: storyContent(120),
		Genre:   "romance",
	})
	require.NoError(t, err)

	state, err := svc.ToggleLike(ctx, reader.ID, story.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, int64(1), state.Likes)

	state, err = svc.ToggleLike(ctx, reader.ID, story.ID)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Equal(t, int64(0), state.Likes)
}

func TestToggleLikeMissingStory(t *testing.T) {
	svc, db := newTestStoryService(t)
	reader := seedUser(t, db, "ghostreader")

	_, err := svc.ToggleLike(context.Background(), reader.ID, 9999)
	requireAppCode(t, err, "NOT_FOUND")
}

func TestUpdateStoryNonAuthorRejected(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "owner")
	intruder := seedUser(t, db, "intruder")
	ctx := context.Background()

	story, err := svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "Mine",
		Content: storyContent(120),
		Genre:   "horror",
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateStoryInput{
		UserID:  intruder.ID,
		StoryID: story.ID,
		Title:   "Stolen",
	})
	requireAppCode(t, err, "FORBIDDEN")

	unchanged, err := svc.Get(ctx, story.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", unchanged.Title)
}

func TestUpdateStoryRecomputesWordCount(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "rewriter")
	ctx := context.Background()

	story, err := svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "First draft",
		Content: storyContent(120),
		Genre:   "fantasy",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, UpdateStoryInput{
		UserID:  author.ID,
		StoryID: story.ID,
		Content: storyContent(250),
	})
	require.NoError(t, err)
	assert.Equal(t, 250, updated.WordCount)
}

func TestDeleteStoryNonAuthorRejected(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "keeper")
	intruder := seedUser(t, db, "vandal")
	ctx := context.Background()

	story, err := svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "Kept",
		Content: storyContent(120),
		Genre:   "thriller",
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, intruder.ID, story.ID)
	requireAppCode(t, err, "FORBIDDEN")

	still, err := svc.Get(ctx, story.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kept", still.Title)

	require.NoError(t, svc.Delete(ctx, author.ID, story.ID))
	_, err = svc.Get(ctx, story.ID, author.ID)
	requireAppCode(t, err, "NOT_FOUND")
}

func TestListPagination(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "prolific")
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := svc.Create(ctx, CreateStoryInput{
			UserID:  author.ID,
			Title:   "Serialized",
			Content: storyContent(120),
			Genre:   "adventure",
		})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, ListStoriesInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, first.Stories, 10)
	assert.Equal(t, int64(15), first.Total)
	assert.Equal(t, 2, first.Pages)

	second, err := svc.List(ctx, ListStoriesInput{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, second.Stories, 5)
}

func TestListExcludesDrafts(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "drafter")
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "Public",
		Content: storyContent(120),
		Genre:   "fantasy",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "Hidden",
		Content: storyContent(120),
		Genre:   "fantasy",
		Status:  models.StoryStatusDraft,
	})
	require.NoError(t, err)

	page, err := svc.List(ctx, ListStoriesInput{})
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, "Public", page.Stories[0].Title)

	// The author's own listing still shows the draft.
	own, err := svc.ListByUser(ctx, author.ID, author.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, own.Stories, 2)
}

func TestListFilters(t *testing.T) {
	svc, db := newTestStoryService(t)
	aria := seedUser(t, db, "aria")
	brook := seedUser(t, db, "brook")
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateStoryInput{
		UserID:  aria.ID,
		Title:   "The Clockwork Garden",
		Content: storyContent(120),
		Genre:   "science fiction",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateStoryInput{
		UserID:  brook.ID,
		Title:   "Tide and Stone",
		Content: storyContent(120),
		Genre:   "romance",
	})
	require.NoError(t, err)

	byGenre, err := svc.List(ctx, ListStoriesInput{Genre: "science fiction"})
	require.NoError(t, err)
	require.Len(t, byGenre.Stories, 1)
	assert.Equal(t, "The Clockwork Garden", byGenre.Stories[0].Title)

	byAuthor, err := svc.List(ctx, ListStoriesInput{Author: "brook"})
	require.NoError(t, err)
	require.Len(t, byAuthor.Stories, 1)
	assert.Equal(t, "Tide and Stone", byAuthor.Stories[0].Title)

	bySearch, err := svc.List(ctx, ListStoriesInput{Search: "clockwork"})
	require.NoError(t, err)
	require.Len(t, bySearch.Stories, 1)
	assert.Equal(t, "The Clockwork Garden", bySearch.Stories[0].Title)
}

func TestListByUserOtherUserRejected(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "private")
	snoop := seedUser(t, db, "snoop")

	_, err := svc.ListByUser(context.Background(), snoop.ID, author.ID, 1, 10)
	requireAppCode(t, err, "FORBIDDEN")
}

func TestAddComment(t *testing.T) {
	svc, db := newTestStoryService(t)
	author := seedUser(t, db, "storyteller")
	reader := seedUser(t, db, "commenter")
	ctx := context.Background()

	story, err := svc.Create(ctx, CreateStoryInput{
		UserID:  author.ID,
		Title:   "Discussed",
		Content: storyContent(120),
		Genre:   "drama",
	})
	require.NoError(t, err)

	comments, err := svc.AddComment(ctx, reader.ID, story.ID, "Loved the ending")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Loved the ending", comments[0].Content)
	assert.Equal(t, "commenter", comments[0].User.Username)

	comments, err = svc.AddComment(ctx, author.ID, story.ID, "Thank you!")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	// Oldest first.
	assert.Equal(t, "Loved the ending", comments[0].Content)

	_, err = svc.AddComment(ctx, reader.ID, story.ID, "")
	requireAppCode(t, err, "VALIDATION_ERROR")
}
