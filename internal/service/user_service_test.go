package service

import (
	"context"
	"testing"

	"taleweave/internal/models"
	"taleweave/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestUserService(t *testing.T) (*UserService, *StoryService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	media := NewMediaService(nil, t.TempDir())
	return NewUserService(userRepo, storyRepo, media),
		NewStoryService(storyRepo, repository.NewCommentRepository(db)),
		db
}

func TestGetProfileIncludesStoryCount(t *testing.T) {
	userSvc, storySvc, db := newTestUserService(t)
	user := seedUser(t, db, "profiled")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := storySvc.Create(ctx, CreateStoryInput{
			UserID:  user.ID,
			Title:   "Counted",
			Content: storyContent(120),
			Genre:   "fantasy",
		})
		require.NoError(t, err)
	}

	profile, err := userSvc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.StoryCount)
}

func TestUpdateProfile(t *testing.T) {
	userSvc, _, db := newTestUserService(t)
	user := seedUser(t, db, "renameable")
	ctx := context.Background()

	updated, err := userSvc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		Username: "renamed",
		Email:    "Renamed@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Username)
	assert.Equal(t, "renamed@example.com", updated.Email)

	// Empty fields leave the profile untouched.
	unchanged, err := userSvc.UpdateProfile(ctx, user.ID, UpdateProfileInput{})
	require.NoError(t, err)
	assert.Equal(t, "renamed", unchanged.Username)
}

func TestUpdateProfileUsernameTaken(t *testing.T) {
	userSvc, _, db := newTestUserService(t)
	seedUser(t, db, "claimed")
	user := seedUser(t, db, "claimant")

	_, err := userSvc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{Username: "claimed"})
	requireAppCode(t, err, "VALIDATION_ERROR")
	assert.Equal(t, "Username is already taken", err.Error())
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	userSvc, _, db := newTestUserService(t)
	seedUser(t, db, "holder")
	user := seedUser(t, db, "wanter")

	_, err := userSvc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{Email: "holder@example.com"})
	requireAppCode(t, err, "VALIDATION_ERROR")
	assert.Equal(t, "Email is already registered", err.Error())
}

func TestUpdateProfileKeepingOwnValues(t *testing.T) {
	userSvc, _, db := newTestUserService(t)
	user := seedUser(t, db, "steady")

	// Re-submitting your own username and email is not a conflict.
	updated, err := userSvc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		Username: "steady",
		Email:    "steady@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "steady", updated.Username)
}

func TestDeleteAccountRemovesStories(t *testing.T) {
	userSvc, storySvc, db := newTestUserService(t)
	user := seedUser(t, db, "departing")
	other := seedUser(t, db, "staying")
	ctx := context.Background()

	mine, err := storySvc.Create(ctx, CreateStoryInput{
		UserID:  user.ID,
		Title:   "Going away",
		Content: storyContent(120),
		Genre:   "drama",
	})
	require.NoError(t, err)

	theirs, err := storySvc.Create(ctx, CreateStoryInput{
		UserID:  other.ID,
		Title:   "Staying put",
		Content: storyContent(120),
		Genre:   "drama",
	})
	require.NoError(t, err)

	require.NoError(t, userSvc.DeleteAccount(ctx, user.ID))

	_, err = userSvc.GetProfile(ctx, user.ID)
	requireAppCode(t, err, "NOT_FOUND")
	_, err = storySvc.Get(ctx, mine.ID, 0)
	requireAppCode(t, err, "NOT_FOUND")

	// Other authors' stories survive.
	kept, err := storySvc.Get(ctx, theirs.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Staying put", kept.Title)
}

func TestUpdateAvatarLocalMode(t *testing.T) {
	userSvc, _, db := newTestUserService(t)
	user := seedUser(t, db, "pictured")

	updated, err := userSvc.UpdateAvatar(context.Background(), user.ID, pngBytes(), "image/png")
	require.NoError(t, err)
	assert.Contains(t, updated.Avatar, "/uploads/avatars/")
	assert.NotEmpty(t, updated.AvatarAssetID)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, updated.Avatar, stored.Avatar)
}

func TestUpdateAvatarRejectsBadMedia(t *testing.T) {
	userSvc, _, db := newTestUserService(t)
	user := seedUser(t, db, "texty")

	_, err := userSvc.UpdateAvatar(context.Background(), user.ID, []byte("plain text"), "text/plain")
	requireAppCode(t, err, "VALIDATION_ERROR")
}
