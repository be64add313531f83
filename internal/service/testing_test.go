package service

import (
	"fmt"
	"strings"
	"testing"

	"taleweave/internal/models"
	"taleweave/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory database keeps every pooled connection on the
	// same data; a bare :memory: DSN gives each connection its own.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Story{}, &models.Comment{}, &models.Like{}))
	return db
}

func newTestStoryService(t *testing.T) (*StoryService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewStoryService(repository.NewStoryRepository(db), repository.NewCommentRepository(db)), db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func storyContent(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = "moonlight"
	}
	return strings.Join(parts, " ")
}

// pngBytes returns a payload that sniffs as image/png.
func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
}

func requireAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
}
