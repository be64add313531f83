package service

import (
	"context"
	"testing"
	"time"

	"taleweave/internal/models"
	"taleweave/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-key"

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), testJWTSecret), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "nightowl", "Night.Owl@Example.com", "hunter22")
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.NotEmpty(t, session.Token)
	// Stored email is normalized.
	assert.Equal(t, "night.owl@example.com", session.User.Email)
	// The hash is never the plaintext.
	assert.NotEqual(t, "hunter22", session.User.Password)

	// Login works with any casing of the email.
	session, err = svc.Login(ctx, "NIGHT.OWL@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "nightowl", session.User.Username)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(session.Token, claims, func(*jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "taleweave-api", claims["iss"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "first", "shared@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "second", "Shared@Example.com", "password2")
	requireAppCode(t, err, "VALIDATION_ERROR")
	assert.Equal(t, "Email is already registered", err.Error())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "taken", "one@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "taken", "two@example.com", "password2")
	requireAppCode(t, err, "VALIDATION_ERROR")
	assert.Equal(t, "Username is already taken", err.Error())
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name              string
		username, email   string
		password          string
	}{
		{"short username", "ab", "ok@example.com", "password1"},
		{"bad username chars", "not ok!", "ok@example.com", "password1"},
		{"bad email", "validname", "not-an-email", "password1"},
		{"short password", "validname", "ok@example.com", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			requireAppCode(t, err, "VALIDATION_ERROR")
		})
	}
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "present", "present@example.com", "correct-pw")
	require.NoError(t, err)

	_, wrongPw := svc.Login(ctx, "present@example.com", "wrong-pw")
	requireAppCode(t, wrongPw, "UNAUTHORIZED")

	_, noUser := svc.Login(ctx, "absent@example.com", "correct-pw")
	requireAppCode(t, noUser, "UNAUTHORIZED")

	assert.Equal(t, wrongPw.Error(), noUser.Error())
}

func TestPasswordResetFlow(t *testing.T) {
	svc, db := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "forgetful", "forgetful@example.com", "old-password")
	require.NoError(t, err)

	require.NoError(t, svc.IssueResetToken(ctx, "forgetful@example.com"))

	// The token reaches the user out of band; read it from storage here.
	var user models.User
	require.NoError(t, db.Where("email = ?", "forgetful@example.com").First(&user).Error)
	require.NotEmpty(t, user.ResetToken)
	require.NotNil(t, user.ResetTokenExpiresAt)

	require.NoError(t, svc.ResetPassword(ctx, user.ResetToken, "new-password"))

	_, err = svc.Login(ctx, "forgetful@example.com", "old-password")
	requireAppCode(t, err, "UNAUTHORIZED")
	_, err = svc.Login(ctx, "forgetful@example.com", "new-password")
	require.NoError(t, err)

	// The token is single-use.
	err = svc.ResetPassword(ctx, user.ResetToken, "another-password")
	requireAppCode(t, err, "VALIDATION_ERROR")
}

func TestPasswordResetExpiredToken(t *testing.T) {
	svc, db := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "latecomer", "latecomer@example.com", "old-password")
	require.NoError(t, err)
	require.NoError(t, svc.IssueResetToken(ctx, "latecomer@example.com"))

	var user models.User
	require.NoError(t, db.Where("email = ?", "latecomer@example.com").First(&user).Error)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&user).Update("reset_token_expires_at", expired).Error)

	err = svc.ResetPassword(ctx, user.ResetToken, "new-password")
	requireAppCode(t, err, "VALIDATION_ERROR")
}

func TestIssueResetTokenUnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	err := svc.IssueResetToken(context.Background(), "nobody@example.com")
	requireAppCode(t, err, "NOT_FOUND")
}
