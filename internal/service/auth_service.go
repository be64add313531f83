// Package service contains the business logic between handlers and
// repositories.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"taleweave/internal/middleware"
	"taleweave/internal/models"
	"taleweave/internal/repository"
	"taleweave/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL is the lifetime of a session token.
	TokenTTL = 30 * 24 * time.Hour
	// ResetTokenTTL is the lifetime of a password-reset token.
	ResetTokenTTL = time.Hour

	tokenIssuer   = "taleweave-api"
	tokenAudience = "taleweave-client"
)

// AuthService implements registration, login, and password reset.
type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret string
}

// NewAuthService returns an AuthService signing tokens with the given secret.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{userRepo: userRepo, jwtSecret: jwtSecret}
}

// Session is the result of a successful registration or login.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a new account and returns its first session.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	// Email uniqueness is case-insensitive: both stored and looked up lowercased.
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Email is already registered")
	}

	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Username is already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &Session{User: user, Token: token}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	token, err := s.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &Session{User: user, Token: token}, nil
}

// IssueResetToken generates and stores a password-reset token for the user.
// The token is handed to the out-of-band delivery channel, never to the API
// caller.
func (s *AuthService) IssueResetToken(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", email)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return models.NewInternalError(err)
	}
	token := hex.EncodeToString(buf)
	expiry := time.Now().Add(ResetTokenTTL)

	user.ResetToken = token
	user.ResetTokenExpiresAt = &expiry
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.deliverResetToken(ctx, user, token)
	return nil
}

// deliverResetToken hands the token to the out-of-band channel. Without a
// mail integration this is the operator log.
func (s *AuthService) deliverResetToken(ctx context.Context, user *models.User, token string) {
	middleware.Logger.InfoContext(ctx, "password reset token issued",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("reset_token", token),
	)
}

// ResetPassword replaces the password of the user owning the token and
// clears the token and its expiry in the same update.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return models.NewValidationError("Invalid or expired reset token")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil || user.ResetTokenExpiresAt == nil || user.ResetTokenExpiresAt.Before(time.Now()) {
		return models.NewValidationError("Invalid or expired reset token")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	user.Password = string(hashed)
	user.ResetToken = ""
	user.ResetTokenExpiresAt = nil
	return s.userRepo.Update(ctx, user)
}

// GenerateToken creates a signed session token for the given user.
func (s *AuthService) GenerateToken(userID uint, username string) (string, error) {
	if s.jwtSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(TokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
