package service

import (
	"context"

	"taleweave/internal/models"
	"taleweave/internal/repository"
	"taleweave/internal/validation"
)

// UserService implements profile management and account deletion.
type UserService struct {
	userRepo  repository.UserRepository
	storyRepo repository.StoryRepository
	media     *MediaService
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, storyRepo repository.StoryRepository, media *MediaService) *UserService {
	return &UserService{userRepo: userRepo, storyRepo: storyRepo, media: media}
}

// GetProfile returns the user's profile with the authored story count.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.storyRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.StoryCount = int(count)
	return user, nil
}

// UpdateProfileInput carries partial profile changes: empty fields are
// left untouched.
type UpdateProfileInput struct {
	Username string
	Email    string
}

// UpdateProfile applies profile changes, re-running the same validation and
// uniqueness checks as registration.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, models.NewValidationError("Username is already taken")
		}
		user.Username = in.Username
	}

	if in.Email != "" {
		email := validation.NormalizeEmail(in.Email)
		if email != user.Email {
			if err := validation.ValidateEmail(email); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
			existing, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != userID {
				return nil, models.NewValidationError("Email is already registered")
			}
			user.Email = email
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAvatar publishes a new profile picture and retires the previous
// asset once the new one is saved.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, content []byte, declaredType string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, assetID, err := s.media.Publish(ctx, content, declaredType, FolderAvatars)
	if err != nil {
		return nil, err
	}

	previous := user.AvatarAssetID
	user.Avatar = url
	user.AvatarAssetID = assetID
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.media.Retire(ctx, assetID)
		return nil, err
	}

	if previous != "" {
		s.media.Retire(ctx, previous)
	}
	return user, nil
}

// DeleteAccount removes the user and all of their stories. Likes and comments
// the user left on other authors' stories are removed with the account's
// stories only; their rows on surviving stories stay attributed.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.storyRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	if user.AvatarAssetID != "" {
		s.media.Retire(ctx, user.AvatarAssetID)
	}
	return nil
}
