package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

const (
	maxNameLen  = 80
	maxAboutLen = 500
)

// UserService implements public profile logic.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Get fetches a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// UpdateProfileInput is the payload for editing a profile.
type UpdateProfileInput struct {
	Name      string `json:"name"`
	About     string `json:"about"`
	AvatarURL string `json:"avatarUrl"`
}

// UpdateProfile edits the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(input.Name) > maxNameLen {
		return nil, apperror.ValidationFailed("name", "name is too long")
	}
	if len(input.About) > maxAboutLen {
		return nil, apperror.ValidationFailed("about", "about is too long")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = input.Name
	user.About = input.About
	user.AvatarURL = input.AvatarURL

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("user_id", userID))

	return user, nil
}
