package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/auth"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

// AuthService implements registration and login with both email/password
// and GitHub OAuth accounts.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, passwords: passwords, tokens: tokens, logger: logger}
}

// AuthResult is returned by all login paths: the user plus a signed token.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an email/password account and signs the user in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "invalid email address")
	}
	if err := auth.CheckStrength(password); err != nil {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrConflict,
			Message: "an account with this email already exists",
			Field:   "email",
		}
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking existing account: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))

	return s.issue(user)
}

// Login authenticates an email/password account. Wrong email and wrong
// password return the same error, so the response does not reveal which
// accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if user.PasswordHash == "" || !s.passwords.Verify(user.PasswordHash, password) {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return s.issue(user)
}

// LoginGitHub signs in (creating the account on first visit) with a GitHub
// profile obtained from the OAuth callback.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	user := &model.User{
		GitHubID:  gh.ID,
		Name:      gh.DisplayName(),
		Email:     strings.ToLower(gh.Email),
		AvatarURL: gh.AvatarURL,
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("upserting GitHub account: %w", err)
	}

	s.logger.Info("user logged in via GitHub",
		slog.String("user_id", user.ID),
		slog.Int64("github_id", gh.ID))

	return s.issue(user)
}

// CurrentUser resolves a user ID from a validated token back to the user.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}
