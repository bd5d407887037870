// Package service contains the business logic layer. Services sit between
// HTTP handlers and repositories: they validate input, enforce ownership and
// visibility rules, and orchestrate multi-step operations.
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

// Snippet field limits. Title and code minimums mirror the client-side
// form validation so the API rejects what the form would.
const (
	minTitleLen = 3
	maxTitleLen = 120
	minCodeLen  = 10
	maxCodeLen  = 100_000
)

// SnippetService implements snippet business logic.
type SnippetService struct {
	snippets repository.SnippetRepository
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService.
func NewSnippetService(snippets repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{snippets: snippets, logger: logger}
}

// CreateSnippetInput is the payload for creating a snippet.
type CreateSnippetInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Code        string `json:"code"`
	Visibility  string `json:"visibility"`
}

// validate normalizes and checks the input fields.
func (in *CreateSnippetInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Language = strings.TrimSpace(in.Language)

	if len(in.Title) < minTitleLen {
		return apperror.ValidationFailed("title", fmt.Sprintf("title must be at least %d characters", minTitleLen))
	}
	if len(in.Title) > maxTitleLen {
		return apperror.ValidationFailed("title", fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	if in.Language == "" {
		return apperror.ValidationFailed("language", "language is required")
	}
	if len(in.Code) < minCodeLen {
		return apperror.ValidationFailed("code", fmt.Sprintf("code must be at least %d characters", minCodeLen))
	}
	if len(in.Code) > maxCodeLen {
		return apperror.ValidationFailed("code", "code is too large")
	}
	if in.Visibility == "" {
		in.Visibility = string(model.VisibilityPublic)
	}
	if !model.Visibility(in.Visibility).Valid() {
		return apperror.ValidationFailed("visibility", "visibility must be public or private")
	}
	return nil
}

// Create validates and stores a new snippet owned by authorID.
func (s *SnippetService) Create(ctx context.Context, authorID string, input CreateSnippetInput) (*model.Snippet, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:       input.Title,
		Description: input.Description,
		Language:    input.Language,
		Code:        input.Code,
		Visibility:  model.Visibility(input.Visibility),
		AuthorID:    authorID,
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("snippet_id", snippet.ID),
		slog.String("author_id", authorID),
		slog.String("language", snippet.Language))

	return snippet, nil
}

// Get fetches a snippet and enforces visibility: private snippets are only
// visible to their author. viewerID is empty for anonymous requests.
func (s *SnippetService) Get(ctx context.Context, id, viewerID string) (*model.Snippet, error) {
	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if snippet.Visibility == model.VisibilityPrivate && snippet.AuthorID != viewerID {
		// Hide existence of private snippets from other users.
		return nil, apperror.NotFound("snippet", id)
	}

	return snippet, nil
}

// Feed lists snippets visible to viewerID, newest first, optionally
// filtered by a search term and language.
func (s *SnippetService) Feed(ctx context.Context, viewerID, search, language string, limit, offset int) ([]model.Snippet, error) {
	return s.snippets.List(ctx, repository.SnippetFilter{
		Search:   strings.TrimSpace(search),
		Language: strings.TrimSpace(language),
		ViewerID: viewerID,
		Limit:    limit,
		Offset:   offset,
	})
}

// ListByAuthor lists snippets by one author. The author sees all of their
// own snippets; everyone else sees only the public ones.
func (s *SnippetService) ListByAuthor(ctx context.Context, authorID, viewerID string, limit, offset int) ([]model.Snippet, error) {
	return s.snippets.List(ctx, repository.SnippetFilter{
		AuthorID: authorID,
		ViewerID: viewerID,
		Limit:    limit,
		Offset:   offset,
	})
}

// SetVisibility flips a snippet between public and private. Only the author
// may change it.
func (s *SnippetService) SetVisibility(ctx context.Context, id, userID string, visibility model.Visibility) (*model.Snippet, error) {
	if !visibility.Valid() {
		return nil, apperror.ValidationFailed("visibility", "visibility must be public or private")
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.AuthorID != userID {
		return nil, apperror.Forbidden("only the author can change visibility")
	}
	if snippet.Visibility == visibility {
		return snippet, nil
	}

	snippet.Visibility = visibility
	if err := s.snippets.Update(ctx, snippet); err != nil {
		return nil, fmt.Errorf("updating snippet visibility: %w", err)
	}

	return snippet, nil
}

// Fork creates a public copy of the source snippet for userID. The copy
// starts an empty version history of its own; the fork link lets the
// timeline pull in the parent's earlier versions.
func (s *SnippetService) Fork(ctx context.Context, sourceID, userID string) (*model.Snippet, error) {
	source, err := s.Get(ctx, sourceID, userID)
	if err != nil {
		return nil, err
	}

	fork := &model.Snippet{
		Title:       "Fork of " + source.Title,
		Description: source.Description,
		Language:    source.Language,
		Code:        source.Code,
		Visibility:  model.VisibilityPublic,
		AuthorID:    userID,
		ForkedFrom:  source.ID,
	}

	if err := s.snippets.Create(ctx, fork); err != nil {
		return nil, fmt.Errorf("creating fork: %w", err)
	}

	s.logger.Info("snippet forked",
		slog.String("snippet_id", fork.ID),
		slog.String("source_id", source.ID),
		slog.String("author_id", userID))

	return fork, nil
}

// Delete removes a snippet. Only the author may delete it. Versions and
// comments go with it via foreign key cascade.
func (s *SnippetService) Delete(ctx context.Context, id, userID string) error {
	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if snippet.AuthorID != userID {
		return apperror.Forbidden("only the author can delete a snippet")
	}

	if err := s.snippets.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting snippet: %w", err)
	}

	s.logger.Info("snippet deleted",
		slog.String("snippet_id", id),
		slog.String("author_id", userID))

	return nil
}
