package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

// UpvoteService implements upvote toggling and counting for snippets and
// comments.
type UpvoteService struct {
	upvotes  repository.UpvoteRepository
	snippets repository.SnippetRepository
	comments repository.CommentRepository
	logger   *slog.Logger
}

// NewUpvoteService creates an UpvoteService.
func NewUpvoteService(upvotes repository.UpvoteRepository, snippets repository.SnippetRepository, comments repository.CommentRepository, logger *slog.Logger) *UpvoteService {
	return &UpvoteService{upvotes: upvotes, snippets: snippets, comments: comments, logger: logger}
}

// UpvoteState is the result of a toggle or status query.
type UpvoteState struct {
	Upvoted bool `json:"upvoted"`
	Count   int  `json:"count"`
}

// Toggle flips the user's upvote on a target. A user holds at most one
// upvote per target, so toggling twice restores the original state. It
// returns the state after the flip.
func (s *UpvoteService) Toggle(ctx context.Context, kind model.UpvoteKind, targetID, userID string) (*UpvoteState, error) {
	if err := s.checkTarget(ctx, kind, targetID, userID); err != nil {
		return nil, err
	}

	upvoted, err := s.upvotes.ToggleUpvote(ctx, kind, targetID, userID)
	if err != nil {
		return nil, fmt.Errorf("toggling upvote: %w", err)
	}

	count, err := s.upvotes.CountUpvotes(ctx, kind, targetID)
	if err != nil {
		return nil, fmt.Errorf("counting upvotes: %w", err)
	}

	s.logger.Info("upvote toggled",
		slog.String("kind", string(kind)),
		slog.String("target_id", targetID),
		slog.String("user_id", userID),
		slog.Bool("upvoted", upvoted))

	return &UpvoteState{Upvoted: upvoted, Count: count}, nil
}

// Status returns the current count and whether viewerID has upvoted.
// viewerID may be empty for anonymous requests.
func (s *UpvoteService) Status(ctx context.Context, kind model.UpvoteKind, targetID, viewerID string) (*UpvoteState, error) {
	if err := s.checkTarget(ctx, kind, targetID, viewerID); err != nil {
		return nil, err
	}

	count, err := s.upvotes.CountUpvotes(ctx, kind, targetID)
	if err != nil {
		return nil, fmt.Errorf("counting upvotes: %w", err)
	}

	state := &UpvoteState{Count: count}
	if viewerID != "" {
		has, err := s.upvotes.HasUpvote(ctx, kind, targetID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("checking upvote: %w", err)
		}
		state.Upvoted = has
	}

	return state, nil
}

// checkTarget verifies the target exists and is visible to the viewer.
func (s *UpvoteService) checkTarget(ctx context.Context, kind model.UpvoteKind, targetID, viewerID string) error {
	switch kind {
	case model.UpvoteSnippet:
		snippet, err := s.snippets.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if snippet.Visibility == model.VisibilityPrivate && snippet.AuthorID != viewerID {
			return apperror.NotFound("snippet", targetID)
		}
		return nil
	case model.UpvoteComment:
		_, err := s.comments.GetCommentByID(ctx, targetID)
		return err
	default:
		return apperror.ValidationFailed("kind", "unknown upvote target kind")
	}
}
