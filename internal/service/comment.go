package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

// EditWindow is how long after creation a comment can still be edited or
// deleted by its author.
const EditWindow = 30 * time.Minute

const maxCommentLen = 10_000

// CommentService implements threaded comment logic.
type CommentService struct {
	comments repository.CommentRepository
	snippets repository.SnippetRepository
	upvotes  repository.UpvoteRepository
	logger   *slog.Logger

	// now is swappable in tests to pin the clock.
	now func() time.Time
}

// NewCommentService creates a CommentService.
func NewCommentService(comments repository.CommentRepository, snippets repository.SnippetRepository, upvotes repository.UpvoteRepository, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		snippets: snippets,
		upvotes:  upvotes,
		logger:   logger,
		now:      time.Now,
	}
}

// Editable reports whether the comment is still inside its edit window at
// the given instant.
func Editable(c *model.Comment, now time.Time) bool {
	return now.Sub(c.CreatedAt) < EditWindow
}

// Create posts a comment on a snippet. A non-empty parentID makes it a
// reply; the parent must be a comment on the same snippet.
func (s *CommentService) Create(ctx context.Context, snippetID, parentID, authorID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment cannot be empty")
	}
	if len(content) > maxCommentLen {
		return nil, apperror.ValidationFailed("content", "comment is too long")
	}

	// Commenting requires read access to the snippet.
	if err := s.checkRead(ctx, snippetID, authorID); err != nil {
		return nil, err
	}

	if parentID != "" {
		parent, err := s.comments.GetCommentByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.SnippetID != snippetID {
			return nil, apperror.ValidationFailed("parentId", "parent comment belongs to a different snippet")
		}
	}

	comment := &model.Comment{
		SnippetID: snippetID,
		ParentID:  parentID,
		AuthorID:  authorID,
		Content:   content,
	}

	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("comment created",
		slog.String("comment_id", comment.ID),
		slog.String("snippet_id", snippetID),
		slog.Bool("reply", parentID != ""))

	return comment, nil
}

// checkRead verifies the viewer can read the snippet. Private snippets
// answer not-found to everyone but their author, same as Get.
func (s *CommentService) checkRead(ctx context.Context, snippetID, viewerID string) error {
	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return err
	}
	if snippet.Visibility == model.VisibilityPrivate && snippet.AuthorID != viewerID {
		return apperror.NotFound("snippet", snippetID)
	}
	return nil
}

// TopLevel lists a snippet's top-level comments oldest first, each
// decorated with its reply and upvote counts.
func (s *CommentService) TopLevel(ctx context.Context, snippetID, viewerID string, limit, offset int) ([]model.CommentNode, error) {
	if err := s.checkRead(ctx, snippetID, viewerID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListTopLevel(ctx, snippetID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return s.decorate(ctx, comments)
}

// Replies lists the direct replies of a comment oldest first, with counts.
// Deeper levels are fetched by repeated calls as threads unfold.
func (s *CommentService) Replies(ctx context.Context, commentID, viewerID string) ([]model.CommentNode, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRead(ctx, comment.SnippetID, viewerID); err != nil {
		return nil, err
	}

	replies, err := s.comments.ListReplies(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("listing replies: %w", err)
	}
	return s.decorate(ctx, replies)
}

// decorate attaches reply and upvote counts to each comment.
func (s *CommentService) decorate(ctx context.Context, comments []model.Comment) ([]model.CommentNode, error) {
	nodes := make([]model.CommentNode, 0, len(comments))
	for _, c := range comments {
		replyCount, err := s.comments.CountReplies(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("counting replies: %w", err)
		}
		upvoteCount, err := s.upvotes.CountUpvotes(ctx, model.UpvoteComment, c.ID)
		if err != nil {
			return nil, fmt.Errorf("counting comment upvotes: %w", err)
		}
		nodes = append(nodes, model.CommentNode{
			Comment:     c,
			ReplyCount:  replyCount,
			UpvoteCount: upvoteCount,
		})
	}
	return nodes, nil
}

// Update edits a comment's content. Only the author may edit, and only
// within the edit window.
func (s *CommentService) Update(ctx context.Context, commentID, userID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment cannot be empty")
	}
	if len(content) > maxCommentLen {
		return nil, apperror.ValidationFailed("content", "comment is too long")
	}

	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, apperror.Forbidden("only the author can edit a comment")
	}
	if !Editable(comment, s.now()) {
		return nil, apperror.Forbidden("the edit window for this comment has closed")
	}

	comment.Content = content
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}

	return comment, nil
}

// Delete removes a comment and, via cascade, its whole reply subtree. Only
// the author may delete, within the edit window. The snippet author may
// delete comments on their snippet at any time.
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.AuthorID == userID {
		if !Editable(comment, s.now()) {
			return apperror.Forbidden("the edit window for this comment has closed")
		}
	} else {
		snippet, err := s.snippets.GetByID(ctx, comment.SnippetID)
		if err != nil {
			return err
		}
		if snippet.AuthorID != userID {
			return apperror.Forbidden("only the comment author or snippet author can delete a comment")
		}
	}

	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	s.logger.Info("comment deleted",
		slog.String("comment_id", commentID),
		slog.String("user_id", userID))

	return nil
}

// Count returns the total number of comments on a snippet, replies
// included.
func (s *CommentService) Count(ctx context.Context, snippetID, viewerID string) (int, error) {
	if err := s.checkRead(ctx, snippetID, viewerID); err != nil {
		return 0, err
	}
	return s.comments.CountBySnippet(ctx, snippetID)
}
