package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/diff"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

// VersionService implements snippet revision and version history logic.
type VersionService struct {
	snippets repository.SnippetRepository
	versions repository.VersionRepository
	logger   *slog.Logger
}

// NewVersionService creates a VersionService.
func NewVersionService(snippets repository.SnippetRepository, versions repository.VersionRepository, logger *slog.Logger) *VersionService {
	return &VersionService{snippets: snippets, versions: versions, logger: logger}
}

// ReviseSnippetInput is the payload for editing a snippet.
type ReviseSnippetInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}

// Revise updates a snippet. When the code changed, the previous code is
// captured as an immutable version in the same transaction, so the history
// never loses a revision. Metadata-only edits (title, description,
// language) do not create versions.
func (s *VersionService) Revise(ctx context.Context, id, userID string, input ReviseSnippetInput) (*model.Snippet, error) {
	create := CreateSnippetInput{
		Title:       input.Title,
		Description: input.Description,
		Language:    input.Language,
		Code:        input.Code,
	}
	if err := create.validate(); err != nil {
		return nil, err
	}

	prior, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prior.AuthorID != userID {
		return nil, apperror.Forbidden("only the author can edit a snippet")
	}

	var snapshot *model.SnippetVersion
	if prior.Code != input.Code {
		snapshot = &model.SnippetVersion{
			SnippetID:   prior.ID,
			Code:        prior.Code,
			Language:    prior.Language,
			Description: prior.Description,
			AuthorID:    prior.AuthorID,
		}
	}

	updated := *prior
	updated.Title = create.Title
	updated.Description = create.Description
	updated.Language = create.Language
	updated.Code = create.Code

	// The updated_at stamp read above guards the write: if another edit
	// landed in between, the store reports a conflict instead of snapshotting
	// a code state that was never current.
	if err := s.snippets.UpdateWithSnapshot(ctx, &updated, snapshot, prior.UpdatedAt); err != nil {
		return nil, fmt.Errorf("revising snippet: %w", err)
	}

	s.logger.Info("snippet revised",
		slog.String("snippet_id", id),
		slog.Bool("snapshotted", snapshot != nil))

	return &updated, nil
}

// Timeline returns the snippet's version history, newest first. For forks
// it merges in the fork parent's versions, marked inherited, so the full
// lineage reads as one list. A missing or deleted parent degrades to the
// fork's own history rather than failing the request.
func (s *VersionService) Timeline(ctx context.Context, snippetID, viewerID string) ([]model.TimelineEntry, error) {
	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	if snippet.Visibility == model.VisibilityPrivate && snippet.AuthorID != viewerID {
		return nil, apperror.NotFound("snippet", snippetID)
	}

	own, err := s.versions.ListVersions(ctx, snippetID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	entries := make([]model.TimelineEntry, 0, len(own))
	for _, v := range own {
		entries = append(entries, model.TimelineEntry{SnippetVersion: v})
	}

	if snippet.ForkedFrom != "" && s.parentVisible(ctx, snippet.ForkedFrom, viewerID) {
		inherited, err := s.versions.ListVersions(ctx, snippet.ForkedFrom)
		if err != nil {
			s.logger.Warn("skipping inherited versions",
				slog.String("snippet_id", snippetID),
				slog.String("parent_id", snippet.ForkedFrom),
				slog.Any("error", err))
		} else {
			for _, v := range inherited {
				entries = append(entries, model.TimelineEntry{SnippetVersion: v, Inherited: true})
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})

	return entries, nil
}

// GetVersion fetches one version, checking it belongs to the given snippet
// or its fork parent and that the viewer can see the snippet.
func (s *VersionService) GetVersion(ctx context.Context, snippetID, versionID, viewerID string) (*model.SnippetVersion, *model.Snippet, error) {
	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return nil, nil, err
	}
	if snippet.Visibility == model.VisibilityPrivate && snippet.AuthorID != viewerID {
		return nil, nil, apperror.NotFound("snippet", snippetID)
	}

	version, err := s.versions.GetVersionByID(ctx, versionID)
	if err != nil {
		return nil, nil, err
	}
	if version.SnippetID != snippetID {
		if version.SnippetID != snippet.ForkedFrom || !s.parentVisible(ctx, snippet.ForkedFrom, viewerID) {
			return nil, nil, apperror.NotFound("version", versionID)
		}
	}

	return version, snippet, nil
}

// parentVisible reports whether the fork parent's history may be shown to
// the viewer. A parent made private after the fork takes its versions with
// it; a missing parent degrades the same way.
func (s *VersionService) parentVisible(ctx context.Context, parentID, viewerID string) bool {
	parent, err := s.snippets.GetByID(ctx, parentID)
	if err != nil {
		s.logger.Warn("skipping inherited versions",
			slog.String("parent_id", parentID),
			slog.Any("error", err))
		return false
	}
	return parent.Visibility != model.VisibilityPrivate || parent.AuthorID == viewerID
}

// Diff renders a unified diff from the given version's code to the
// snippet's current code.
func (s *VersionService) Diff(ctx context.Context, snippetID, versionID, viewerID string) (string, error) {
	version, snippet, err := s.GetVersion(ctx, snippetID, versionID, viewerID)
	if err != nil {
		return "", err
	}

	fromLabel := fmt.Sprintf("%s@%s", fileLabel(snippet.Title), version.ID)
	toLabel := fmt.Sprintf("%s@current", fileLabel(snippet.Title))

	return diff.Unified(version.Code, snippet.Code, fromLabel, toLabel)
}

// fileLabel makes a snippet title safe for use in diff headers.
func fileLabel(title string) string {
	label := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, title)
	if label == "" {
		return "snippet"
	}
	return label
}
