package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

// compile-time check that *DB implements repository.CommentRepository
var _ repository.CommentRepository = (*DB)(nil)

const commentColumns = `
	c.id, c.snippet_id, c.author_id, c.parent_id, c.content,
	c.created_at, c.updated_at,
	u.name, u.avatar_url`

func scanComment(scan func(dest ...any) error) (*model.Comment, error) {
	var (
		c          model.Comment
		parentID   sql.NullString
		authorName sql.NullString
		avatarURL  sql.NullString
	)
	err := scan(
		&c.ID, &c.SnippetID, &c.AuthorID, &parentID, &c.Content,
		&c.CreatedAt, &c.UpdatedAt,
		&authorName, &avatarURL,
	)
	if err != nil {
		return nil, err
	}
	c.ParentID = parentID.String
	if authorName.Valid {
		c.Author = &model.User{
			ID:        c.AuthorID,
			Name:      authorName.String,
			AvatarURL: avatarURL.String,
		}
	}
	return &c, nil
}

// CreateComment inserts a new comment. ID and timestamps are generated here.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()

	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	var parentID any
	if comment.ParentID != "" {
		parentID = comment.ParentID
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, snippet_id, author_id, parent_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.SnippetID,
		comment.AuthorID,
		parentID,
		comment.Content,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment: %w", err)
	}

	return nil
}

// GetCommentByID retrieves a single comment with its author expanded.
func (db *DB) GetCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+commentColumns+`
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.author_id
		 WHERE c.id = ?`,
		id,
	)

	comment, err := scanComment(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}

	return comment, nil
}

// ListTopLevel returns parentless comments on a snippet, oldest first, so a
// conversation reads top to bottom.
func (db *DB) ListTopLevel(ctx context.Context, snippetID string, opts repository.ListOptions) ([]model.Comment, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+commentColumns+`
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.author_id
		 WHERE c.snippet_id = ? AND c.parent_id IS NULL
		 ORDER BY c.created_at ASC, c.id ASC
		 LIMIT ? OFFSET ?`,
		snippetID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	return collectComments(rows)
}

// ListReplies returns the direct children of a comment, oldest first.
func (db *DB) ListReplies(ctx context.Context, parentID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+commentColumns+`
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.author_id
		 WHERE c.parent_id = ?
		 ORDER BY c.created_at ASC, c.id ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing replies for comment %s: %w", parentID, err)
	}
	defer rows.Close()

	return collectComments(rows)
}

func collectComments(rows *sql.Rows) ([]model.Comment, error) {
	comments := make([]model.Comment, 0, 16)
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}

// CountReplies returns how many direct children a comment has.
func (db *DB) CountReplies(ctx context.Context, parentID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE parent_id = ?`, parentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting replies for %s: %w", parentID, err)
	}
	return n, nil
}

// CountBySnippet returns the total number of comments on a snippet,
// replies included.
func (db *DB) CountBySnippet(ctx context.Context, snippetID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE snippet_id = ?`, snippetID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting comments for %s: %w", snippetID, err)
	}
	return n, nil
}

// UpdateComment overwrites a comment's content in place. Comments have no version
// history; the service layer bounds edits with the 30-minute window.
func (db *DB) UpdateComment(ctx context.Context, comment *model.Comment) error {
	comment.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		comment.Content,
		comment.UpdatedAt,
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %s: %w", comment.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", comment.ID)
	}

	return nil
}

// DeleteComment removes a comment; the parent_id cascade takes the reply subtree
// with it.
func (db *DB) DeleteComment(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM comments WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", id)
	}

	return nil
}
