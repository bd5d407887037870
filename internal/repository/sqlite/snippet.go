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

// compile-time check that *DB implements repository.SnippetRepository
var _ repository.SnippetRepository = (*DB)(nil)

// snippetColumns is the SELECT list shared by every snippet query; the
// scanSnippet helper must stay in sync with it. The users join provides the
// expanded author reference (id/name/avatar).
const snippetColumns = `
	s.id, s.title, s.description, s.language, s.code, s.visibility,
	s.author_id, s.forked_from, s.created_at, s.updated_at,
	u.name, u.avatar_url`

func scanSnippet(scan func(dest ...any) error) (*model.Snippet, error) {
	var (
		s          model.Snippet
		forkedFrom sql.NullString
		authorName sql.NullString
		avatarURL  sql.NullString
	)
	err := scan(
		&s.ID, &s.Title, &s.Description, &s.Language, &s.Code, &s.Visibility,
		&s.AuthorID, &forkedFrom, &s.CreatedAt, &s.UpdatedAt,
		&authorName, &avatarURL,
	)
	if err != nil {
		return nil, err
	}
	s.ForkedFrom = forkedFrom.String
	if authorName.Valid {
		s.Author = &model.User{
			ID:        s.AuthorID,
			Name:      authorName.String,
			AvatarURL: avatarURL.String,
		}
	}
	return &s, nil
}

// Create inserts a new snippet. The ID and timestamps are generated here and
// written back onto the passed struct.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	// forked_from is NULL rather than '' so the self-FK holds.
	var forkedFrom any
	if snippet.ForkedFrom != "" {
		forkedFrom = snippet.ForkedFrom
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets
		 (id, title, description, language, code, visibility, author_id, forked_from, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.Language,
		snippet.Code,
		snippet.Visibility,
		snippet.AuthorID,
		forkedFrom,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet with its author expanded.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets s
		 LEFT JOIN users u ON u.id = s.author_id
		 WHERE s.id = ?`,
		id,
	)

	snippet, err := scanSnippet(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return snippet, nil
}

// List retrieves snippets newest first, narrowed by the filter.
func (db *DB) List(ctx context.Context, filter repository.SnippetFilter) ([]model.Snippet, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// Visibility: public rows always qualify; a viewer additionally sees
	// their own private rows.
	query := `SELECT ` + snippetColumns + `
		 FROM snippets s
		 LEFT JOIN users u ON u.id = s.author_id
		 WHERE (s.visibility = 'public' OR s.author_id = ?)`
	args := []any{filter.ViewerID}

	if filter.AuthorID != "" {
		query += ` AND s.author_id = ?`
		args = append(args, filter.AuthorID)
	}
	if filter.Language != "" {
		query += ` AND s.language = ?`
		args = append(args, filter.Language)
	}
	if filter.Search != "" {
		query += ` AND (s.title LIKE ? ESCAPE '\'
			OR s.description LIKE ? ESCAPE '\'
			OR s.code LIKE ? ESCAPE '\'
			OR s.language LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(filter.Search) + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query += ` ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		s, err := scanSnippet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// escapeLike escapes the LIKE wildcards in a user-supplied search term.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Update overwrites the mutable fields of an existing snippet.
// id, author_id, forked_from and created_at never change.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, language = ?, code = ?, visibility = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Language,
		snippet.Code,
		snippet.Visibility,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// UpdateWithSnapshot writes the optional pre-edit snapshot and the new
// snippet state in one transaction, guarded by the updated_at stamp the
// caller read. A stale stamp means another edit landed in between: nothing
// is written and ErrConflict is returned, so a racing writer can never
// snapshot state that was already overwritten.
func (db *DB) UpdateWithSnapshot(ctx context.Context, snippet *model.Snippet, snapshot *model.SnippetVersion, expected time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning revise transaction: %w", err)
	}
	defer tx.Rollback()

	var stored time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT updated_at FROM snippets WHERE id = ?`, snippet.ID,
	).Scan(&stored)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("snippet", snippet.ID)
		}
		return fmt.Errorf("sqlite: reading update stamp for %s: %w", snippet.ID, err)
	}
	if !stored.Equal(expected) {
		return apperror.Conflict("snippet", snippet.ID)
	}

	if snapshot != nil {
		snapshot.ID = xid.New().String()
		snapshot.SnippetID = snippet.ID
		snapshot.CreatedAt = time.Now()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO snippet_versions (id, snippet_id, code, language, description, author_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snapshot.ID,
			snapshot.SnippetID,
			snapshot.Code,
			snapshot.Language,
			snapshot.Description,
			snapshot.AuthorID,
			snapshot.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: writing version snapshot for %s: %w", snippet.ID, err)
		}
	}

	snippet.UpdatedAt = time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, language = ?, code = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Language,
		snippet.Code,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing revise for %s: %w", snippet.ID, err)
	}

	return nil
}

// Delete removes a snippet. Versions, comments and upvotes go with it via
// the foreign key cascades.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}
