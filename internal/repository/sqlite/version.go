package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

// compile-time check that *DB implements repository.VersionRepository
var _ repository.VersionRepository = (*DB)(nil)

// Versions are inserted exclusively by UpdateWithSnapshot (snippet.go) so
// the snapshot and the update it precedes share one transaction. This file
// only reads them.

// GetVersionByID retrieves a single version snapshot.
func (db *DB) GetVersionByID(ctx context.Context, id string) (*model.SnippetVersion, error) {
	var v model.SnippetVersion

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, snippet_id, code, language, description, author_id, created_at
		 FROM snippet_versions
		 WHERE id = ?`,
		id,
	).Scan(
		&v.ID, &v.SnippetID, &v.Code, &v.Language, &v.Description,
		&v.AuthorID, &v.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("version", id)
		}
		return nil, fmt.Errorf("sqlite: getting version %s: %w", id, err)
	}

	return &v, nil
}

// ListVersions returns a snippet's versions newest first, ties broken by
// ID so the order is deterministic.
func (db *DB) ListVersions(ctx context.Context, snippetID string) ([]model.SnippetVersion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, snippet_id, code, language, description, author_id, created_at
		 FROM snippet_versions
		 WHERE snippet_id = ?
		 ORDER BY created_at DESC, id DESC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing versions for %s: %w", snippetID, err)
	}
	defer rows.Close()

	var versions []model.SnippetVersion
	for rows.Next() {
		var v model.SnippetVersion
		if err := rows.Scan(
			&v.ID, &v.SnippetID, &v.Code, &v.Language, &v.Description,
			&v.AuthorID, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning version row: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating versions: %w", err)
	}

	return versions, nil
}
