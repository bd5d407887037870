package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

// compile-time check that *DB implements repository.UpvoteRepository
var _ repository.UpvoteRepository = (*DB)(nil)

// upvoteTable maps an upvote kind onto its table and target column. The two
// kinds are structurally identical but live in separate tables, mirroring
// the upvotes / comment_upvotes collections. Only values from this fixed map
// are ever interpolated into SQL.
type upvoteTable struct {
	name      string
	targetCol string
}

func tableFor(kind model.UpvoteKind) (upvoteTable, error) {
	switch kind {
	case model.UpvoteSnippet:
		return upvoteTable{name: "upvotes", targetCol: "snippet_id"}, nil
	case model.UpvoteComment:
		return upvoteTable{name: "comment_upvotes", targetCol: "comment_id"}, nil
	default:
		return upvoteTable{}, apperror.ValidationFailed("kind", fmt.Sprintf("unknown upvote kind %q", kind))
	}
}

// ToggleUpvote flips the (target, user) upvote inside one transaction: a DELETE
// that removes an existing row, or an INSERT when none was there. Together
// with the UNIQUE (target, user) constraint this closes the read-then-act
// race a double-click would otherwise hit.
func (db *DB) ToggleUpvote(ctx context.Context, kind model.UpvoteKind, targetID, userID string) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning toggle transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND user_id = ?`, t.name, t.targetCol),
		targetID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing %s upvote: %w", kind, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	upvoted := false
	if deleted == 0 {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, %s, user_id, created_at) VALUES (?, ?, ?, ?)`,
				t.name, t.targetCol),
			xid.New().String(), targetID, userID, time.Now(),
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: creating %s upvote: %w", kind, err)
		}
		upvoted = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing toggle: %w", err)
	}

	return upvoted, nil
}

// CountUpvotes returns the number of upvotes on a target.
func (db *DB) CountUpvotes(ctx context.Context, kind model.UpvoteKind, targetID string) (int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var n int
	err = db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, t.name, t.targetCol),
		targetID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting %s upvotes for %s: %w", kind, targetID, err)
	}
	return n, nil
}

// HasUpvote reports whether the user currently upvotes the target.
func (db *DB) HasUpvote(ctx context.Context, kind model.UpvoteKind, targetID, userID string) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	var n int
	err = db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ? AND user_id = ?`, t.name, t.targetCol),
		targetID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking %s upvote for %s: %w", kind, targetID, err)
	}
	return n > 0, nil
}
