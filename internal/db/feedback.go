package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/agency-ats/internal/types"
)

// UpsertFeedback stores a client's decision for (ShortlistID, ApplicationID).
// A later submission overwrites decision and comment and refreshes updated_at;
// id and created_at of the first submission are kept.
func (db *DB) UpsertFeedback(ctx context.Context, fb types.ClientFeedback) (*types.ClientFeedback, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO client_feedback (shortlist_id, application_id, decision, comment)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (shortlist_id, application_id) DO UPDATE SET
		     decision = EXCLUDED.decision,
		     comment = EXCLUDED.comment,
		     updated_at = NOW()
		 RETURNING id, shortlist_id, application_id, decision, comment, created_at, updated_at`,
		fb.ShortlistID, fb.ApplicationID, string(fb.Decision), fb.Comment,
	)
	saved, err := scanFeedback(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert feedback: %w", err)
	}
	return saved, nil
}

// ListFeedback returns every recorded decision on a shortlist.
func (db *DB) ListFeedback(ctx context.Context, shortlistID uuid.UUID) ([]types.ClientFeedback, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, shortlist_id, application_id, decision, comment, created_at, updated_at
		 FROM client_feedback WHERE shortlist_id = $1
		 ORDER BY created_at`,
		shortlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var out []types.ClientFeedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, *fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return out, nil
}

func scanFeedback(row pgx.Row) (*types.ClientFeedback, error) {
	var fb types.ClientFeedback
	var decision string
	if err := row.Scan(&fb.ID, &fb.ShortlistID, &fb.ApplicationID, &decision, &fb.Comment, &fb.CreatedAt, &fb.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := types.ParseClientDecision(decision)
	if err != nil {
		return nil, err
	}
	fb.Decision = parsed
	return &fb, nil
}
