package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/agency-ats/internal/types"
)

// CreateShortlist inserts a shortlist and its items in one transaction.
// ID and CreatedAt are filled in on success.
func (db *DB) CreateShortlist(ctx context.Context, sl *types.Shortlist) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO shortlists (agency_id, job_id, client_id, name, share_token)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		sl.AgencyID, sl.JobID, sl.ClientID, sl.Name, sl.ShareToken,
	).Scan(&sl.ID, &sl.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create shortlist: %w", err)
	}

	for _, item := range sl.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO shortlist_items (shortlist_id, application_id, display_order)
			 VALUES ($1, $2, $3)`,
			sl.ID, item.ApplicationID, item.Order,
		)
		if err != nil {
			return fmt.Errorf("failed to insert shortlist item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetShortlist retrieves a shortlist with its items. Returns nil, nil if it does not exist.
func (db *DB) GetShortlist(ctx context.Context, id uuid.UUID) (*types.Shortlist, error) {
	return db.getShortlist(ctx, `WHERE id = $1`, id)
}

// GetShortlistByToken retrieves the shortlist a share token points at. Returns nil, nil if none does.
func (db *DB) GetShortlistByToken(ctx context.Context, token string) (*types.Shortlist, error) {
	if token == "" {
		return nil, nil
	}
	return db.getShortlist(ctx, `WHERE share_token = $1`, token)
}

func (db *DB) getShortlist(ctx context.Context, where string, arg any) (*types.Shortlist, error) {
	var sl types.Shortlist
	err := db.pool.QueryRow(ctx,
		`SELECT id, agency_id, job_id, client_id, name, share_token, created_at
		 FROM shortlists `+where,
		arg,
	).Scan(&sl.ID, &sl.AgencyID, &sl.JobID, &sl.ClientID, &sl.Name, &sl.ShareToken, &sl.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shortlist: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT application_id, display_order FROM shortlist_items
		 WHERE shortlist_id = $1 ORDER BY display_order`,
		sl.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlist items: %w", err)
	}
	defer rows.Close()

	sl.Items = []types.ShortlistItem{}
	for rows.Next() {
		var item types.ShortlistItem
		if err := rows.Scan(&item.ApplicationID, &item.Order); err != nil {
			return nil, fmt.Errorf("failed to scan shortlist item: %w", err)
		}
		sl.Items = append(sl.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shortlist items: %w", err)
	}
	return &sl, nil
}
