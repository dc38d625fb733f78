package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/agency-ats/internal/types"
)

const applicationColumns = `id, agency_id, job_id, candidate_name, candidate_email, candidate_phone,
	status, note, tags, created_at, updated_at`

// CreateApplication records a new candidate application for a job in status NEW.
func (db *DB) CreateApplication(ctx context.Context, agencyID uuid.UUID, req *types.CreateApplicationRequest) (*types.Application, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO applications (agency_id, job_id, candidate_name, candidate_email, candidate_phone, status, note, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+applicationColumns,
		agencyID, req.JobID, req.CandidateName, req.CandidateEmail, req.CandidatePhone,
		string(types.StatusNew), req.Note, types.NormalizeTags(req.Tags),
	)
	app, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return app, nil
}

// GetApplication retrieves an application by ID. Returns nil, nil if it does not exist.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`,
		id,
	)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// GetApplicationsByIDs retrieves every existing application among ids.
func (db *DB) GetApplicationsByIDs(ctx context.Context, ids []uuid.UUID) ([]types.Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []types.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// ApplyStatusSync moves an application to change.NewStatus only if it still holds
// change.ExpectedStatus, appends change.NoteLine to its note and records change.Event,
// all in one transaction. Returns types.ErrStatusChanged when the guard fails.
func (db *DB) ApplyStatusSync(ctx context.Context, change types.StatusSync) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE applications
		 SET status = $1,
		     note = CASE WHEN note = '' THEN $2 ELSE note || E'\n\n' || $2 END,
		     updated_at = NOW()
		 WHERE id = $3 AND agency_id = $4 AND status = $5`,
		string(change.NewStatus), change.NoteLine, change.ApplicationID, change.AgencyID, string(change.ExpectedStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrStatusChanged
	}

	event := change.Event
	_, err = tx.Exec(ctx,
		`INSERT INTO audit_events (agency_id, application_id, type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.AgencyID, event.ApplicationID, event.Type, []byte(event.Payload), eventTime(event.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListAuditEvents returns an application's audit trail, oldest first.
func (db *DB) ListAuditEvents(ctx context.Context, applicationID uuid.UUID) ([]types.AuditEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, agency_id, application_id, type, payload, created_at
		 FROM audit_events WHERE application_id = $1
		 ORDER BY created_at, id`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []types.AuditEvent
	for rows.Next() {
		var e types.AuditEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AgencyID, &e.ApplicationID, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return events, nil
}

func scanApplication(row pgx.Row) (*types.Application, error) {
	var app types.Application
	var status string
	err := row.Scan(&app.ID, &app.AgencyID, &app.JobID, &app.CandidateName, &app.CandidateEmail,
		&app.CandidatePhone, &status, &app.Note, &app.Tags, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}
	app.Status, err = types.ParseApplicationStatus(status)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
