// Package feedbacksync translates client shortlist decisions into application
// pipeline status changes.
package feedbacksync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/agency-ats/internal/pipeline"
	"github.com/jonathan/agency-ats/internal/schemas"
	"github.com/jonathan/agency-ats/internal/types"
)

// Reasons reported in SyncResult.Reason. Blocked transitions use the pipeline package's reasons.
const (
	ReasonDisabled               = "disabled"
	ReasonPendingDecision        = "pending decision"
	ReasonNotFound               = "not found"
	ReasonAgencyMismatch         = "agency mismatch"
	ReasonDemoSimulated          = "demo mode simulated"
	ReasonUpdated                = "updated"
	ReasonConcurrentModification = "concurrent modification"
	ReasonError                  = "error"
)

// maxAttempts bounds how often the read-check-write cycle runs when another writer
// changes the application's status in between.
const maxAttempts = 2

const noteTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Store is the application storage the engine reads and conditionally writes.
type Store interface {
	// GetApplication returns nil, nil when the application does not exist.
	GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error)
	// ApplyStatusSync returns types.ErrStatusChanged when the expected status no longer holds.
	ApplyStatusSync(ctx context.Context, change types.StatusSync) error
}

// Config controls the engine. It is fixed at construction.
type Config struct {
	// Enabled turns status propagation on. When false every call returns ReasonDisabled.
	Enabled bool
	// Now overrides the clock used for note timestamps. Defaults to time.Now.
	Now func() time.Time
}

// SyncContext describes one recorded client decision.
type SyncContext struct {
	FeedbackID    uuid.UUID
	ApplicationID uuid.UUID
	ShortlistID   uuid.UUID
	ShortlistName string
	AgencyID      uuid.UUID
	Decision      types.ClientDecision
	IsDemo        bool
}

// SyncResult tells the caller whether the status moved and why.
type SyncResult struct {
	Synced         bool                    `json:"synced"`
	PreviousStatus types.ApplicationStatus `json:"previousStatus,omitempty"`
	NewStatus      types.ApplicationStatus `json:"newStatus,omitempty"`
	Reason         string                  `json:"reason"`
}

// Engine is the only component that turns client feedback into status changes.
type Engine struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(store Store, cfg Config, logger *slog.Logger) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{store: store, cfg: cfg, logger: logger.With("component", "feedback_sync")}
}

// Enabled reports whether status propagation is switched on.
func (e *Engine) Enabled() bool {
	return e.cfg.Enabled
}

// SyncApplicationStatusFromFeedback applies sc.Decision to the application's pipeline
// status if the transition is legal, the agencies match and the call is not a demo.
// A non-nil error is returned only for infrastructure failures, together with ReasonError.
func (e *Engine) SyncApplicationStatusFromFeedback(ctx context.Context, sc SyncContext) (SyncResult, error) {
	result, err := e.sync(ctx, sc)
	e.logOutcome(sc, result, err)
	return result, err
}

func (e *Engine) sync(ctx context.Context, sc SyncContext) (SyncResult, error) {
	if !e.cfg.Enabled {
		return SyncResult{Reason: ReasonDisabled}, nil
	}

	target, ok := pipeline.TargetForDecision(sc.Decision)
	if !ok {
		return SyncResult{Reason: ReasonPendingDecision}, nil
	}

	var previous types.ApplicationStatus
	for attempt := 0; attempt < maxAttempts; attempt++ {
		app, err := e.store.GetApplication(ctx, sc.ApplicationID)
		if err != nil {
			return SyncResult{Reason: ReasonError}, fmt.Errorf("failed to load application %s: %w", sc.ApplicationID, err)
		}
		if app == nil {
			return SyncResult{Reason: ReasonNotFound}, nil
		}
		if app.AgencyID != sc.AgencyID {
			e.logger.Warn("feedback sync rejected",
				"event", "tenant_isolation_violation",
				"reason", ReasonAgencyMismatch,
				"application_id", sc.ApplicationID,
				"feedback_id", sc.FeedbackID,
				"shortlist_id", sc.ShortlistID,
				"shortlist_agency_id", sc.AgencyID,
				"application_agency_id", app.AgencyID,
			)
			return SyncResult{Reason: ReasonAgencyMismatch}, nil
		}

		previous = app.Status
		if reason := pipeline.ExplainBlockedTransition(previous, target); reason != "" {
			return SyncResult{PreviousStatus: previous, Reason: reason}, nil
		}

		if sc.IsDemo {
			return SyncResult{PreviousStatus: previous, NewStatus: target, Reason: ReasonDemoSimulated}, nil
		}

		change, err := e.buildChange(sc, previous, target)
		if err != nil {
			return SyncResult{PreviousStatus: previous, Reason: ReasonError}, err
		}

		err = e.store.ApplyStatusSync(ctx, change)
		if errors.Is(err, types.ErrStatusChanged) {
			e.logger.Debug("application status changed concurrently",
				"application_id", sc.ApplicationID,
				"expected_status", previous,
				"attempt", attempt+1,
			)
			continue
		}
		if err != nil {
			return SyncResult{PreviousStatus: previous, Reason: ReasonError}, fmt.Errorf("failed to apply status sync: %w", err)
		}
		return SyncResult{Synced: true, PreviousStatus: previous, NewStatus: target, Reason: ReasonUpdated}, nil
	}

	return SyncResult{PreviousStatus: previous, Reason: ReasonConcurrentModification}, nil
}

// NoteLine renders the line appended to an application's note after a sync.
func NoteLine(shortlistName string, at time.Time) string {
	return fmt.Sprintf("Status auto-updated from client feedback on shortlist \"%s\" at %s",
		shortlistName, at.UTC().Format(noteTimeLayout))
}

type auditEnvelope struct {
	Type     string                  `json:"type"`
	AgencyID uuid.UUID               `json:"agencyId"`
	Payload  types.StatusSyncPayload `json:"payload"`
}

func (e *Engine) buildChange(sc SyncContext, previous, target types.ApplicationStatus) (types.StatusSync, error) {
	now := e.cfg.Now().UTC()
	envelope := auditEnvelope{
		Type:     types.EventStatusSyncedFromFeedback,
		AgencyID: sc.AgencyID,
		Payload: types.StatusSyncPayload{
			ApplicationID:    sc.ApplicationID,
			PreviousStatus:   previous,
			NewStatus:        target,
			ShortlistID:      sc.ShortlistID,
			ShortlistName:    sc.ShortlistName,
			ClientFeedbackID: sc.FeedbackID,
			Decision:         sc.Decision,
		},
	}

	document, err := json.Marshal(envelope)
	if err != nil {
		return types.StatusSync{}, fmt.Errorf("failed to marshal audit event: %w", err)
	}
	if err := schemas.ValidateAuditEvent(document); err != nil {
		return types.StatusSync{}, fmt.Errorf("invalid audit event: %w", err)
	}
	payload, err := json.Marshal(envelope.Payload)
	if err != nil {
		return types.StatusSync{}, fmt.Errorf("failed to marshal audit payload: %w", err)
	}

	return types.StatusSync{
		ApplicationID:  sc.ApplicationID,
		AgencyID:       sc.AgencyID,
		ExpectedStatus: previous,
		NewStatus:      target,
		NoteLine:       NoteLine(sc.ShortlistName, now),
		Event: types.AuditEvent{
			AgencyID:      sc.AgencyID,
			ApplicationID: sc.ApplicationID,
			Type:          types.EventStatusSyncedFromFeedback,
			Payload:       payload,
			CreatedAt:     now,
		},
	}, nil
}

func (e *Engine) logOutcome(sc SyncContext, result SyncResult, err error) {
	attrs := []any{
		"reason", result.Reason,
		"synced", result.Synced,
		"application_id", sc.ApplicationID,
		"shortlist_id", sc.ShortlistID,
		"feedback_id", sc.FeedbackID,
		"decision", sc.Decision,
	}
	if result.PreviousStatus != "" {
		attrs = append(attrs, "previous_status", result.PreviousStatus)
	}
	if result.NewStatus != "" {
		attrs = append(attrs, "new_status", result.NewStatus)
	}

	switch {
	case err != nil:
		e.logger.Error("feedback sync failed", append(attrs, "error", err)...)
	case result.Reason == ReasonNotFound:
		e.logger.Warn("feedback sync skipped", attrs...)
	case result.Reason == ReasonAgencyMismatch:
		// logged with both agency ids where the mismatch was detected
	default:
		e.logger.Info("feedback sync", attrs...)
	}
}
