// Package memstore is an in-memory implementation of the application, shortlist
// and feedback storage used by the server when no database is configured, and by tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/agency-ats/internal/types"
)

// ErrDuplicateToken is returned when a shortlist is created with a share token already in use.
var ErrDuplicateToken = errors.New("share token already in use")

type feedbackKey struct {
	shortlistID   uuid.UUID
	applicationID uuid.UUID
}

// Store holds all records in maps guarded by one mutex.
type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	applications map[uuid.UUID]types.Application
	shortlists   map[uuid.UUID]types.Shortlist
	tokens       map[string]uuid.UUID
	feedback     map[feedbackKey]types.ClientFeedback
	events       map[uuid.UUID][]types.AuditEvent
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:          func() time.Time { return time.Now().UTC() },
		applications: make(map[uuid.UUID]types.Application),
		shortlists:   make(map[uuid.UUID]types.Shortlist),
		tokens:       make(map[string]uuid.UUID),
		feedback:     make(map[feedbackKey]types.ClientFeedback),
		events:       make(map[uuid.UUID][]types.AuditEvent),
	}
}

// CreateApplication records a new application in status NEW.
func (s *Store) CreateApplication(_ context.Context, agencyID uuid.UUID, req *types.CreateApplicationRequest) (*types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	app := types.Application{
		ID:             uuid.New(),
		AgencyID:       agencyID,
		JobID:          req.JobID,
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
		CandidatePhone: req.CandidatePhone,
		Status:         types.StatusNew,
		Note:           req.Note,
		Tags:           types.NormalizeTags(req.Tags),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.applications[app.ID] = app
	return cloneApplication(app), nil
}

// PutApplication stores app as-is, replacing any record with the same ID.
func (s *Store) PutApplication(app types.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.ID] = *cloneApplication(app)
}

// GetApplication returns nil, nil when id is unknown.
func (s *Store) GetApplication(_ context.Context, id uuid.UUID) (*types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, nil
	}
	return cloneApplication(app), nil
}

// GetApplicationsByIDs returns the applications among ids that exist.
func (s *Store) GetApplicationsByIDs(_ context.Context, ids []uuid.UUID) ([]types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Application
	for _, id := range ids {
		if app, ok := s.applications[id]; ok {
			out = append(out, *cloneApplication(app))
		}
	}
	return out, nil
}

// ApplyStatusSync performs the same guarded update as the database store.
func (s *Store) ApplyStatusSync(_ context.Context, change types.StatusSync) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[change.ApplicationID]
	if !ok || app.AgencyID != change.AgencyID || app.Status != change.ExpectedStatus {
		return types.ErrStatusChanged
	}

	now := s.now()
	app.Status = change.NewStatus
	app.Note = types.AppendNote(app.Note, change.NoteLine)
	app.UpdatedAt = now
	s.applications[app.ID] = app

	event := change.Event
	event.ID = uuid.New()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	s.events[app.ID] = append(s.events[app.ID], event)
	return nil
}

// ListAuditEvents returns an application's events in insertion order.
func (s *Store) ListAuditEvents(_ context.Context, applicationID uuid.UUID) ([]types.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events[applicationID]
	out := make([]types.AuditEvent, len(events))
	copy(out, events)
	return out, nil
}

// CreateShortlist stores sl, assigning ID and CreatedAt.
func (s *Store) CreateShortlist(_ context.Context, sl *types.Shortlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[sl.ShareToken]; exists {
		return fmt.Errorf("failed to create shortlist: %w", ErrDuplicateToken)
	}
	seen := make(map[uuid.UUID]bool, len(sl.Items))
	for _, item := range sl.Items {
		if seen[item.ApplicationID] {
			return fmt.Errorf("failed to create shortlist: application %s listed twice", item.ApplicationID)
		}
		seen[item.ApplicationID] = true
	}

	sl.ID = uuid.New()
	sl.CreatedAt = s.now()
	s.shortlists[sl.ID] = *cloneShortlist(*sl)
	s.tokens[sl.ShareToken] = sl.ID
	return nil
}

// GetShortlist returns nil, nil when id is unknown.
func (s *Store) GetShortlist(_ context.Context, id uuid.UUID) (*types.Shortlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.shortlists[id]
	if !ok {
		return nil, nil
	}
	return cloneShortlist(sl), nil
}

// GetShortlistByToken returns nil, nil when no shortlist carries token.
func (s *Store) GetShortlistByToken(_ context.Context, token string) (*types.Shortlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok || token == "" {
		return nil, nil
	}
	return cloneShortlist(s.shortlists[id]), nil
}

// UpsertFeedback keeps the first submission's ID and CreatedAt and overwrites the rest.
func (s *Store) UpsertFeedback(_ context.Context, fb types.ClientFeedback) (*types.ClientFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.shortlists[fb.ShortlistID]
	if !ok || !sl.HasApplication(fb.ApplicationID) {
		return nil, fmt.Errorf("failed to upsert feedback: application %s is not on shortlist %s", fb.ApplicationID, fb.ShortlistID)
	}

	now := s.now()
	key := feedbackKey{shortlistID: fb.ShortlistID, applicationID: fb.ApplicationID}
	if existing, ok := s.feedback[key]; ok {
		fb.ID = existing.ID
		fb.CreatedAt = existing.CreatedAt
	} else {
		fb.ID = uuid.New()
		fb.CreatedAt = now
	}
	fb.UpdatedAt = now
	s.feedback[key] = fb

	saved := fb
	return &saved, nil
}

// ListFeedback returns a shortlist's feedback ordered by creation time.
func (s *Store) ListFeedback(_ context.Context, shortlistID uuid.UUID) ([]types.ClientFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ClientFeedback
	for key, fb := range s.feedback {
		if key.shortlistID == shortlistID {
			out = append(out, fb)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneApplication(app types.Application) *types.Application {
	if app.Tags != nil {
		app.Tags = append([]string(nil), app.Tags...)
	}
	return &app
}

func cloneShortlist(sl types.Shortlist) *types.Shortlist {
	items := make([]types.ShortlistItem, len(sl.Items))
	copy(items, sl.Items)
	sl.Items = items
	if sl.ClientID != nil {
		id := *sl.ClientID
		sl.ClientID = &id
	}
	return &sl
}
