// Package shortlist manages shortlists shared with clients and the feedback clients leave on them.
package shortlist

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/agency-ats/internal/types"
)

var (
	// ErrNotFound means the shortlist does not exist or is not visible to the caller.
	ErrNotFound = errors.New("shortlist not found")
	// ErrNotOnShortlist means the application is not an item of the shortlist.
	ErrNotOnShortlist = errors.New("application is not on this shortlist")
	// ErrApplicationScope means a requested application is missing or belongs to another agency or job.
	ErrApplicationScope = errors.New("application outside shortlist scope")
	// ErrDuplicateApplication means the same application was listed twice.
	ErrDuplicateApplication = errors.New("application listed more than once")
)

const shareTokenBytes = 32

// Repository is the storage the service needs. Both db.DB and memstore.Store satisfy it.
// Getters return nil, nil when the record does not exist.
type Repository interface {
	GetApplicationsByIDs(ctx context.Context, ids []uuid.UUID) ([]types.Application, error)
	CreateShortlist(ctx context.Context, sl *types.Shortlist) error
	GetShortlist(ctx context.Context, id uuid.UUID) (*types.Shortlist, error)
	GetShortlistByToken(ctx context.Context, token string) (*types.Shortlist, error)
	UpsertFeedback(ctx context.Context, fb types.ClientFeedback) (*types.ClientFeedback, error)
	ListFeedback(ctx context.Context, shortlistID uuid.UUID) ([]types.ClientFeedback, error)
}

// Service implements shortlist and feedback operations over a Repository.
type Service struct {
	repo     Repository
	newToken func() (string, error)
}

// NewService creates a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, newToken: GenerateShareToken}
}

// GenerateShareToken returns 32 random bytes encoded as unpadded base64url.
func GenerateShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateShortlist builds a shortlist for one job. Every application must exist and
// belong to agencyID and jobID; items keep the order of applicationIDs.
func (s *Service) CreateShortlist(ctx context.Context, agencyID, jobID uuid.UUID, name string, applicationIDs []uuid.UUID, clientID *uuid.UUID) (*types.Shortlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("shortlist name is required")
	}
	if len(applicationIDs) == 0 {
		return nil, fmt.Errorf("at least one application is required")
	}

	seen := make(map[uuid.UUID]bool, len(applicationIDs))
	for _, id := range applicationIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateApplication, id)
		}
		seen[id] = true
	}

	apps, err := s.repo.GetApplicationsByIDs(ctx, applicationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load applications: %w", err)
	}
	found := make(map[uuid.UUID]types.Application, len(apps))
	for _, app := range apps {
		found[app.ID] = app
	}
	for _, id := range applicationIDs {
		app, ok := found[id]
		if !ok || app.AgencyID != agencyID || app.JobID != jobID {
			return nil, fmt.Errorf("%w: %s", ErrApplicationScope, id)
		}
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}

	sl := &types.Shortlist{
		AgencyID:   agencyID,
		JobID:      jobID,
		ClientID:   clientID,
		Name:       name,
		ShareToken: token,
		Items:      make([]types.ShortlistItem, len(applicationIDs)),
	}
	for i, id := range applicationIDs {
		sl.Items[i] = types.ShortlistItem{ApplicationID: id, Order: i}
	}

	if err := s.repo.CreateShortlist(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// GetShortlist returns a shortlist owned by agencyID. Shortlists of other agencies
// are reported as ErrNotFound.
func (s *Service) GetShortlist(ctx context.Context, agencyID, id uuid.UUID) (*types.Shortlist, error) {
	sl, err := s.repo.GetShortlist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get shortlist: %w", err)
	}
	if sl == nil || sl.AgencyID != agencyID {
		return nil, ErrNotFound
	}
	return sl, nil
}

// ResolveShareToken returns the shortlist a public share token points at.
func (s *Service) ResolveShareToken(ctx context.Context, token string) (*types.Shortlist, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	sl, err := s.repo.GetShortlistByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve share token: %w", err)
	}
	if sl == nil {
		return nil, ErrNotFound
	}
	return sl, nil
}

// RecordFeedback stores the client's latest decision on one application of the
// shortlist. A resubmission replaces the previous decision and comment.
func (s *Service) RecordFeedback(ctx context.Context, sl *types.Shortlist, applicationID uuid.UUID, decision types.ClientDecision, comment string) (*types.ClientFeedback, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("invalid decision %q", decision)
	}
	if !sl.HasApplication(applicationID) {
		return nil, ErrNotOnShortlist
	}

	fb, err := s.repo.UpsertFeedback(ctx, types.ClientFeedback{
		ShortlistID:   sl.ID,
		ApplicationID: applicationID,
		Decision:      decision,
		Comment:       strings.TrimSpace(comment),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}
	return fb, nil
}

// FeedbackByApplication returns the recorded decisions of a shortlist keyed by application.
func (s *Service) FeedbackByApplication(ctx context.Context, sl *types.Shortlist) (map[uuid.UUID]types.FeedbackView, error) {
	all, err := s.repo.ListFeedback(ctx, sl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	out := make(map[uuid.UUID]types.FeedbackView, len(all))
	for _, fb := range all {
		if !sl.HasApplication(fb.ApplicationID) {
			continue
		}
		out[fb.ApplicationID] = types.FeedbackView{Decision: fb.Decision, Comment: fb.Comment}
	}
	return out, nil
}

// ListFeedback returns every recorded feedback row of a shortlist.
func (s *Service) ListFeedback(ctx context.Context, sl *types.Shortlist) ([]types.ClientFeedback, error) {
	all, err := s.repo.ListFeedback(ctx, sl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return all, nil
}

// GetAggregateStats counts decisions over the shortlist's current items.
func (s *Service) GetAggregateStats(ctx context.Context, sl *types.Shortlist) (types.ShortlistStats, error) {
	views, err := s.FeedbackByApplication(ctx, sl)
	if err != nil {
		return types.ShortlistStats{}, err
	}
	return ComputeStats(len(sl.Items), views), nil
}

// ComputeStats derives stats from an item count and the recorded decisions.
// Pending never goes below zero.
func ComputeStats(total int, views map[uuid.UUID]types.FeedbackView) types.ShortlistStats {
	stats := types.ShortlistStats{Total: total}
	for _, v := range views {
		switch v.Decision {
		case types.DecisionApproved:
			stats.Approved++
		case types.DecisionRejected:
			stats.Rejected++
		case types.DecisionPending:
		}
	}
	stats.Pending = max(0, total-stats.Approved-stats.Rejected)
	return stats
}
