package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/agency-ats/internal/feedbacksync"
	"github.com/jonathan/agency-ats/internal/shortlist"
	"github.com/jonathan/agency-ats/internal/types"
)

// ---------------------------------------------------------------------
// Public share link handlers
// ---------------------------------------------------------------------

// SharedCandidate is one shortlisted candidate as the client sees it.
type SharedCandidate struct {
	ApplicationID uuid.UUID           `json:"applicationId"`
	CandidateName string              `json:"candidateName"`
	Order         int                 `json:"order"`
	Feedback      *types.FeedbackView `json:"feedback,omitempty"`
}

// SharedShortlistResponse is the client-facing view of a shortlist.
type SharedShortlistResponse struct {
	Name       string            `json:"name"`
	Candidates []SharedCandidate `json:"candidates"`
}

// resolveShare looks up the shortlist behind the {token} path value. Unknown tokens
// and storage failures are written to w.
func (s *Server) resolveShare(w http.ResponseWriter, r *http.Request) (*types.Shortlist, bool) {
	sl, err := s.shortlists.ResolveShareToken(r.Context(), r.PathValue("token"))
	if err != nil {
		s.errorFromErr(w, r, fromShortlistError(err))
		return nil, false
	}
	return sl, true
}

func (s *Server) handleGetSharedShortlist(w http.ResponseWriter, r *http.Request) {
	sl, ok := s.resolveShare(w, r)
	if !ok {
		return
	}

	ids := make([]uuid.UUID, len(sl.Items))
	for i, item := range sl.Items {
		ids[i] = item.ApplicationID
	}
	apps, err := s.store.GetApplicationsByIDs(r.Context(), ids)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	names := make(map[uuid.UUID]string, len(apps))
	for _, app := range apps {
		names[app.ID] = app.CandidateName
	}

	views, err := s.shortlists.FeedbackByApplication(r.Context(), sl)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	resp := SharedShortlistResponse{Name: sl.Name, Candidates: make([]SharedCandidate, 0, len(sl.Items))}
	for _, item := range sl.Items {
		candidate := SharedCandidate{
			ApplicationID: item.ApplicationID,
			CandidateName: names[item.ApplicationID],
			Order:         item.Order,
		}
		if view, ok := views[item.ApplicationID]; ok {
			candidate.Feedback = &view
		}
		resp.Candidates = append(resp.Candidates, candidate)
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleGetSharedFeedback(w http.ResponseWriter, r *http.Request) {
	sl, ok := s.resolveShare(w, r)
	if !ok {
		return
	}

	views, err := s.shortlists.FeedbackByApplication(r.Context(), sl)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, views)
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	sl, ok := s.resolveShare(w, r)
	if !ok {
		return
	}

	var req types.SubmitFeedbackRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	fb, err := s.shortlists.RecordFeedback(r.Context(), sl, req.ApplicationID, req.Decision, req.Comment)
	if err != nil {
		if errors.Is(err, shortlist.ErrNotOnShortlist) {
			s.logger.Warn("feedback for application not on shortlist",
				"shortlist_id", sl.ID,
				"application_id", req.ApplicationID,
			)
		}
		s.errorFromErr(w, r, fromShortlistError(err))
		return
	}

	// The feedback is stored; a failed or skipped sync does not change the response.
	// The engine logs the outcome.
	_, _ = s.engine.SyncApplicationStatusFromFeedback(context.WithoutCancel(r.Context()), feedbacksync.SyncContext{
		FeedbackID:    fb.ID,
		ApplicationID: fb.ApplicationID,
		ShortlistID:   sl.ID,
		ShortlistName: sl.Name,
		AgencyID:      sl.AgencyID,
		Decision:      fb.Decision,
		IsDemo:        s.app.IsDemoAgency(sl.AgencyID),
	})

	s.jsonResponse(w, http.StatusCreated, fb)
}
