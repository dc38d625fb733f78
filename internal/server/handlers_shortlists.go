package server

import (
	"net/http"

	"github.com/jonathan/agency-ats/internal/types"
)

// ---------------------------------------------------------------------
// Shortlist Handlers
// ---------------------------------------------------------------------

func (s *Server) handleCreateShortlist(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := s.agencyFromRequest(w, r)
	if !ok {
		return
	}

	var req types.CreateShortlistRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	sl, err := s.shortlists.CreateShortlist(r.Context(), agencyID, req.JobID, req.Name, req.ApplicationIDs, req.ClientID)
	if err != nil {
		s.errorFromErr(w, r, fromShortlistError(err))
		return
	}

	s.logger.Info("shortlist created",
		"shortlist_id", sl.ID,
		"agency_id", agencyID,
		"items", len(sl.Items),
	)
	s.jsonResponse(w, http.StatusCreated, sl)
}

// loadAgencyShortlist resolves the {id} path value to a shortlist owned by the caller.
func (s *Server) loadAgencyShortlist(w http.ResponseWriter, r *http.Request) (*types.Shortlist, bool) {
	agencyID, ok := s.agencyFromRequest(w, r)
	if !ok {
		return nil, false
	}
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return nil, false
	}

	sl, err := s.shortlists.GetShortlist(r.Context(), agencyID, id)
	if err != nil {
		s.errorFromErr(w, r, fromShortlistError(err))
		return nil, false
	}
	return sl, true
}

func (s *Server) handleGetShortlist(w http.ResponseWriter, r *http.Request) {
	sl, ok := s.loadAgencyShortlist(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, sl)
}

func (s *Server) handleGetShortlistStats(w http.ResponseWriter, r *http.Request) {
	sl, ok := s.loadAgencyShortlist(w, r)
	if !ok {
		return
	}

	stats, err := s.shortlists.GetAggregateStats(r.Context(), sl)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

func (s *Server) handleListShortlistFeedback(w http.ResponseWriter, r *http.Request) {
	sl, ok := s.loadAgencyShortlist(w, r)
	if !ok {
		return
	}

	feedback, err := s.shortlists.ListFeedback(r.Context(), sl)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	if feedback == nil {
		feedback = []types.ClientFeedback{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"shortlistId": sl.ID,
		"feedback":    feedback,
		"count":       len(feedback),
	})
}
