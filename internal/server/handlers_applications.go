package server

import (
	"fmt"
	"net/http"

	"github.com/jonathan/agency-ats/internal/types"
)

// ---------------------------------------------------------------------
// Application Handlers
// ---------------------------------------------------------------------

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := s.agencyFromRequest(w, r)
	if !ok {
		return
	}

	var req types.CreateApplicationRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	app, err := s.store.CreateApplication(r.Context(), agencyID, &req)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, app)
}

// loadAgencyApplication resolves the {id} path value to an application owned by the caller.
// Applications of other agencies are reported as not found.
func (s *Server) loadAgencyApplication(w http.ResponseWriter, r *http.Request) (*types.Application, bool) {
	agencyID, ok := s.agencyFromRequest(w, r)
	if !ok {
		return nil, false
	}
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return nil, false
	}

	app, err := s.store.GetApplication(r.Context(), id)
	if err != nil {
		s.errorFromErr(w, r, fmt.Errorf("failed to get application: %w", err))
		return nil, false
	}
	if app == nil || app.AgencyID != agencyID {
		s.errorFromErr(w, r, &ErrApplicationNotFound{ApplicationID: id})
		return nil, false
	}
	return app, true
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := s.loadAgencyApplication(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleListApplicationEvents(w http.ResponseWriter, r *http.Request) {
	app, ok := s.loadAgencyApplication(w, r)
	if !ok {
		return
	}

	events, err := s.store.ListAuditEvents(r.Context(), app.ID)
	if err != nil {
		s.errorFromErr(w, r, fmt.Errorf("failed to list audit events: %w", err))
		return
	}
	if events == nil {
		events = []types.AuditEvent{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"applicationId": app.ID,
		"events":        events,
		"count":         len(events),
	})
}
