// Package server provides the HTTP REST API for the agency ATS.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/agency-ats/internal/shortlist"
)

// ErrShortlistNotFound indicates the shortlist or share link does not exist for the caller
type ErrShortlistNotFound struct{}

func (e *ErrShortlistNotFound) Error() string {
	return "shortlist not found"
}

// ErrApplicationNotFound indicates the application was not found
type ErrApplicationNotFound struct {
	ApplicationID uuid.UUID
}

func (e *ErrApplicationNotFound) Error() string {
	return fmt.Sprintf("application not found: %s", e.ApplicationID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrForbidden indicates the caller may not act on the requested resources
type ErrForbidden struct {
	Reason string
}

func (e *ErrForbidden) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrShortlistNotFound, *ErrApplicationNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fromShortlistError maps shortlist service sentinels onto the HTTP error types.
// Unknown errors are returned unchanged.
func fromShortlistError(err error) error {
	switch {
	case errors.Is(err, shortlist.ErrNotFound), errors.Is(err, shortlist.ErrNotOnShortlist):
		return &ErrShortlistNotFound{}
	case errors.Is(err, shortlist.ErrApplicationScope):
		return &ErrForbidden{Reason: "applications must belong to the agency and job"}
	case errors.Is(err, shortlist.ErrDuplicateApplication):
		return &ErrValidation{Field: "applicationIds", Message: "duplicate application"}
	default:
		return err
	}
}
