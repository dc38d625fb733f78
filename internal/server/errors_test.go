package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/agency-ats/internal/shortlist"
)

func TestErrShortlistNotFound(t *testing.T) {
	err := &ErrShortlistNotFound{}
	assert.Equal(t, "shortlist not found", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrApplicationNotFound(t *testing.T) {
	id := uuid.New()
	err := &ErrApplicationNotFound{ApplicationID: id}
	assert.Equal(t, "application not found: "+id.String(), err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "decision", Message: "oneof"}
	assert.Equal(t, "validation error: decision - oneof", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrForbidden(t *testing.T) {
	assert.Equal(t, "forbidden", (&ErrForbidden{}).Error())
	assert.Equal(t, "forbidden: wrong job", (&ErrForbidden{Reason: "wrong job"}).Error())
	assert.Equal(t, http.StatusForbidden, HTTPStatus(&ErrForbidden{}))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "ErrShortlistNotFound",
			err:      &ErrShortlistNotFound{},
			expected: http.StatusNotFound,
		},
		{
			name:     "ErrApplicationNotFound",
			err:      &ErrApplicationNotFound{ApplicationID: uuid.New()},
			expected: http.StatusNotFound,
		},
		{
			name:     "ErrValidation",
			err:      &ErrValidation{Field: "name", Message: "required"},
			expected: http.StatusBadRequest,
		},
		{
			name:     "ErrForbidden",
			err:      &ErrForbidden{},
			expected: http.StatusForbidden,
		},
		{
			name:     "Unknown error",
			err:      assert.AnError,
			expected: http.StatusInternalServerError,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestFromShortlistError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", shortlist.ErrNotFound, http.StatusNotFound},
		{"not on shortlist looks like not found", shortlist.ErrNotOnShortlist, http.StatusNotFound},
		{"wrapped scope", fmt.Errorf("%w: %s", shortlist.ErrApplicationScope, uuid.New()), http.StatusForbidden},
		{"duplicate", fmt.Errorf("%w: x", shortlist.ErrDuplicateApplication), http.StatusBadRequest},
		{"other", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(fromShortlistError(tt.err)))
		})
	}
}
