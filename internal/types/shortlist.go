//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Shortlist is an ordered subset of a job's applications shared with a client.
type Shortlist struct {
	ID         uuid.UUID       `json:"id"`
	AgencyID   uuid.UUID       `json:"agencyId"`
	JobID      uuid.UUID       `json:"jobId"`
	ClientID   *uuid.UUID      `json:"clientId,omitempty"`
	Name       string          `json:"name"`
	ShareToken string          `json:"shareToken"`
	Items      []ShortlistItem `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ShortlistItem places one application on a shortlist at a display position.
type ShortlistItem struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	Order         int       `json:"order"`
}

// HasApplication reports whether applicationID is one of the shortlist's items.
func (s *Shortlist) HasApplication(applicationID uuid.UUID) bool {
	for _, item := range s.Items {
		if item.ApplicationID == applicationID {
			return true
		}
	}
	return false
}

// CreateShortlistRequest is the agency payload for building a shortlist.
type CreateShortlistRequest struct {
	JobID          uuid.UUID   `json:"jobId" validate:"required"`
	Name           string      `json:"name" validate:"required,min=1,max=200"`
	ClientID       *uuid.UUID  `json:"clientId,omitempty"`
	ApplicationIDs []uuid.UUID `json:"applicationIds" validate:"required,min=1,max=200,dive,required"`
}

// ShortlistStats aggregates client decisions across a shortlist's items.
type ShortlistStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}
