//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// ClientFeedback is a client's decision on one application of one shortlist.
// There is at most one per (ShortlistID, ApplicationID).
type ClientFeedback struct {
	ID            uuid.UUID      `json:"id"`
	ShortlistID   uuid.UUID      `json:"shortlistId"`
	ApplicationID uuid.UUID      `json:"applicationId"`
	Decision      ClientDecision `json:"decision"`
	Comment       string         `json:"comment,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// FeedbackView is the public rendering of a recorded decision.
type FeedbackView struct {
	Decision ClientDecision `json:"decision"`
	Comment  string         `json:"comment,omitempty"`
}

// SubmitFeedbackRequest is the anonymous client's decision payload.
type SubmitFeedbackRequest struct {
	ApplicationID uuid.UUID      `json:"applicationId" validate:"required"`
	Decision      ClientDecision `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Comment       string         `json:"comment,omitempty" validate:"max=2000"`
}
