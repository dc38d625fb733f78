//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventStatusSyncedFromFeedback is recorded whenever client feedback moves an application.
const EventStatusSyncedFromFeedback = "APPLICATION_STATUS_SYNCED_FROM_FEEDBACK"

// AuditEvent is an append-only activity record for an application.
type AuditEvent struct {
	ID            uuid.UUID       `json:"id"`
	AgencyID      uuid.UUID       `json:"agencyId"`
	ApplicationID uuid.UUID       `json:"applicationId"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// StatusSyncPayload is the payload of an EventStatusSyncedFromFeedback event.
type StatusSyncPayload struct {
	ApplicationID    uuid.UUID         `json:"applicationId"`
	PreviousStatus   ApplicationStatus `json:"previousStatus"`
	NewStatus        ApplicationStatus `json:"newStatus"`
	ShortlistID      uuid.UUID         `json:"shortlistId"`
	ShortlistName    string            `json:"shortlistName"`
	ClientFeedbackID uuid.UUID         `json:"clientFeedbackId"`
	Decision         ClientDecision    `json:"decision"`
}
