//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrStatusChanged is returned by stores when a conditional status update
// finds the row no longer holds the expected status.
var ErrStatusChanged = errors.New("application status changed since it was read")

// Application is a candidate's pipeline record for one job.
type Application struct {
	ID             uuid.UUID         `json:"id"`
	AgencyID       uuid.UUID         `json:"agencyId"`
	JobID          uuid.UUID         `json:"jobId"`
	CandidateName  string            `json:"candidateName"`
	CandidateEmail string            `json:"candidateEmail,omitempty"`
	CandidatePhone string            `json:"candidatePhone,omitempty"`
	Status         ApplicationStatus `json:"status"`
	Note           string            `json:"note,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// CreateApplicationRequest is the intake payload for a new application.
type CreateApplicationRequest struct {
	JobID          uuid.UUID `json:"jobId" validate:"required"`
	CandidateName  string    `json:"candidateName" validate:"required,min=1,max=200"`
	CandidateEmail string    `json:"candidateEmail,omitempty" validate:"omitempty,email"`
	CandidatePhone string    `json:"candidatePhone,omitempty" validate:"omitempty,max=50"`
	Note           string    `json:"note,omitempty"`
	Tags           []string  `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50"`
}

// StatusSync is a compare-and-swap status change together with the note line
// and audit event that must commit atomically with it.
type StatusSync struct {
	ApplicationID  uuid.UUID
	AgencyID       uuid.UUID
	ExpectedStatus ApplicationStatus
	NewStatus      ApplicationStatus
	NoteLine       string
	Event          AuditEvent
}

// AppendNote adds line after existing note content, separated by a blank line.
func AppendNote(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n\n" + line
}

// NormalizeTags trims, drops empties and de-duplicates tags preserving first occurrence.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
