// Package types provides type definitions for structured data used throughout the applicant tracking system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// ApplicationStatus is a candidate's position in the recruiting funnel.
type ApplicationStatus string

const (
	StatusNew       ApplicationStatus = "NEW"
	StatusContacted ApplicationStatus = "CONTACTED"
	StatusQualified ApplicationStatus = "QUALIFIED"
	StatusPlaced    ApplicationStatus = "PLACED"
	StatusRejected  ApplicationStatus = "REJECTED"
)

// ApplicationStatuses lists every status in funnel order, REJECTED last.
var ApplicationStatuses = []ApplicationStatus{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusPlaced,
	StatusRejected,
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusPlaced, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible from s.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusPlaced || s == StatusRejected
}

// ParseApplicationStatus normalizes and validates a status string.
func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	status := ApplicationStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown application status %q", value)
	}
	return status, nil
}

// ClientDecision is an external client's verdict on a shortlisted candidate.
type ClientDecision string

const (
	DecisionPending  ClientDecision = "PENDING"
	DecisionApproved ClientDecision = "APPROVED"
	DecisionRejected ClientDecision = "REJECTED"
)

// Valid reports whether d is one of the known decisions.
func (d ClientDecision) Valid() bool {
	switch d {
	case DecisionPending, DecisionApproved, DecisionRejected:
		return true
	default:
		return false
	}
}

// ParseClientDecision normalizes and validates a decision string.
func ParseClientDecision(value string) (ClientDecision, error) {
	decision := ClientDecision(strings.ToUpper(strings.TrimSpace(value)))
	if !decision.Valid() {
		return "", fmt.Errorf("unknown client decision %q", value)
	}
	return decision, nil
}
