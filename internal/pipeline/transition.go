// Package pipeline encodes the recruiting funnel order and which status transitions are legal.
package pipeline

import "github.com/jonathan/agency-ats/internal/types"

// Reasons a transition is refused.
const (
	ReasonTerminalPlaced   = "terminal: placed"
	ReasonTerminalRejected = "terminal: rejected"
	ReasonRegression       = "regression/no-op"
)

// rejectedOrder places REJECTED outside the forward lane.
const rejectedOrder = -1

// Order returns the funnel position of status. REJECTED is -1.
func Order(status types.ApplicationStatus) int {
	switch status {
	case types.StatusNew:
		return 0
	case types.StatusContacted:
		return 1
	case types.StatusQualified:
		return 2
	case types.StatusPlaced:
		return 3
	case types.StatusRejected:
		return rejectedOrder
	}
	panic("pipeline: unhandled application status " + string(status))
}

// IsTransitionAllowed reports whether an application may move from current to target.
// Terminal states never move; REJECTED is reachable from any other state; otherwise
// the target must be strictly further along the funnel.
func IsTransitionAllowed(current, target types.ApplicationStatus) bool {
	if current.IsTerminal() {
		return false
	}
	if target == types.StatusRejected {
		return true
	}
	return Order(target) > Order(current)
}

// ExplainBlockedTransition names why current -> target is refused, or "" if it is allowed.
func ExplainBlockedTransition(current, target types.ApplicationStatus) string {
	switch {
	case current == types.StatusPlaced:
		return ReasonTerminalPlaced
	case current == types.StatusRejected:
		return ReasonTerminalRejected
	case IsTransitionAllowed(current, target):
		return ""
	default:
		return ReasonRegression
	}
}

// TargetForDecision maps a client decision to the status it pushes towards.
// Approval signals fit, not a placement, so it stops at QUALIFIED.
func TargetForDecision(decision types.ClientDecision) (types.ApplicationStatus, bool) {
	switch decision {
	case types.DecisionApproved:
		return types.StatusQualified, true
	case types.DecisionRejected:
		return types.StatusRejected, true
	case types.DecisionPending:
		return "", false
	}
	return "", false
}
