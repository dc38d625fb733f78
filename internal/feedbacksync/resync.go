package feedbacksync

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/agency-ats/internal/types"
)

// DefaultResyncConcurrency is used when ResyncShortlist is given a non-positive limit.
const DefaultResyncConcurrency = 4

// ResyncOutcome is the result of re-running the sync for one feedback row.
type ResyncOutcome struct {
	ApplicationID uuid.UUID  `json:"applicationId"`
	FeedbackID    uuid.UUID  `json:"feedbackId"`
	Result        SyncResult `json:"result"`
}

// ResyncShortlist re-runs the sync for every recorded decision on sl, e.g. after the
// feature was switched on. At most concurrency syncs run at once. The first
// infrastructure error cancels the remaining work.
func (e *Engine) ResyncShortlist(ctx context.Context, sl *types.Shortlist, feedback []types.ClientFeedback, isDemo bool, concurrency int) ([]ResyncOutcome, error) {
	if concurrency <= 0 {
		concurrency = DefaultResyncConcurrency
	}

	var (
		mu       sync.Mutex
		outcomes = make([]ResyncOutcome, 0, len(feedback))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, fb := range feedback {
		if !sl.HasApplication(fb.ApplicationID) {
			continue
		}
		g.Go(func() error {
			result, err := e.SyncApplicationStatusFromFeedback(gCtx, SyncContext{
				FeedbackID:    fb.ID,
				ApplicationID: fb.ApplicationID,
				ShortlistID:   sl.ID,
				ShortlistName: sl.Name,
				AgencyID:      sl.AgencyID,
				Decision:      fb.Decision,
				IsDemo:        isDemo,
			})
			if err != nil {
				return fmt.Errorf("resync application %s: %w", fb.ApplicationID, err)
			}

			mu.Lock()
			outcomes = append(outcomes, ResyncOutcome{ApplicationID: fb.ApplicationID, FeedbackID: fb.ID, Result: result})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// Summarize counts outcomes by reason.
func Summarize(outcomes []ResyncOutcome) map[string]int {
	counts := make(map[string]int)
	for _, o := range outcomes {
		counts[o.Result.Reason]++
	}
	return counts
}
