package memstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/agency-ats/internal/types"
)

func seedShortlist(t *testing.T, s *Store) (*types.Application, *types.Shortlist) {
	t.Helper()
	ctx := context.Background()
	agencyID, jobID := uuid.New(), uuid.New()

	app, err := s.CreateApplication(ctx, agencyID, &types.CreateApplicationRequest{
		JobID:         jobID,
		CandidateName: "Ada",
	})
	require.NoError(t, err)

	sl := &types.Shortlist{
		AgencyID:   agencyID,
		JobID:      jobID,
		Name:       "Finalists",
		ShareToken: "token-1",
		Items:      []types.ShortlistItem{{ApplicationID: app.ID, Order: 0}},
	}
	require.NoError(t, s.CreateShortlist(ctx, sl))
	return app, sl
}

func TestApplyStatusSync(t *testing.T) {
	s := New()
	ctx := context.Background()
	app, _ := seedShortlist(t, s)

	sync := types.StatusSync{
		ApplicationID:  app.ID,
		AgencyID:       app.AgencyID,
		ExpectedStatus: types.StatusNew,
		NewStatus:      types.StatusQualified,
		NoteLine:       "synced",
		Event:          types.AuditEvent{AgencyID: app.AgencyID, ApplicationID: app.ID, Type: types.EventStatusSyncedFromFeedback},
	}
	require.NoError(t, s.ApplyStatusSync(ctx, sync))

	got, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusQualified, got.Status)
	assert.Equal(t, "synced", got.Note)

	events, err := s.ListAuditEvents(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID)

	t.Run("stale expected status", func(t *testing.T) {
		assert.ErrorIs(t, s.ApplyStatusSync(ctx, sync), types.ErrStatusChanged)
	})

	t.Run("wrong agency", func(t *testing.T) {
		other := sync
		other.ExpectedStatus = types.StatusQualified
		other.AgencyID = uuid.New()
		assert.ErrorIs(t, s.ApplyStatusSync(ctx, other), types.ErrStatusChanged)

		unchanged, err := s.GetApplication(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusQualified, unchanged.Status)
	})

	t.Run("note appended after blank line", func(t *testing.T) {
		next := sync
		next.ExpectedStatus = types.StatusQualified
		next.NewStatus = types.StatusPlaced
		next.NoteLine = "placed"
		require.NoError(t, s.ApplyStatusSync(ctx, next))

		got, err := s.GetApplication(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, "synced\n\nplaced", got.Note)
	})
}

func TestUpsertFeedback_LastWriteWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	app, sl := seedShortlist(t, s)

	first, err := s.UpsertFeedback(ctx, types.ClientFeedback{
		ShortlistID: sl.ID, ApplicationID: app.ID, Decision: types.DecisionApproved, Comment: "strong",
	})
	require.NoError(t, err)

	second, err := s.UpsertFeedback(ctx, types.ClientFeedback{
		ShortlistID: sl.ID, ApplicationID: app.ID, Decision: types.DecisionRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	all, err := s.ListFeedback(ctx, sl.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, types.DecisionRejected, all[0].Decision)
	assert.Empty(t, all[0].Comment)
}

func TestUpsertFeedback_NotOnShortlist(t *testing.T) {
	s := New()
	_, sl := seedShortlist(t, s)

	_, err := s.UpsertFeedback(context.Background(), types.ClientFeedback{
		ShortlistID: sl.ID, ApplicationID: uuid.New(), Decision: types.DecisionApproved,
	})
	assert.Error(t, err)
}

func TestCreateShortlist_Rejects(t *testing.T) {
	s := New()
	app, sl := seedShortlist(t, s)
	ctx := context.Background()

	dupToken := &types.Shortlist{AgencyID: sl.AgencyID, JobID: sl.JobID, Name: "x", ShareToken: sl.ShareToken}
	assert.ErrorIs(t, s.CreateShortlist(ctx, dupToken), ErrDuplicateToken)

	dupItem := &types.Shortlist{
		AgencyID: sl.AgencyID, JobID: sl.JobID, Name: "y", ShareToken: "token-2",
		Items: []types.ShortlistItem{{ApplicationID: app.ID, Order: 0}, {ApplicationID: app.ID, Order: 1}},
	}
	assert.Error(t, s.CreateShortlist(ctx, dupItem))
}

func TestGetters_ReturnCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, sl := seedShortlist(t, s)

	got, err := s.GetShortlistByToken(ctx, sl.ShareToken)
	require.NoError(t, err)
	got.Items[0].Order = 99

	again, err := s.GetShortlist(ctx, sl.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Items[0].Order)

	missing, err := s.GetShortlistByToken(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
