//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"calbook/pkg/db/mongo/mongotest"
	"calbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rated(uid, userID, eventTypeID string, rating int, endedAt time.Time) model.Booking {
	return model.Booking{
		UID:            uid,
		UserID:         &userID,
		EventTypeID:    &eventTypeID,
		Status:         model.StatusAccepted,
		StartTime:      endedAt.Add(-30 * time.Minute),
		EndTime:        endedAt,
		CreatedAt:      endedAt.Add(-48 * time.Hour),
		Rating:         &rating,
		RatingFeedback: "feedback for " + uid,
	}
}

func TestIntegration_RecentRatings(t *testing.T) {
	h := mongotest.New(t)
	repo := NewMongoRatingsRepository(h.Config("insights-integration-tests"))
	ctx := context.Background()

	userIDs := h.Insert(t, UsersCollection,
		model.User{Name: "Alice", Email: "alice@example.com", Username: "alice"},
		model.User{Name: "Bob", Email: "bob@example.com"},
	)
	aliceID, bobID := userIDs[0], userIDs[1]

	orgID := h.Insert(t, TeamsCollection, model.Team{Name: "Acme", Slug: "acme"})[0]
	subTeamID := h.Insert(t, TeamsCollection, model.Team{Name: "Sales", Slug: "sales", ParentID: &orgID})[0]
	orgType := h.Insert(t, EventTypesCollection, model.EventType{Title: "Org call", Slug: "org", TeamID: &orgID})[0]
	subType := h.Insert(t, EventTypesCollection, model.EventType{Title: "Demo", Slug: "demo", TeamID: &subTeamID})[0]
	childType := h.Insert(t, EventTypesCollection, model.EventType{Title: "Demo (Bob)", Slug: "demo", ParentID: &subType, UserID: &bobID})[0]

	day := func(d int) time.Time { return windowStart.AddDate(0, 0, d) }
	unrated := rated("unrated", aliceID, orgType, 0, day(6))
	unrated.Rating = nil

	h.Insert(t, BookingsCollection,
		rated("org-1", aliceID, orgType, 5, day(1)),
		rated("sub-1", aliceID, subType, 3, day(2)),
		rated("child-1", bobID, childType, 4, day(3)),
		rated("org-2", bobID, orgType, 1, day(4)),
		rated("outside", aliceID, orgType, 5, windowEnd.AddDate(0, 0, 1)),
		unrated,
	)

	scope := model.RatingsScope{TeamID: orgID, StartDate: windowStart, EndDate: windowEnd}

	t.Run("team scope, newest first", func(t *testing.T) {
		rows, err := repo.RecentRatings(ctx, scope, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "org-2", rows[0].BookingUID)
		assert.Equal(t, "Bob", rows[0].Name)
		assert.Equal(t, "org-1", rows[1].BookingUID)
		assert.Equal(t, "alice", rows[1].Username)
		assert.Equal(t, 5, rows[1].Rating)
		assert.Equal(t, "feedback for org-1", rows[1].Feedback)
	})

	t.Run("organization includes sub-teams and managed children", func(t *testing.T) {
		all := scope
		all.IsAll = true
		rows, err := repo.RecentRatings(ctx, all, 10)
		require.NoError(t, err)

		got := make([]string, 0, len(rows))
		for _, r := range rows {
			got = append(got, r.BookingUID)
		}
		assert.Equal(t, []string{"org-2", "child-1", "sub-1", "org-1"}, got)
	})

	t.Run("limit", func(t *testing.T) {
		all := scope
		all.IsAll = true
		rows, err := repo.RecentRatings(ctx, all, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "org-2", rows[0].BookingUID)
	})

	t.Run("personal scope", func(t *testing.T) {
		rows, err := repo.RecentRatings(ctx, model.RatingsScope{UserID: aliceID, StartDate: windowStart, EndDate: windowEnd}, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "sub-1", rows[0].BookingUID)
		assert.Equal(t, "org-1", rows[1].BookingUID)
	})
}
