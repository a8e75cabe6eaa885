// ABOUTME: Tests for interaction, draft, group, event, settings and sync repositories
// ABOUTME: Uses a temp SQLite database per test
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/synchro/models"
)

func createContact(t *testing.T, store *Store, userID, name string) *models.Contact {
	t.Helper()
	c := newTestContact(userID, name, models.StageNew, nil, nil, 0)
	require.NoError(t, store.Contacts.Create(context.Background(), c))
	return c
}

func TestInteractionsNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := createContact(t, store, "u1", "Ada")

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []int{0, 5, 2} {
		require.NoError(t, store.Interactions.Create(ctx, &models.Interaction{
			ContactID: c.ID, UserID: "u1", InteractionType: models.InteractionPhoneCall, Date: base.AddDate(0, 0, d),
		}))
	}

	list, err := store.Interactions.ListByContact(ctx, "u1", c.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, base.AddDate(0, 0, 5), list[0].Date)
	assert.Equal(t, base.AddDate(0, 0, 2), list[1].Date)
	assert.Equal(t, base, list[2].Date)
	assert.Len(t, list[0].ID, 26, "ids are ULIDs")

	limited, err := store.Interactions.ListByContact(ctx, "u1", c.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	other, err := store.Interactions.ListByContact(ctx, "u2", c.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.ErrorIs(t, store.Interactions.Delete(ctx, "u2", list[0].ID), ErrNotFound)
	require.NoError(t, store.Interactions.Delete(ctx, "u1", list[0].ID))

	n, err := store.Interactions.DeleteByContact(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestInteractionRejectsUnknownType(t *testing.T) {
	store := setupTestStore(t)
	c := createContact(t, store, "u1", "Ada")

	err := store.Interactions.Create(context.Background(), &models.Interaction{
		ContactID: c.ID, UserID: "u1", InteractionType: "Telegram", Date: time.Now(),
	})
	assert.Error(t, err)
}

func TestDraftTransition(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := createContact(t, store, "u1", "Ada")

	d := &models.Draft{ContactID: c.ID, UserID: "u1", ContactName: "Ada", DraftMessage: "Hi Ada"}
	require.NoError(t, store.Drafts.Create(ctx, d))
	assert.Equal(t, models.DraftPending, d.Status)

	pending, err := store.Drafts.ListByStatus(ctx, "u1", models.DraftPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Drafts.Transition(ctx, "u1", d.ID, models.DraftPending, models.DraftSent, at))

	got, err := store.Drafts.Get(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftSent, got.Status)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, at.Equal(*got.ResolvedAt))

	err = store.Drafts.Transition(ctx, "u1", d.ID, models.DraftPending, models.DraftDismissed, at)
	assert.ErrorIs(t, err, ErrConflict)

	err = store.Drafts.Transition(ctx, "u1", uuid.New(), models.DraftPending, models.DraftSent, at)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Drafts.Delete(ctx, "u1", d.ID))
	assert.ErrorIs(t, store.Drafts.Delete(ctx, "u1", d.ID), ErrNotFound)
}

func TestGroupsCounts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	g := &models.Group{UserID: "u1", Name: "Climbing", Color: "#ff0000"}
	empty := &models.Group{UserID: "u1", Name: "Book club"}
	require.NoError(t, store.Groups.Create(ctx, g))
	require.NoError(t, store.Groups.Create(ctx, empty))

	a := createContact(t, store, "u1", "A")
	b := createContact(t, store, "u1", "B")
	require.NoError(t, store.Contacts.SetGroups(ctx, a.ID, []string{g.ID.String()}))
	require.NoError(t, store.Contacts.SetGroups(ctx, b.ID, []string{g.ID.String(), empty.ID.String()}))
	require.NoError(t, store.Contacts.SetGroups(ctx, b.ID, []string{g.ID.String()}))

	groups, err := store.Groups.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Book club", groups[0].Name)
	assert.Equal(t, 0, groups[0].ContactCount)
	assert.Equal(t, "Climbing", groups[1].Name)
	assert.Equal(t, 2, groups[1].ContactCount)

	got, err := store.Groups.Get(ctx, "u1", g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ContactCount)

	owned, err := store.Groups.OwnedIDs(ctx, "u1", []string{g.ID.String(), uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{g.ID.String(): true}, owned)

	got.Name = "Bouldering"
	require.NoError(t, store.Groups.Update(ctx, got))

	require.NoError(t, store.Groups.Delete(ctx, "u1", g.ID))
	reloaded, err := store.Contacts.Get(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Groups)

	assert.ErrorIs(t, store.Groups.Delete(ctx, "u1", g.ID), ErrNotFound)
}

func TestEventsRangeAndParticipants(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a := createContact(t, store, "u1", "A")
	b := createContact(t, store, "u1", "B")

	lunch := &models.CalendarEvent{UserID: "u1", Title: "Lunch", Date: "2025-05-02", StartTime: "12:00", Participants: []uuid.UUID{a.ID, b.ID}}
	standup := &models.CalendarEvent{UserID: "u1", Title: "Standup", Date: "2025-05-02", StartTime: "09:00"}
	later := &models.CalendarEvent{UserID: "u1", Title: "Later", Date: "2025-05-20", AllDay: true, Participants: []uuid.UUID{a.ID}}
	for _, e := range []*models.CalendarEvent{lunch, standup, later} {
		require.NoError(t, store.Events.Create(ctx, e))
	}
	assert.Equal(t, models.EventSourceManual, lunch.Source)

	week, err := store.Events.ListRange(ctx, "u1", "2025-05-01", "2025-05-07")
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, "Standup", week[0].Title)
	assert.Equal(t, "Lunch", week[1].Title)
	assert.Len(t, week[1].Participants, 2)

	forA, err := store.Events.ListByContact(ctx, "u1", a.ID)
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, "Later", forA[0].Title)
	assert.True(t, forA[0].AllDay)

	lunch.Participants = []uuid.UUID{b.ID}
	lunch.Title = "Long lunch"
	require.NoError(t, store.Events.Update(ctx, lunch))

	forA, err = store.Events.ListByContact(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Len(t, forA, 1)

	require.NoError(t, store.Events.Delete(ctx, "u1", lunch.ID))
	_, err = store.Events.Get(ctx, "u1", lunch.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventsExternalID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	e := &models.CalendarEvent{UserID: "u1", Title: "Sync", Date: "2025-05-02", Source: models.EventSourceGoogle, ExternalID: "gcal-1"}
	require.NoError(t, store.Events.Create(ctx, e))

	got, err := store.Events.GetByExternalID(ctx, "u1", models.EventSourceGoogle, "gcal-1")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	dup := &models.CalendarEvent{UserID: "u1", Title: "Sync again", Date: "2025-05-02", Source: models.EventSourceGoogle, ExternalID: "gcal-1"}
	assert.Error(t, store.Events.Create(ctx, dup))

	// manual events have no external id and never collide
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Events.Create(ctx, &models.CalendarEvent{UserID: "u1", Title: "Manual", Date: "2025-05-03"}))
	}
}

func TestSettingsDefaultsAndPut(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	s, err := store.Settings.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWritingStyle, s.WritingStyleSample)
	assert.Equal(t, "09:00", s.NotificationTime)
	assert.Empty(t, s.PipelineStages)

	s.NotificationTime = "07:30"
	s.PipelineStages = []models.PipelineStage{{Name: "Tennis", IntervalDays: 10, Randomize: true, RandomVariation: 2}}
	require.NoError(t, store.Settings.Put(ctx, s))

	got, err := store.Settings.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "07:30", got.NotificationTime)
	assert.Equal(t, s.PipelineStages, got.PipelineStages)

	other, err := store.Settings.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "09:00", other.NotificationTime)
}

func TestSyncState(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	state, err := store.SyncState.Get(ctx, "u1", "calendar")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, store.SyncState.UpdateStatus(ctx, "u1", "calendar", models.SyncStatusSyncing, ""))
	require.NoError(t, store.SyncState.UpdateToken(ctx, "u1", "calendar", "tok-1"))

	state, err = store.SyncState.Get(ctx, "u1", "calendar")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "tok-1", state.LastSyncToken)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.NotNil(t, state.LastSyncTime)

	require.NoError(t, store.SyncState.UpdateStatus(ctx, "u1", "calendar", models.SyncStatusError, "token expired"))
	require.NoError(t, store.SyncState.ClearToken(ctx, "u1", "calendar"))

	state, err = store.SyncState.Get(ctx, "u1", "calendar")
	require.NoError(t, err)
	assert.Equal(t, "", state.LastSyncToken)
	assert.Equal(t, "token expired", state.ErrorMessage)

	none, err := store.SyncState.Get(ctx, "u2", "calendar")
	require.NoError(t, err)
	assert.Nil(t, none)
}
