// ABOUTME: Tests for the contact repository
// ABOUTME: Covers owner scoping, version guards, due queries, stage resets and cascades
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

func TestContactCreateGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	last := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	due := last.AddDate(0, 0, 30)
	c := newTestContact("u1", "Grace Hopper", models.StageMonthly, &last, &due, 30)
	c.Email = "grace@navy.mil"
	c.Birthday = "1906-12-09"

	require.NoError(t, store.Contacts.Create(ctx, c))
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, int64(1), c.Version)

	got, err := store.Contacts.Get(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.Name)
	assert.Equal(t, "grace@navy.mil", got.Email)
	assert.Equal(t, models.StageMonthly, got.PipelineStage)
	require.NotNil(t, got.LastContactDate)
	require.NotNil(t, got.NextDue)
	assert.True(t, last.Equal(*got.LastContactDate))
	assert.True(t, due.Equal(*got.NextDue))
	assert.Equal(t, 30, got.TargetIntervalDays)
	assert.Empty(t, got.Groups)

	_, err = store.Contacts.Get(ctx, "someone-else", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContactSentinelConstraint(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	due := time.Now().UTC()
	bad := newTestContact("u1", "Broken", models.StageNew, nil, &due, 0)
	assert.Error(t, store.Contacts.Create(ctx, bad))

	bad = newTestContact("u1", "Broken", models.StageWeekly, nil, nil, 7)
	assert.Error(t, store.Contacts.Create(ctx, bad))
}

func TestContactUpdateVersionGuard(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	c := newTestContact("u1", "Ada", models.StageNew, nil, nil, 0)
	require.NoError(t, store.Contacts.Create(ctx, c))

	first, err := store.Contacts.Get(ctx, "u1", c.ID)
	require.NoError(t, err)
	second, err := store.Contacts.Get(ctx, "u1", c.ID)
	require.NoError(t, err)

	first.Notes = "wrote first"
	require.NoError(t, store.Contacts.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Notes = "wrote second"
	assert.ErrorIs(t, store.Contacts.Update(ctx, second), ErrConflict)

	got, err := store.Contacts.Get(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "wrote first", got.Notes)

	missing := newTestContact("u1", "Ghost", models.StageNew, nil, nil, 0)
	missing.ID = uuid.New()
	missing.Version = 1
	assert.ErrorIs(t, store.Contacts.Update(ctx, missing), ErrNotFound)
}

func TestContactListDue(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	overdue := newTestContact("u1", "Overdue", models.StageWeekly, ptr(now.AddDate(0, 0, -10)), ptr(now.AddDate(0, 0, -3)), 7)
	exact := newTestContact("u1", "Exact", models.StageWeekly, ptr(now.AddDate(0, 0, -7)), ptr(now), 7)
	future := newTestContact("u1", "Future", models.StageMonthly, ptr(now), ptr(now.Add(time.Hour)), 30)
	unscheduled := newTestContact("u1", "New", models.StageNew, nil, nil, 0)
	other := newTestContact("u2", "Other owner", models.StageWeekly, ptr(now.AddDate(0, 0, -10)), ptr(now.AddDate(0, 0, -3)), 7)

	for _, c := range []*models.Contact{overdue, exact, future, unscheduled, other} {
		require.NoError(t, store.Contacts.Create(ctx, c))
	}

	due, err := store.Contacts.ListDue(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "Overdue", due[0].Name)
	assert.Equal(t, "Exact", due[1].Name)

	scheduled, err := store.Contacts.ListScheduled(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, scheduled, 3)

	all, err := store.Contacts.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestContactResetStage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := newTestContact("u1", "A", "Tennis", ptr(now), ptr(now.AddDate(0, 0, 10)), 10)
	b := newTestContact("u1", "B", "Tennis", ptr(now), ptr(now.AddDate(0, 0, 10)), 10)
	keep := newTestContact("u1", "C", models.StageWeekly, ptr(now), ptr(now.AddDate(0, 0, 7)), 7)
	foreign := newTestContact("u2", "D", "Tennis", ptr(now), ptr(now.AddDate(0, 0, 10)), 10)
	for _, c := range []*models.Contact{a, b, keep, foreign} {
		require.NoError(t, store.Contacts.Create(ctx, c))
	}

	n, err := store.Contacts.ResetStage(ctx, "u1", "Tennis")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := store.Contacts.Get(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageNew, got.PipelineStage)
	assert.Nil(t, got.NextDue)
	assert.Equal(t, 0, got.TargetIntervalDays)
	require.NotNil(t, got.LastContactDate, "last contact date is preserved")
	assert.Equal(t, int64(2), got.Version)

	counts, err := store.Contacts.CountByStage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.StageNew: 2, models.StageWeekly: 1}, counts)

	still, err := store.Contacts.Get(ctx, "u2", foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tennis", still.PipelineStage)
}

func TestContactDeleteCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	c := newTestContact("u1", "Linus", models.StageMonthly, ptr(now), ptr(now.AddDate(0, 0, 30)), 30)
	require.NoError(t, store.Contacts.Create(ctx, c))

	g := &models.Group{UserID: "u1", Name: "Friends"}
	require.NoError(t, store.Groups.Create(ctx, g))
	require.NoError(t, store.Contacts.SetGroups(ctx, c.ID, []string{g.ID.String()}))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Interactions.Create(ctx, &models.Interaction{
			ContactID: c.ID, UserID: "u1", InteractionType: models.InteractionEmail, Date: now.AddDate(0, 0, -i),
		}))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Drafts.Create(ctx, &models.Draft{
			ContactID: c.ID, UserID: "u1", ContactName: c.Name, DraftMessage: "hi",
		}))
	}

	require.NoError(t, store.Contacts.Delete(ctx, "u1", c.ID))

	interactions, err := store.Interactions.ListByContact(ctx, "u1", c.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, interactions)

	drafts, err := store.Drafts.ListByContact(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	n, err := store.Groups.CountContacts(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.ErrorIs(t, store.Contacts.Delete(ctx, "u1", c.ID), ErrNotFound)
}

func TestContactGroupsAndEmailLookup(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	g1 := &models.Group{UserID: "u1", Name: "Work"}
	g2 := &models.Group{UserID: "u1", Name: "Family"}
	require.NoError(t, store.Groups.Create(ctx, g1))
	require.NoError(t, store.Groups.Create(ctx, g2))

	c := newTestContact("u1", "Margaret", models.StageNew, nil, nil, 0)
	c.Email = "Margaret@Apollo.example"
	c.Groups = []string{g1.ID.String(), g2.ID.String()}
	require.NoError(t, store.Contacts.Create(ctx, c))

	found, err := store.Contacts.FindByEmail(ctx, "u1", "margaret@apollo.example")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
	assert.ElementsMatch(t, c.Groups, found.Groups)

	_, err = store.Contacts.FindByEmail(ctx, "u2", "margaret@apollo.example")
	assert.ErrorIs(t, err, ErrNotFound)

	members, err := store.Contacts.ListByGroup(ctx, "u1", g2.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.ElementsMatch(t, c.Groups, members[0].Groups)

	listed, err := store.Contacts.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Groups, 2)
}

func TestContactDeleteByOwner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, store.Contacts.Create(ctx, newTestContact("u1", name, models.StageNew, nil, nil, 0)))
	}
	require.NoError(t, store.Contacts.Create(ctx, newTestContact("u2", "Z", models.StageNew, nil, nil, 0)))

	n, err := store.Contacts.DeleteByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	owners, err := store.Contacts.Owners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, owners)
}
