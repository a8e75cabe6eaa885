// ABOUTME: Tests for contact lifecycle transitions and interaction logging
// ABOUTME: Covers create, update, stage moves, interactions, deletes and group membership
package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/synchro/cadence"
	"github.com/harperreed/synchro/drafter"
	"github.com/harperreed/synchro/models"
)

func TestCreateScheduledContact(t *testing.T) {
	svc, _ := setupService(t)

	c := mustCreate(t, svc, "Alice", models.StageMonthly)
	assert.Equal(t, 30, c.TargetIntervalDays)
	require.NotNil(t, c.LastContactDate)
	assert.True(t, now.Equal(*c.LastContactDate))
	assertDue(t, now.Add(days(30)), c.NextDue)
	assert.Equal(t, "English", c.Language)
	assert.Equal(t, "Casual", c.Tone)
	assert.Equal(t, int64(1), c.Version)
}

func TestCreateJitterStaysInRange(t *testing.T) {
	svc, _ := setupServiceWith(t, cadence.NewCalculator(cadence.Proportional{}, nil))

	for i := 0; i < 20; i++ {
		c := mustCreate(t, svc, "Jitter", models.StageMonthly)
		offset := c.NextDue.Sub(*c.LastContactDate)
		assert.GreaterOrEqual(t, offset, days(29))
		assert.LessOrEqual(t, offset, days(31))
	}
}

func TestCreateNewContactIsUnscheduled(t *testing.T) {
	svc, _ := setupService(t)
	last := "2025-01-01"

	c, err := svc.CreateContact(context.Background(), testUser, models.NewContact{
		Name: "Bob", PipelineStage: models.StageNew, LastContactDate: &last,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, c.TargetIntervalDays)
	assert.Nil(t, c.LastContactDate)
	assert.Nil(t, c.NextDue)
	assertSentinel(t, c)
}

func TestCreateDefaults(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	c, err := svc.CreateContact(ctx, testUser, models.NewContact{Name: "  Carol  ", Language: "Spanish"})
	require.NoError(t, err)
	assert.Equal(t, "Carol", c.Name)
	assert.Equal(t, models.StageMonthly, c.PipelineStage)
	assert.Equal(t, "Spanish", c.Language)

	_, err = svc.CreateContact(ctx, testUser, models.NewContact{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateAnchorsAtGivenDate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	last := "2025-01-01"
	c, err := svc.CreateContact(ctx, testUser, models.NewContact{Name: "Dan", PipelineStage: models.StageWeekly, LastContactDate: &last})
	require.NoError(t, err)
	anchor := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, anchor.Equal(*c.LastContactDate))
	assertDue(t, anchor.Add(days(7)), c.NextDue)

	garbage := "last tuesday"
	c, err = svc.CreateContact(ctx, testUser, models.NewContact{Name: "Eve", PipelineStage: models.StageWeekly, LastContactDate: &garbage})
	require.NoError(t, err)
	assert.True(t, now.Equal(*c.LastContactDate))
}

func TestCreateUnknownStageUsesBaseline(t *testing.T) {
	svc, _ := setupServiceWith(t, cadence.NewCalculator(cadence.Proportional{}, highest{}))

	c := mustCreate(t, svc, "Frank", "Whenever")
	assert.Equal(t, 30, c.TargetIntervalDays)
	assertDue(t, now.Add(days(30)), c.NextDue)
}

func TestUpdateProfileKeepsSchedule(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Gina", models.StageQuarterly)

	got, err := svc.UpdateContact(ctx, testUser, c.ID.String(), models.ContactUpdate{
		Job:   models.Set("pilot"),
		Notes: models.Set("likes planes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pilot", got.Job)
	assert.True(t, c.NextDue.Equal(*got.NextDue))
	assert.Equal(t, c.Version+1, got.Version)

	got, err = svc.UpdateContact(ctx, testUser, c.ID.String(), models.ContactUpdate{Job: models.Clear[string]()})
	require.NoError(t, err)
	assert.Empty(t, got.Job)
	assert.Equal(t, "likes planes", got.Notes)
}

func TestUpdateStageRecomputesFromLastContact(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	last := "2025-02-01"
	c, err := svc.CreateContact(ctx, testUser, models.NewContact{Name: "Hal", PipelineStage: models.StageMonthly, LastContactDate: &last})
	require.NoError(t, err)

	got, err := svc.UpdateContact(ctx, testUser, c.ID.String(), models.ContactUpdate{PipelineStage: models.Set(models.StageWeekly)})
	require.NoError(t, err)
	anchor := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, got.TargetIntervalDays)
	assertDue(t, anchor.Add(days(7)), got.NextDue)

	// Repeating the same update resolves the same interval.
	again, err := svc.UpdateContact(ctx, testUser, c.ID.String(), models.ContactUpdate{PipelineStage: models.Set(models.StageWeekly)})
	require.NoError(t, err)
	assert.Equal(t, got.TargetIntervalDays, again.TargetIntervalDays)
	assert.True(t, got.NextDue.Equal(*again.NextDue))
}

func TestUpdateLastContactDate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Ivy", models.StageBiWeekly)

	got, err := svc.UpdateContact(ctx, testUser, c.ID.String(), models.ContactUpdate{LastContactDate: models.Set("2025-03-01")})
	require.NoError(t, err)
	assertDue(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), got.NextDue)

	got, err = svc.UpdateContact(ctx, testUser, c.ID.String(), models.ContactUpdate{LastContactDate: models.Clear[string]()})
	require.NoError(t, err)
	require.NotNil(t, got.LastContactDate)
	assert.True(t, now.Equal(*got.LastContactDate))
	assertDue(t, now.Add(days(14)), got.NextDue)
}

func TestUpdateToNewClearsDueDate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Jay", models.StageMonthly)

	got, err := svc.UpdateContact(ctx, testUser, c.ID.String(), models.ContactUpdate{PipelineStage: models.Set(models.StageNew)})
	require.NoError(t, err)
	assert.Nil(t, got.NextDue)
	assert.Equal(t, 0, got.TargetIntervalDays)
	assert.NotNil(t, got.LastContactDate)
	assertSentinel(t, got)
}

func TestUpdateRejectsEmptyRequiredFields(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Kim", models.StageMonthly)

	for _, upd := range []models.ContactUpdate{
		{Name: models.Clear[string]()},
		{Name: models.Set(" ")},
		{PipelineStage: models.Clear[string]()},
		{PipelineStage: models.Set("")},
	} {
		_, err := svc.UpdateContact(ctx, testUser, c.ID.String(), upd)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err := svc.UpdateContact(ctx, "someone-else", c.ID.String(), models.ContactUpdate{Job: models.Set("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveStageAnchorsAtNow(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	stale := "2024-01-01"
	c, err := svc.CreateContact(ctx, testUser, models.NewContact{Name: "Lou", PipelineStage: models.StageAnnually, LastContactDate: &stale})
	require.NoError(t, err)

	got, err := svc.MoveStage(ctx, testUser, c.ID.String(), models.StageWeekly)
	require.NoError(t, err)
	assert.Equal(t, models.StageWeekly, got.PipelineStage)
	assert.Equal(t, 7, got.TargetIntervalDays)
	assertDue(t, now.Add(days(7)), got.NextDue)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(*got.LastContactDate))
}

func TestMoveStageWeeklyHasNoJitter(t *testing.T) {
	svc, _ := setupServiceWith(t, cadence.NewCalculator(cadence.Proportional{}, highest{}))
	c := mustCreate(t, svc, "Mo", models.StageNew)

	got, err := svc.MoveStage(context.Background(), testUser, c.ID.String(), models.StageWeekly)
	require.NoError(t, err)
	assertDue(t, now.Add(days(7)), got.NextDue)

	got, err = svc.MoveStage(context.Background(), testUser, c.ID.String(), models.StageNew)
	require.NoError(t, err)
	assertSentinel(t, got)
	assert.Nil(t, got.NextDue)

	_, err = svc.MoveStage(context.Background(), testUser, c.ID.String(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogInteractionReanchors(t *testing.T) {
	svc, _ := setupServiceWith(t, cadence.NewCalculator(cadence.Proportional{}, nil))
	ctx := context.Background()
	c := mustCreate(t, svc, "Nia", models.StageBiWeekly)

	i, got, err := svc.LogInteraction(ctx, testUser, c.ID.String(), models.NewInteraction{
		InteractionType: models.InteractionPhoneCall,
		Date:            "2025-03-01",
		Notes:           "caught up",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, i.ID)

	anchor := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, anchor.Equal(*got.LastContactDate))
	assert.False(t, got.NextDue.Before(anchor.Add(days(13))))
	assert.False(t, got.NextDue.After(anchor.Add(days(15))))
	assert.Equal(t, 14, got.TargetIntervalDays)
}

func TestLogInteractionUsesCachedInterval(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Oz", models.StageMonthly)

	_, err := svc.UpdateSettings(ctx, testUser, models.SettingsUpdate{
		PipelineStages: models.Set([]models.PipelineStage{{Name: models.StageMonthly, IntervalDays: 45}}),
	})
	require.NoError(t, err)

	_, got, err := svc.LogInteraction(ctx, testUser, c.ID.String(), models.NewInteraction{InteractionType: models.InteractionEmail})
	require.NoError(t, err)
	assert.Equal(t, 30, got.TargetIntervalDays)
	assertDue(t, now.Add(days(30)), got.NextDue)
}

func TestLogInteractionOnNewContact(t *testing.T) {
	svc, _ := setupService(t)
	c := mustCreate(t, svc, "Pat", models.StageNew)

	_, got, err := svc.LogInteraction(context.Background(), testUser, c.ID.String(), models.NewInteraction{InteractionType: models.InteractionWhatsApp})
	require.NoError(t, err)
	assert.True(t, now.Equal(*got.LastContactDate))
	assertSentinel(t, got)
}

func TestLogInteractionErrors(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Quinn", models.StageMonthly)

	_, _, err := svc.LogInteraction(ctx, testUser, c.ID.String(), models.NewInteraction{InteractionType: "Carrier Pigeon"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.LogInteraction(ctx, testUser, c.ID.String(), models.NewInteraction{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.LogInteraction(ctx, testUser, "bogus", models.NewInteraction{InteractionType: models.InteractionOther})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.LogInteraction(ctx, "intruder", c.ID.String(), models.NewInteraction{InteractionType: models.InteractionOther})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteInteractionKeepsSchedule(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Rae", models.StageMonthly)

	i, logged, err := svc.LogInteraction(ctx, testUser, c.ID.String(), models.NewInteraction{InteractionType: models.InteractionEmail, Date: "2025-03-05"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteInteraction(ctx, testUser, i.ID))
	after, err := svc.GetContact(ctx, testUser, c.ID.String())
	require.NoError(t, err)
	assert.True(t, logged.NextDue.Equal(*after.NextDue))

	list, err := svc.ListInteractions(ctx, testUser, c.ID.String())
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, svc.DeleteInteraction(ctx, testUser, i.ID), ErrNotFound)
}

func TestDeleteContactCascades(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Sam", models.StageMonthly)
	other := mustCreate(t, svc, "Other", models.StageMonthly)

	for i := 0; i < 3; i++ {
		_, _, err := svc.LogInteraction(ctx, testUser, c.ID.String(), models.NewInteraction{InteractionType: models.InteractionOther})
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := svc.GenerateDraft(ctx, testUser, c.ID.String(), drafter.StyleHints{})
		require.NoError(t, err)
	}
	require.NoError(t, svc.DeleteContact(ctx, testUser, c.ID.String()))

	interactions, err := store.Interactions.ListByContact(ctx, testUser, c.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, interactions)
	drafts, err := store.Drafts.ListByContact(ctx, testUser, c.ID)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	_, err = svc.ListInteractions(ctx, testUser, c.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)

	// Nothing is due yet, so look a year ahead when everything is.
	later := New(store, nil, nil, WithClock(func() time.Time { return now.AddDate(1, 0, 0) }))
	due, err := later.Briefing(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, other.ID, due[0].ID)

	assert.ErrorIs(t, svc.DeleteContact(ctx, testUser, c.ID.String()), ErrNotFound)
}

func TestDeleteAllContacts(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	mustCreate(t, svc, "A", models.StageMonthly)
	mustCreate(t, svc, "B", models.StageNew)

	n, err := svc.DeleteAllContacts(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := svc.ListContacts(ctx, testUser, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteAllContactsKeepsDataOnError(t *testing.T) {
	svc, _ := setupService(t)
	mustCreate(t, svc, "A", models.StageMonthly)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.DeleteAllContacts(ctx, testUser)
	assert.ErrorIs(t, err, context.Canceled)

	list, err := svc.ListContacts(context.Background(), testUser, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGroupsMembership(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Tara", models.StageMonthly)

	g, err := svc.CreateGroup(ctx, testUser, models.GroupInput{Name: "Climbing", Color: "#ff0000"})
	require.NoError(t, err)

	moved, err := svc.MoveToGroups(ctx, testUser, c.ID.String(), []string{g.ID.String(), g.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID.String()}, moved.Groups)

	got, err := svc.GetGroup(ctx, testUser, g.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, got.ContactCount)
	require.Len(t, got.Contacts, 1)
	assert.Equal(t, c.ID, got.Contacts[0].ID)

	updated, err := svc.UpdateGroup(ctx, testUser, g.ID.String(), models.GroupUpdate{Description: models.Set("weekends")})
	require.NoError(t, err)
	assert.Equal(t, "Climbing", updated.Name)
	assert.Equal(t, "weekends", updated.Description)

	require.NoError(t, svc.DeleteGroup(ctx, testUser, g.ID.String()))
	after, err := svc.GetContact(ctx, testUser, c.ID.String())
	require.NoError(t, err)
	assert.Empty(t, after.Groups)

	_, err = svc.MoveToGroups(ctx, testUser, c.ID.String(), []string{g.ID.String()})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.MoveToGroups(ctx, testUser, c.ID.String(), []string{"nope"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateGroup(ctx, testUser, models.GroupInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListContactsByStage(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	mustCreate(t, svc, "Uma", models.StageWeekly)
	mustCreate(t, svc, "Vic", models.StageMonthly)

	weekly, err := svc.ListContacts(ctx, testUser, models.StageWeekly)
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, "Uma", weekly[0].Name)

	all, err := svc.ListContacts(ctx, testUser, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
