// ABOUTME: Tests for the contact repair pass
// ABOUTME: Seeds rows as a database written before the sentinel CHECK would hold them, then checks what gets fixed

package main

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/synchro/cadence"
	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/models"
)

type fixture struct {
	conn  *sql.DB
	store *db.Store
}

// seed writes c with CHECK constraints off, so it can hold states older
// databases allowed.
func (f fixture) seed(t *testing.T, c models.Contact) models.Contact {
	t.Helper()
	ctx := context.Background()
	_, err := f.conn.ExecContext(ctx, `PRAGMA ignore_check_constraints = ON`)
	require.NoError(t, err)
	require.NoError(t, f.store.Contacts.Create(ctx, &c))
	_, err = f.conn.ExecContext(ctx, `PRAGMA ignore_check_constraints = OFF`)
	require.NoError(t, err)
	return c
}

func newRepairer(t *testing.T, dryRun bool) (*repairer, fixture) {
	t.Helper()
	conn, err := db.OpenDatabase(filepath.Join(t.TempDir(), "synchro.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	store := db.NewStore(conn)
	return &repairer{
		store:   store,
		catalog: cadence.NewCatalog(),
		calc:    cadence.NewCalculator(cadence.Proportional{}, nil),
		now:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		dryRun:  dryRun,
		logger:  log.New(io.Discard),
	}, fixture{conn: conn, store: store}
}

func TestRepairFixesBrokenContacts(t *testing.T) {
	r, f := newRepairer(t, false)
	store := f.store
	ctx := context.Background()
	last := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stray := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	sentinel := f.seed(t, models.Contact{UserID: "u1", Name: "New but due", PipelineStage: models.StageNew, NextDue: &stray, TargetIntervalDays: 7})
	unscheduled := f.seed(t, models.Contact{UserID: "u1", Name: "Weekly without due", PipelineStage: models.StageWeekly, LastContactDate: &last})
	healthy := f.seed(t, models.Contact{UserID: "u2", Name: "Fine", PipelineStage: models.StageMonthly, LastContactDate: &last, NextDue: &stray, TargetIntervalDays: 30})

	rep, err := r.run(ctx)
	require.NoError(t, err)
	assert.Equal(t, report{Owners: 2, Contacts: 3, SentinelFixed: 1, IntervalsFilled: 1, Rescheduled: 1}, rep)

	got, err := store.Contacts.Get(ctx, "u1", sentinel.ID)
	require.NoError(t, err)
	assert.Nil(t, got.NextDue)
	assert.Zero(t, got.TargetIntervalDays)

	got, err = store.Contacts.Get(ctx, "u1", unscheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.TargetIntervalDays)
	require.NotNil(t, got.NextDue)
	assert.True(t, got.NextDue.Equal(last.AddDate(0, 0, 7)), "anchored at the last contact, got %s", got.NextDue)

	got, err = store.Contacts.Get(ctx, "u2", healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, healthy.Version, got.Version, "healthy contacts are not rewritten")
}

func TestRepairDryRunWritesNothing(t *testing.T) {
	r, f := newRepairer(t, true)
	store := f.store
	ctx := context.Background()
	stray := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	c := f.seed(t, models.Contact{UserID: "u1", Name: "New but due", PipelineStage: models.StageNew, NextDue: &stray})

	rep, err := r.run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.SentinelFixed)

	got, err := store.Contacts.Get(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.NextDue)
	assert.Equal(t, c.Version, got.Version)
}
