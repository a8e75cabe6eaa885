// ABOUTME: Calendar event importer from Google Calendar API
// ABOUTME: Handles pagination, sync tokens and event filtering; attended meetings become calendar events
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/lifecycle"
	"github.com/harperreed/synchro/metrics"
	"github.com/harperreed/synchro/models"
)

const (
	calendarService = "calendar"
	maxResults      = 250 // Google Calendar API max per page
	initialMonths   = 6
	untitled        = "(no title)"
)

// Skip reasons, also used as metric labels.
const (
	skipMissingStart = "missing start time"
	skipAllDay       = "all-day"
	skipCancelled    = "cancelled"
	skipDeclined     = "declined"
	skipSolo         = "solo"
	skipUnknown      = "no known attendees"
)

// Result summarizes one import run.
type Result struct {
	Fetched     int
	Created     int
	Updated     int
	Skipped     map[string]int
	Incremental bool
}

// TotalSkipped sums the skip counts.
func (r *Result) TotalSkipped() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

type Importer struct {
	svc     *lifecycle.Service
	state   *db.SyncStateRepository
	matcher *ContactMatcher
	client  *calendar.Service
	userID  string
	logger  *log.Logger
	now     func() time.Time
}

type ImporterOption func(*Importer)

func WithLogger(l *log.Logger) ImporterOption {
	return func(i *Importer) { i.logger = l }
}

func WithClock(now func() time.Time) ImporterOption {
	return func(i *Importer) { i.now = now }
}

// NewImporter imports userID's primary calendar through svc.
func NewImporter(svc *lifecycle.Service, store *db.Store, client *calendar.Service, userID string, opts ...ImporterOption) *Importer {
	i := &Importer{
		svc:     svc,
		state:   store.SyncState,
		matcher: NewContactMatcher(store.Contacts, userID),
		client:  client,
		userID:  userID,
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// shouldSkipEvent determines if an event should be skipped during import.
// Returns (true, reason) if the event should be skipped, (false, "") otherwise.
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil || event.Start == nil {
		return true, skipMissingStart
	}
	if event.Status == "cancelled" {
		return true, skipCancelled
	}
	// All-day events carry Start.Date instead of Start.DateTime.
	if event.Start.DateTime == "" {
		return true, skipAllDay
	}
	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return true, skipDeclined
		}
	}
	if len(event.Attendees) <= 1 {
		return true, skipSolo
	}
	return false, ""
}

// Import fetches events and records the ones shared with known contacts. With
// initial set, or without a stored sync token, it looks back six months.
func (im *Importer) Import(ctx context.Context, initial bool) (*Result, error) {
	if err := im.state.UpdateStatus(ctx, im.userID, calendarService, models.SyncStatusSyncing, ""); err != nil {
		return nil, err
	}

	res, err := im.run(ctx, initial)
	if err != nil {
		if serr := im.state.UpdateStatus(ctx, im.userID, calendarService, models.SyncStatusError, err.Error()); serr != nil {
			im.logger.Warn("failed to record sync error", "err", serr)
		}
		return nil, err
	}
	return res, nil
}

func (im *Importer) run(ctx context.Context, initial bool) (*Result, error) {
	state, err := im.state.Get(ctx, im.userID, calendarService)
	if err != nil {
		return nil, err
	}

	res := &Result{Skipped: make(map[string]int)}
	var call *calendar.EventsListCall
	if !initial && state != nil && state.LastSyncToken != "" {
		res.Incremental = true
		call = im.listCall().SyncToken(state.LastSyncToken)
		im.logger.Info("incremental calendar sync")
	} else {
		call = im.listCall().TimeMin(im.now().AddDate(0, -initialMonths, 0).Format(time.RFC3339))
		im.logger.Info("full calendar sync", "months", initialMonths)
	}

	syncToken, err := im.fetch(ctx, call, res)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusGone {
		im.logger.Warn("sync token invalid, falling back to time-based sync")
		if err := im.state.ClearToken(ctx, im.userID, calendarService); err != nil {
			return nil, err
		}
		since := im.now().AddDate(0, -initialMonths, 0)
		if state != nil && state.LastSyncTime != nil {
			since = *state.LastSyncTime
		}
		res = &Result{Skipped: make(map[string]int)}
		syncToken, err = im.fetch(ctx, im.listCall().TimeMin(since.Format(time.RFC3339)), res)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	if syncToken != "" {
		if err := im.state.UpdateToken(ctx, im.userID, calendarService, syncToken); err != nil {
			return nil, err
		}
	} else if err := im.state.UpdateStatus(ctx, im.userID, calendarService, models.SyncStatusIdle, ""); err != nil {
		return nil, err
	}

	im.logger.Info("calendar sync finished",
		"fetched", res.Fetched, "created", res.Created, "updated", res.Updated, "skipped", res.TotalSkipped())
	return res, nil
}

func (im *Importer) listCall() *calendar.EventsListCall {
	return im.client.Events.List("primary").MaxResults(maxResults).SingleEvents(true)
}

// fetch pages through call and returns the sync token from the last page.
func (im *Importer) fetch(ctx context.Context, call *calendar.EventsListCall, res *Result) (string, error) {
	pageToken := ""
	for page := 1; ; page++ {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Context(ctx).Do()
		if err != nil {
			return "", err
		}
		res.Fetched += len(events.Items)
		im.logger.Debug("fetched events", "page", page, "count", len(events.Items))

		for _, event := range events.Items {
			if err := im.importEvent(ctx, event, res); err != nil {
				return "", err
			}
		}

		pageToken = events.NextPageToken
		if pageToken == "" {
			return events.NextSyncToken, nil
		}
	}
}

func (im *Importer) importEvent(ctx context.Context, event *calendar.Event, res *Result) error {
	if skip, reason := shouldSkipEvent(event); skip {
		im.skip(res, reason)
		return nil
	}

	emails := make([]string, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		if !a.Self {
			emails = append(emails, a.Email)
		}
	}
	participants, err := im.matcher.Participants(ctx, emails)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		im.skip(res, skipUnknown)
		return nil
	}

	e, err := toCalendarEvent(event)
	if err != nil {
		im.logger.Warn("skipping event with unreadable times", "id", event.Id, "err", err)
		im.skip(res, skipMissingStart)
		return nil
	}
	e.Participants = participants

	_, created, err := im.svc.UpsertExternalEvent(ctx, im.userID, *e)
	if err != nil {
		return fmt.Errorf("failed to store event %s: %w", event.Id, err)
	}
	if created {
		res.Created++
		metrics.CalendarEventsImported.WithLabelValues(calendarService, "created").Inc()
	} else {
		res.Updated++
		metrics.CalendarEventsImported.WithLabelValues(calendarService, "updated").Inc()
	}
	return nil
}

func (im *Importer) skip(res *Result, reason string) {
	res.Skipped[reason]++
	metrics.CalendarEventsImported.WithLabelValues(calendarService, "skipped").Inc()
}

// toCalendarEvent converts a timed Google event into a UTC calendar event.
func toCalendarEvent(event *calendar.Event) (*models.CalendarEvent, error) {
	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	start = start.UTC()

	e := &models.CalendarEvent{
		Title:       strings.TrimSpace(event.Summary),
		Description: event.Description,
		Date:        start.Format(models.DateLayout),
		StartTime:   start.Format(models.ClockLayout),
		Source:      models.EventSourceGoogle,
		ExternalID:  event.Id,
	}
	if e.Title == "" {
		e.Title = untitled
	}
	if event.End != nil && event.End.DateTime != "" {
		end, err := time.Parse(time.RFC3339, event.End.DateTime)
		if err != nil {
			return nil, fmt.Errorf("invalid end: %w", err)
		}
		// Events running past midnight keep only their start.
		if end = end.UTC(); end.Format(models.DateLayout) == e.Date {
			e.EndTime = end.Format(models.ClockLayout)
		}
	}
	return e, nil
}
