// ABOUTME: Calendar event operations
// ABOUTME: Adding a participant to an event logs a Scheduled Meeting interaction for that contact
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/models"
)

func (s *Service) CreateEvent(ctx context.Context, userID string, in models.CalendarEventInput) (*models.CalendarEvent, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Date = strings.TrimSpace(in.Date)
	if err := check(in); err != nil {
		return nil, err
	}
	participants, err := parseParticipants(in.Participants)
	if err != nil {
		return nil, err
	}

	e := &models.CalendarEvent{
		UserID:          userID,
		Title:           in.Title,
		Description:     in.Description,
		Date:            in.Date,
		StartTime:       strings.TrimSpace(in.StartTime),
		EndTime:         strings.TrimSpace(in.EndTime),
		AllDay:          in.AllDay,
		Participants:    participants,
		ReminderMinutes: in.ReminderMinutes,
		Color:           in.Color,
		Source:          models.EventSourceManual,
	}
	if err := validateEventTimes(e); err != nil {
		return nil, err
	}

	w, err := s.saveEvent(ctx, "create_event", func(*db.Store) (eventWrite, error) {
		cp := *e
		return eventWrite{event: &cp, create: true}, nil
	})
	if err != nil {
		return nil, err
	}
	e = w.event
	s.logger.Info("calendar event created", "event_id", e.ID, "participants", len(e.Participants))
	return e, nil
}

func (s *Service) GetEvent(ctx context.Context, userID, id string) (*models.CalendarEvent, error) {
	eid, err := parseID(id, "calendar event")
	if err != nil {
		return nil, err
	}
	e, err := s.store.Events.Get(ctx, userID, eid)
	if err != nil {
		return nil, fromStore(err, "calendar event")
	}
	return e, nil
}

// UpdateEvent applies a partial update. Participants added by the update get a
// Scheduled Meeting interaction; existing ones are left alone.
func (s *Service) UpdateEvent(ctx context.Context, userID, id string, upd models.CalendarEventUpdate) (*models.CalendarEvent, error) {
	eid, err := parseID(id, "calendar event")
	if err != nil {
		return nil, err
	}
	if upd.Title.Cleared() || (upd.Title.IsSet() && strings.TrimSpace(upd.Title.Value()) == "") {
		return nil, invalid("title is required")
	}
	if upd.Date.Cleared() {
		return nil, invalid("date is required")
	}
	var participants []uuid.UUID
	if !upd.Participants.Unchanged() {
		if participants, err = parseParticipants(upd.Participants.Value()); err != nil {
			return nil, err
		}
	}

	w, err := s.saveEvent(ctx, "update_event", func(tx *db.Store) (eventWrite, error) {
		current, err := tx.Events.Get(ctx, userID, eid)
		if err != nil {
			return eventWrite{}, err
		}
		previous := current.Participants

		upd.Title.Apply(&current.Title)
		current.Title = strings.TrimSpace(current.Title)
		upd.Description.Apply(&current.Description)
		upd.Date.Apply(&current.Date)
		upd.StartTime.Apply(&current.StartTime)
		upd.EndTime.Apply(&current.EndTime)
		upd.AllDay.Apply(&current.AllDay)
		upd.ReminderMinutes.Apply(&current.ReminderMinutes)
		upd.Color.Apply(&current.Color)
		if !upd.Participants.Unchanged() {
			current.Participants = participants
		}
		if err := validateEventTimes(current); err != nil {
			return eventWrite{}, err
		}
		return eventWrite{event: current, previous: previous}, nil
	})
	if err != nil {
		return nil, err
	}
	return w.event, nil
}

func (s *Service) DeleteEvent(ctx context.Context, userID, id string) error {
	eid, err := parseID(id, "calendar event")
	if err != nil {
		return err
	}
	if err := s.store.Events.Delete(ctx, userID, eid); err != nil {
		return fromStore(err, "calendar event")
	}
	return nil
}

// ListEvents returns events dated within [from, to]; an empty bound is open.
func (s *Service) ListEvents(ctx context.Context, userID, from, to string) ([]models.CalendarEvent, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return nil, invalid("invalid date %q, expected YYYY-MM-DD", d)
		}
	}
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	return s.store.Events.ListRange(ctx, userID, from, to)
}

func (s *Service) EventsToday(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	today := s.clock().Format(models.DateLayout)
	return s.store.Events.ListRange(ctx, userID, today, today)
}

// EventsThisWeek returns events from today through six days ahead.
func (s *Service) EventsThisWeek(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	now := s.clock()
	return s.store.Events.ListRange(ctx, userID, now.Format(models.DateLayout), now.AddDate(0, 0, 6).Format(models.DateLayout))
}

func (s *Service) EventsOnDate(ctx context.Context, userID, date string) ([]models.CalendarEvent, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, invalid("invalid date %q, expected YYYY-MM-DD", date)
	}
	return s.store.Events.ListRange(ctx, userID, date, date)
}

func (s *Service) EventsForContact(ctx context.Context, userID, contactID string) ([]models.CalendarEvent, error) {
	cid, err := parseID(contactID, "contact")
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Contacts.Get(ctx, userID, cid); err != nil {
		return nil, fromStore(err, "contact")
	}
	return s.store.Events.ListByContact(ctx, userID, cid)
}

// UpsertExternalEvent stores an event imported from a provider, keyed by its
// source and external id. It reports whether the event was new.
func (s *Service) UpsertExternalEvent(ctx context.Context, userID string, e models.CalendarEvent) (*models.CalendarEvent, bool, error) {
	if e.ExternalID == "" || e.Source == "" {
		return nil, false, invalid("imported events need a source and external id")
	}
	e.UserID = userID
	if err := validateEventTimes(&e); err != nil {
		return nil, false, err
	}

	w, err := s.saveEvent(ctx, "import_event", func(tx *db.Store) (eventWrite, error) {
		cp := e
		existing, err := tx.Events.GetByExternalID(ctx, userID, e.Source, e.ExternalID)
		switch {
		case errors.Is(err, db.ErrNotFound):
			cp.ID = uuid.Nil
			return eventWrite{event: &cp, create: true}, nil
		case err != nil:
			return eventWrite{}, err
		}
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
		return eventWrite{event: &cp, previous: existing.Participants}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return w.event, w.create, nil
}

// eventWrite is an event to store and the participants it already had.
type eventWrite struct {
	event    *models.CalendarEvent
	previous []uuid.UUID
	create   bool
}

// saveEvent runs load inside the write transaction, stores the event, and logs
// an interaction for every participant not in previous.
func (s *Service) saveEvent(ctx context.Context, op string, load func(tx *db.Store) (eventWrite, error)) (eventWrite, error) {
	var out eventWrite
	err := s.retry(ctx, op, func(tx *db.Store) error {
		w, err := load(tx)
		if err != nil {
			return err
		}
		e := w.event
		start, err := e.Start()
		if err != nil {
			return invalid("invalid event start: %v", err)
		}
		seen := make(map[uuid.UUID]bool, len(w.previous))
		for _, id := range w.previous {
			seen[id] = true
		}

		added := make([]*models.Contact, 0, len(e.Participants))
		for _, cid := range e.Participants {
			c, err := tx.Contacts.Get(ctx, e.UserID, cid)
			if errors.Is(err, db.ErrNotFound) {
				return notFound("contact %s not found", cid)
			}
			if err != nil {
				return err
			}
			if !seen[cid] {
				added = append(added, c)
			}
		}

		if w.create {
			if err := tx.Events.Create(ctx, e); err != nil {
				return err
			}
		} else if err := tx.Events.Update(ctx, e); err != nil {
			return err
		}

		now := s.clock()
		for _, c := range added {
			if _, err := s.recordInteraction(ctx, tx, c, models.InteractionScheduledMeeting, start, e.Title, e.ID.String(), now); err != nil {
				return err
			}
			if err := tx.Contacts.Update(ctx, c); err != nil {
				return err
			}
		}
		out = w
		return nil
	})
	if err != nil {
		return eventWrite{}, fromStore(err, "calendar event")
	}
	return out, nil
}

func parseParticipants(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, raw := range ids {
		id, err := parseID(raw, "participant")
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func validateEventTimes(e *models.CalendarEvent) error {
	if _, err := time.Parse(models.DateLayout, e.Date); err != nil {
		return invalid("invalid date %q, expected YYYY-MM-DD", e.Date)
	}
	for _, t := range []string{e.StartTime, e.EndTime} {
		if t == "" {
			continue
		}
		if _, err := time.Parse(models.ClockLayout, t); err != nil {
			return invalid("invalid time %q, expected HH:MM", t)
		}
	}
	return nil
}
