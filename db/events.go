// ABOUTME: Calendar event repository
// ABOUTME: Stores events with participant rows; supports range, contact and external-id lookups
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/synchro/models"
)

const eventColumns = `e.id, e.user_id, e.title, e.description, e.date, e.start_time, e.end_time,
	e.all_day, e.reminder_minutes, e.color, e.source, e.external_id, e.created_at, e.updated_at`

type EventsRepository struct {
	db DBTX
}

func (r *EventsRepository) Create(ctx context.Context, e *models.CalendarEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Source == "" {
		e.Source = models.EventSourceManual
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendar_events (id, user_id, title, description, date, start_time, end_time,
			all_day, reminder_minutes, color, source, external_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID.String(), e.UserID, e.Title, e.Description, e.Date, e.StartTime, e.EndTime,
		e.AllDay, e.ReminderMinutes, e.Color, e.Source, nullString(e.ExternalID), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create calendar event: %w", err)
	}

	return r.setParticipants(ctx, e.ID, e.Participants)
}

func (r *EventsRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*models.CalendarEvent, error) {
	events, err := r.query(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events e
		WHERE e.id = ? AND e.user_id = ?
	`, id.String(), userID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return &events[0], nil
}

// GetByExternalID finds an imported event by its provider id.
func (r *EventsRepository) GetByExternalID(ctx context.Context, userID, source, externalID string) (*models.CalendarEvent, error) {
	events, err := r.query(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events e
		WHERE e.user_id = ? AND e.source = ? AND e.external_id = ?
	`, userID, source, externalID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return &events[0], nil
}

// ListRange returns events dated within [from, to] (YYYY-MM-DD, inclusive), in start order.
func (r *EventsRepository) ListRange(ctx context.Context, userID, from, to string) ([]models.CalendarEvent, error) {
	return r.query(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events e
		WHERE e.user_id = ? AND e.date >= ? AND e.date <= ?
		ORDER BY e.date, e.all_day DESC, e.start_time, e.id
	`, userID, from, to)
}

// ListByContact returns events the contact participates in, newest first.
func (r *EventsRepository) ListByContact(ctx context.Context, userID string, contactID uuid.UUID) ([]models.CalendarEvent, error) {
	return r.query(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events e
		JOIN event_participants p ON p.event_id = e.id
		WHERE e.user_id = ? AND p.contact_id = ?
		ORDER BY e.date DESC, e.start_time DESC, e.id
	`, userID, contactID.String())
}

func (r *EventsRepository) Update(ctx context.Context, e *models.CalendarEvent) error {
	e.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE calendar_events
		SET title = ?, description = ?, date = ?, start_time = ?, end_time = ?, all_day = ?,
			reminder_minutes = ?, color = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, e.Title, e.Description, e.Date, e.StartTime, e.EndTime, e.AllDay,
		e.ReminderMinutes, e.Color, e.UpdatedAt, e.ID.String(), e.UserID)
	if err != nil {
		return fmt.Errorf("failed to update calendar event: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return r.setParticipants(ctx, e.ID, e.Participants)
}

func (r *EventsRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EventsRepository) setParticipants(ctx context.Context, eventID uuid.UUID, participants []uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM event_participants WHERE event_id = ?`, eventID.String()); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	for _, cid := range participants {
		_, err := r.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO event_participants (event_id, contact_id) VALUES (?, ?)
		`, eventID.String(), cid.String())
		if err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
	}
	return nil
}

func (r *EventsRepository) query(ctx context.Context, query string, args ...any) ([]models.CalendarEvent, error) {
	events, err := r.scan(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for i := range events {
		ids, err := r.participants(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Participants = ids
	}
	return events, nil
}

func (r *EventsRepository) scan(ctx context.Context, query string, args ...any) ([]models.CalendarEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	out := []models.CalendarEvent{}
	for rows.Next() {
		var e models.CalendarEvent
		var externalID sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Date, &e.StartTime, &e.EndTime,
			&e.AllDay, &e.ReminderMinutes, &e.Color, &e.Source, &externalID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		e.ExternalID = externalID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventsRepository) participants(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT contact_id FROM event_participants WHERE event_id = ? ORDER BY contact_id
	`, eventID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
