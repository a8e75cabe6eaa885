// ABOUTME: Interaction log repository
// ABOUTME: Append-only entries keyed by ULID, listed newest first per contact
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/synchro/models"
)

type InteractionsRepository struct {
	db DBTX
}

// Create appends an interaction. Ids are ULIDs so they sort by creation time.
func (r *InteractionsRepository) Create(ctx context.Context, i *models.Interaction) error {
	if i.ID == "" {
		i.ID = ulid.Make().String()
	}
	i.CreatedAt = time.Now().UTC()
	i.Date = i.Date.UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interactions (id, contact_id, user_id, interaction_type, date, notes, event_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, i.ContactID.String(), i.UserID, i.InteractionType, i.Date, i.Notes, nullString(i.EventID), i.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create interaction: %w", err)
	}
	return nil
}

func (r *InteractionsRepository) Get(ctx context.Context, userID, id string) (*models.Interaction, error) {
	rows, err := r.query(ctx, `
		SELECT id, contact_id, user_id, interaction_type, date, notes, event_id, created_at
		FROM interactions
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// ListByContact returns the contact's interactions, newest first. limit <= 0 means all.
func (r *InteractionsRepository) ListByContact(ctx context.Context, userID string, contactID uuid.UUID, limit int) ([]models.Interaction, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(ctx, `
		SELECT id, contact_id, user_id, interaction_type, date, notes, event_id, created_at
		FROM interactions
		WHERE contact_id = ? AND user_id = ?
		ORDER BY date DESC, id DESC
		LIMIT ?
	`, contactID.String(), userID, limit)
}

func (r *InteractionsRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
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

func (r *InteractionsRepository) DeleteByContact(ctx context.Context, userID string, contactID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interactions WHERE contact_id = ? AND user_id = ?`, contactID.String(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contact interactions: %w", err)
	}
	return affected(res)
}

func (r *InteractionsRepository) DeleteByOwner(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interactions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete interactions: %w", err)
	}
	return affected(res)
}

func (r *InteractionsRepository) query(ctx context.Context, query string, args ...any) ([]models.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	out := []models.Interaction{}
	for rows.Next() {
		var i models.Interaction
		var eventID sql.NullString
		if err := rows.Scan(&i.ID, &i.ContactID, &i.UserID, &i.InteractionType, &i.Date, &i.Notes, &eventID, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		i.Date = i.Date.UTC()
		i.EventID = eventID.String
		out = append(out, i)
	}
	return out, rows.Err()
}
