// ABOUTME: Draft message repository
// ABOUTME: Stores generated outreach drafts and applies status transitions conditionally
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/synchro/models"
)

type DraftsRepository struct {
	db DBTX
}

func (r *DraftsRepository) Create(ctx context.Context, d *models.Draft) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = models.DraftPending
	}
	d.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO drafts (id, contact_id, user_id, contact_name, draft_message, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID.String(), d.ContactID.String(), d.UserID, d.ContactName, d.DraftMessage, d.Status, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	return nil
}

func (r *DraftsRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*models.Draft, error) {
	drafts, err := r.query(ctx, `
		SELECT id, contact_id, user_id, contact_name, draft_message, status, created_at, resolved_at
		FROM drafts
		WHERE id = ? AND user_id = ?
	`, id.String(), userID)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, ErrNotFound
	}
	return &drafts[0], nil
}

// ListByStatus returns the owner's drafts in status, newest first.
func (r *DraftsRepository) ListByStatus(ctx context.Context, userID, status string) ([]models.Draft, error) {
	return r.query(ctx, `
		SELECT id, contact_id, user_id, contact_name, draft_message, status, created_at, resolved_at
		FROM drafts
		WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC, id
	`, userID, status)
}

func (r *DraftsRepository) ListByContact(ctx context.Context, userID string, contactID uuid.UUID) ([]models.Draft, error) {
	return r.query(ctx, `
		SELECT id, contact_id, user_id, contact_name, draft_message, status, created_at, resolved_at
		FROM drafts
		WHERE user_id = ? AND contact_id = ?
		ORDER BY created_at DESC, id
	`, userID, contactID.String())
}

// Transition moves a draft from one status to another. It returns ErrConflict
// when the draft exists but is no longer in from.
func (r *DraftsRepository) Transition(ctx context.Context, userID string, id uuid.UUID, from, to string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE drafts
		SET status = ?, resolved_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`, to, at.UTC(), id.String(), userID, from)
	if err != nil {
		return fmt.Errorf("failed to update draft status: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := r.Get(ctx, userID, id); err != nil {
		return err
	}
	return ErrConflict
}

func (r *DraftsRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
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

func (r *DraftsRepository) DeleteByContact(ctx context.Context, userID string, contactID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE contact_id = ? AND user_id = ?`, contactID.String(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contact drafts: %w", err)
	}
	return affected(res)
}

func (r *DraftsRepository) DeleteByOwner(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete drafts: %w", err)
	}
	return affected(res)
}

func (r *DraftsRepository) query(ctx context.Context, query string, args ...any) ([]models.Draft, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	out := []models.Draft{}
	for rows.Next() {
		var d models.Draft
		var resolved sql.NullTime
		if err := rows.Scan(&d.ID, &d.ContactID, &d.UserID, &d.ContactName, &d.DraftMessage, &d.Status, &d.CreatedAt, &resolved); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		if resolved.Valid {
			t := resolved.Time.UTC()
			d.ResolvedAt = &t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
