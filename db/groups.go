// ABOUTME: Contact group repository
// ABOUTME: Group CRUD with member counts; membership rows live in contact_groups
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/synchro/models"
)

type GroupsRepository struct {
	db DBTX
}

func (r *GroupsRepository) Create(ctx context.Context, g *models.Group) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_groups (id, user_id, name, description, color, profile_picture, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID.String(), g.UserID, g.Name, g.Description, g.Color, g.ProfilePicture, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// Get returns the group with its contact count. Members are not loaded.
func (r *GroupsRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*models.Group, error) {
	groups, err := r.query(ctx, `
		SELECT g.id, g.user_id, g.name, g.description, g.color, g.profile_picture,
			(SELECT COUNT(*) FROM contact_groups cg WHERE cg.group_id = g.id),
			g.created_at, g.updated_at
		FROM user_groups g
		WHERE g.id = ? AND g.user_id = ?
	`, id.String(), userID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrNotFound
	}
	return &groups[0], nil
}

// List returns the owner's groups by name, each with its contact count.
func (r *GroupsRepository) List(ctx context.Context, userID string) ([]models.Group, error) {
	return r.query(ctx, `
		SELECT g.id, g.user_id, g.name, g.description, g.color, g.profile_picture,
			COUNT(cg.contact_id),
			g.created_at, g.updated_at
		FROM user_groups g
		LEFT JOIN contact_groups cg ON cg.group_id = g.id
		WHERE g.user_id = ?
		GROUP BY g.id
		ORDER BY g.name COLLATE NOCASE, g.id
	`, userID)
}

func (r *GroupsRepository) Update(ctx context.Context, g *models.Group) error {
	g.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE user_groups
		SET name = ?, description = ?, color = ?, profile_picture = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, g.Name, g.Description, g.Color, g.ProfilePicture, g.UpdatedAt, g.ID.String(), g.UserID)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
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

// Delete removes the group; memberships cascade so no contact keeps the reference.
func (r *GroupsRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_groups WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
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

// CountContacts returns how many contacts reference the group.
func (r *GroupsRepository) CountContacts(ctx context.Context, groupID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_groups WHERE group_id = ?`, groupID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count group contacts: %w", err)
	}
	return n, nil
}

// OwnedIDs returns the subset of ids that are groups belonging to userID.
func (r *GroupsRepository) OwnedIDs(ctx context.Context, userID string, ids []string) (map[string]bool, error) {
	owned := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return owned, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM user_groups WHERE user_id = ? AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check group ownership: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned[id] = true
	}
	return owned, rows.Err()
}

func (r *GroupsRepository) query(ctx context.Context, query string, args ...any) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	out := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.Color, &g.ProfilePicture, &g.ContactCount, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
