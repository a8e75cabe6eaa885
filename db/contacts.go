// ABOUTME: Contact repository
// ABOUTME: Owner-scoped CRUD, due queries, bulk stage resets, and version-guarded updates
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/synchro/models"
)

const contactColumns = `id, user_id, name, job, location, academic_degree, birthday, hobbies,
	favorite_food, how_we_met, notes, phone, email, profile_picture, language, tone,
	example_message, device_contact_id, pipeline_stage, last_contact_date, next_due,
	target_interval_days, version, created_at, updated_at`

type ContactsRepository struct {
	db DBTX
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var c models.Contact
	var lastContact, nextDue sql.NullTime

	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Job, &c.Location, &c.AcademicDegree, &c.Birthday, &c.Hobbies,
		&c.FavoriteFood, &c.HowWeMet, &c.Notes, &c.Phone, &c.Email, &c.ProfilePicture, &c.Language, &c.Tone,
		&c.ExampleMessage, &c.DeviceContactID, &c.PipelineStage, &lastContact, &nextDue,
		&c.TargetIntervalDays, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastContact.Valid {
		t := lastContact.Time.UTC()
		c.LastContactDate = &t
	}
	if nextDue.Valid {
		t := nextDue.Time.UTC()
		c.NextDue = &t
	}
	c.Groups = []string{}

	return &c, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Create inserts a contact at version 1, assigning an id when none is set.
func (r *ContactsRepository) Create(ctx context.Context, c *models.Contact) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID.String(), c.UserID, c.Name, c.Job, c.Location, c.AcademicDegree, c.Birthday, c.Hobbies,
		c.FavoriteFood, c.HowWeMet, c.Notes, c.Phone, c.Email, c.ProfilePicture, c.Language, c.Tone,
		c.ExampleMessage, c.DeviceContactID, c.PipelineStage, utcPtr(c.LastContactDate), utcPtr(c.NextDue),
		c.TargetIntervalDays, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	if c.Groups == nil {
		c.Groups = []string{}
	}
	return r.SetGroups(ctx, c.ID, c.Groups)
}

// Get returns the owner's contact with its group ids.
func (r *ContactsRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*models.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = ? AND user_id = ?
	`, id.String(), userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	groups, err := r.groupIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Groups = groups

	return c, nil
}

// List returns all of the owner's contacts ordered by name.
func (r *ContactsRepository) List(ctx context.Context, userID string) ([]models.Contact, error) {
	return r.queryContacts(ctx, userID, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE user_id = ?
		ORDER BY name COLLATE NOCASE, id
	`, userID)
}

// ListByStage returns the owner's contacts currently in stage.
func (r *ContactsRepository) ListByStage(ctx context.Context, userID, stage string) ([]models.Contact, error) {
	return r.queryContacts(ctx, userID, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE user_id = ? AND pipeline_stage = ?
		ORDER BY name COLLATE NOCASE, id
	`, userID, stage)
}

// ListScheduled returns the owner's contacts that have a due date, soonest first.
func (r *ContactsRepository) ListScheduled(ctx context.Context, userID string) ([]models.Contact, error) {
	return r.queryContacts(ctx, userID, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE user_id = ? AND next_due IS NOT NULL
		ORDER BY next_due, id
	`, userID)
}

// ListDue returns scheduled contacts with next_due <= now, most overdue first.
func (r *ContactsRepository) ListDue(ctx context.Context, userID string, now time.Time) ([]models.Contact, error) {
	return r.queryContacts(ctx, userID, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE user_id = ? AND next_due IS NOT NULL AND next_due <= ?
		ORDER BY next_due, id
	`, userID, now.UTC())
}

// ListByGroup returns the owner's contacts that belong to groupID.
func (r *ContactsRepository) ListByGroup(ctx context.Context, userID string, groupID uuid.UUID) ([]models.Contact, error) {
	return r.queryContacts(ctx, userID, `
		SELECT `+prefixed("c", contactColumns)+`
		FROM contacts c
		JOIN contact_groups cg ON cg.contact_id = c.id
		WHERE c.user_id = ? AND cg.group_id = ?
		ORDER BY c.name COLLATE NOCASE, c.id
	`, userID, groupID.String())
}

// FindByEmail matches case-insensitively within the owner's contacts.
func (r *ContactsRepository) FindByEmail(ctx context.Context, userID, email string) (*models.Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrNotFound
	}

	c, err := scanContact(r.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE user_id = ? AND LOWER(email) = LOWER(?)
		ORDER BY created_at
		LIMIT 1
	`, userID, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact by email: %w", err)
	}

	groups, err := r.groupIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Groups = groups
	return c, nil
}

// Update writes every mutable column, guarded by the version the caller read.
// On success c.Version is advanced; a stale version yields ErrConflict.
func (r *ContactsRepository) Update(ctx context.Context, c *models.Contact) error {
	c.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts
		SET name = ?, job = ?, location = ?, academic_degree = ?, birthday = ?, hobbies = ?,
			favorite_food = ?, how_we_met = ?, notes = ?, phone = ?, email = ?, profile_picture = ?,
			language = ?, tone = ?, example_message = ?, device_contact_id = ?,
			pipeline_stage = ?, last_contact_date = ?, next_due = ?, target_interval_days = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND user_id = ? AND version = ?
	`,
		c.Name, c.Job, c.Location, c.AcademicDegree, c.Birthday, c.Hobbies,
		c.FavoriteFood, c.HowWeMet, c.Notes, c.Phone, c.Email, c.ProfilePicture,
		c.Language, c.Tone, c.ExampleMessage, c.DeviceContactID,
		c.PipelineStage, utcPtr(c.LastContactDate), utcPtr(c.NextDue), c.TargetIntervalDays,
		c.UpdatedAt,
		c.ID.String(), c.UserID, c.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, c.UserID, c.ID)
	}

	c.Version++
	if c.Groups == nil {
		return nil
	}
	return r.SetGroups(ctx, c.ID, c.Groups)
}

func (r *ContactsRepository) missOrConflict(ctx context.Context, userID string, id uuid.UUID) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contacts WHERE id = ? AND user_id = ?
	`, id.String(), userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check contact: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

// SetGroups replaces the contact's group membership.
func (r *ContactsRepository) SetGroups(ctx context.Context, contactID uuid.UUID, groupIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contact_groups WHERE contact_id = ?`, contactID.String()); err != nil {
		return fmt.Errorf("failed to clear contact groups: %w", err)
	}
	for _, gid := range groupIDs {
		_, err := r.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO contact_groups (contact_id, group_id) VALUES (?, ?)
		`, contactID.String(), gid)
		if err != nil {
			return fmt.Errorf("failed to add contact to group: %w", err)
		}
	}
	return nil
}

// Delete removes the contact; interactions, drafts, memberships and event participation cascade.
func (r *ContactsRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
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

// DeleteByOwner removes every contact the owner has, returning the count.
func (r *ContactsRepository) DeleteByOwner(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	return affected(res)
}

// ResetStage moves every contact in stage to the unscheduled sentinel.
// last_contact_date is left as it was.
func (r *ContactsRepository) ResetStage(ctx context.Context, userID, stage string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts
		SET pipeline_stage = ?, next_due = NULL, target_interval_days = 0,
			version = version + 1, updated_at = ?
		WHERE user_id = ? AND pipeline_stage = ?
	`, models.StageNew, time.Now().UTC(), userID, stage)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stage %q: %w", stage, err)
	}
	return affected(res)
}

// CountByStage returns how many of the owner's contacts sit in each stage.
func (r *ContactsRepository) CountByStage(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pipeline_stage, COUNT(*)
		FROM contacts
		WHERE user_id = ?
		GROUP BY pipeline_stage
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count stages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}

// Owners lists every user id that has at least one contact.
func (r *ContactsRepository) Owners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM contacts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		owners = append(owners, u)
	}
	return owners, rows.Err()
}

// queryContacts runs a contact query, then attaches group ids once the rows are closed.
func (r *ContactsRepository) queryContacts(ctx context.Context, userID, query string, args ...any) ([]models.Contact, error) {
	contacts, err := r.scanContacts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return contacts, nil
	}

	memberships, err := r.ownerMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		if ids, ok := memberships[contacts[i].ID.String()]; ok {
			contacts[i].Groups = ids
		}
	}
	return contacts, nil
}

func (r *ContactsRepository) scanContacts(ctx context.Context, query string, args ...any) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (r *ContactsRepository) groupIDs(ctx context.Context, contactID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_id FROM contact_groups WHERE contact_id = ? ORDER BY group_id
	`, contactID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load contact groups: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ContactsRepository) ownerMemberships(ctx context.Context, userID string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cg.contact_id, cg.group_id
		FROM contact_groups cg
		JOIN contacts c ON c.id = cg.contact_id
		WHERE c.user_id = ?
		ORDER BY cg.contact_id, cg.group_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group memberships: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var cid, gid string
		if err := rows.Scan(&cid, &gid); err != nil {
			return nil, err
		}
		out[cid] = append(out[cid], gid)
	}
	return out, rows.Err()
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
