// ABOUTME: Attendee-to-contact matching for calendar import
// ABOUTME: Looks contacts up by email once per import and caches hits and misses
package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/models"
)

// ContactFinder is the lookup the matcher needs; *db.ContactsRepository satisfies it.
type ContactFinder interface {
	FindByEmail(ctx context.Context, userID, email string) (*models.Contact, error)
}

type ContactMatcher struct {
	finder  ContactFinder
	userID  string
	byEmail map[string]*models.Contact
}

// NewContactMatcher creates a matcher over one owner's contacts.
func NewContactMatcher(finder ContactFinder, userID string) *ContactMatcher {
	return &ContactMatcher{
		finder:  finder,
		userID:  userID,
		byEmail: make(map[string]*models.Contact),
	}
}

// FindMatch looks for an existing contact by email. A nil contact with a nil
// error means nobody matched.
func (m *ContactMatcher) FindMatch(ctx context.Context, email string) (*models.Contact, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}
	if c, seen := m.byEmail[normalized]; seen {
		return c, nil
	}

	c, err := m.finder.FindByEmail(ctx, m.userID, normalized)
	if errors.Is(err, db.ErrNotFound) {
		m.byEmail[normalized] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.byEmail[normalized] = c
	return c, nil
}

// Participants resolves attendee emails to distinct contact IDs, in attendee order.
func (m *ContactMatcher) Participants(ctx context.Context, emails []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, email := range emails {
		c, err := m.FindMatch(ctx, email)
		if err != nil {
			return nil, err
		}
		if c == nil || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
