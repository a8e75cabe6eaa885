// ABOUTME: Interaction logging; each logged interaction re-anchors the contact's schedule
// ABOUTME: Deleting an interaction leaves the schedule alone
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/synchro/cadence"
	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/models"
)

// HistoryLimit is how many recent interactions feed draft generation.
const HistoryLimit = 5

// LogInteraction appends an interaction, sets the contact's last_contact_date to its
// date and recomputes next_due from the contact's cached interval.
func (s *Service) LogInteraction(ctx context.Context, userID, contactID string, in models.NewInteraction) (*models.Interaction, *models.Contact, error) {
	in.InteractionType = strings.TrimSpace(in.InteractionType)
	if err := check(in); err != nil {
		return nil, nil, err
	}
	if !models.ValidInteractionType(in.InteractionType) {
		return nil, nil, invalid("unknown interaction type %q", in.InteractionType)
	}

	var logged *models.Interaction
	c, err := s.mutateContact(ctx, "log_interaction", userID, contactID, func(tx *db.Store, c *models.Contact) error {
		now := s.clock()
		date := cadence.AnchorOrNow(in.Date, now)
		i, err := s.recordInteraction(ctx, tx, c, in.InteractionType, date, in.Notes, "", now)
		if err != nil {
			return err
		}
		logged = i
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("interaction logged", "contact_id", c.ID, "type", logged.InteractionType, "next_due", c.NextDue)
	return logged, c, nil
}

// recordInteraction inserts the log entry and re-anchors c in memory; the caller persists c.
func (s *Service) recordInteraction(ctx context.Context, tx *db.Store, c *models.Contact, typ string, date time.Time, notes, eventID string, now time.Time) (*models.Interaction, error) {
	i := &models.Interaction{
		ContactID:       c.ID,
		UserID:          c.UserID,
		InteractionType: typ,
		Date:            date,
		Notes:           notes,
		EventID:         eventID,
	}
	if err := tx.Interactions.Create(ctx, i); err != nil {
		return nil, err
	}
	if err := s.reanchor(ctx, tx, c, date, now, TriggerInteraction); err != nil {
		return nil, err
	}
	return i, nil
}

// ListInteractions returns the contact's interactions, newest first.
func (s *Service) ListInteractions(ctx context.Context, userID, contactID string) ([]models.Interaction, error) {
	cid, err := parseID(contactID, "contact")
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Contacts.Get(ctx, userID, cid); err != nil {
		return nil, fromStore(err, "contact")
	}
	return s.store.Interactions.ListByContact(ctx, userID, cid, 0)
}

func (s *Service) DeleteInteraction(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("interaction id is required")
	}
	if err := s.store.Interactions.Delete(ctx, userID, id); err != nil {
		return fromStore(err, "interaction")
	}
	return nil
}

func (s *Service) recentHistory(ctx context.Context, userID string, contactID uuid.UUID) ([]models.Interaction, error) {
	return s.store.Interactions.ListByContact(ctx, userID, contactID, HistoryLimit)
}
