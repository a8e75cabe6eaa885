// ABOUTME: Morning briefing reads: the due list and the daily digest
// ABOUTME: Read-only; selection rules live in the briefing package
package lifecycle

import (
	"context"

	"github.com/harperreed/synchro/briefing"
	"github.com/harperreed/synchro/models"
)

// Briefing returns the owner's contacts that are due or overdue right now.
func (s *Service) Briefing(ctx context.Context, userID string) ([]models.Contact, error) {
	return s.DueContacts(ctx, userID)
}

// Digest builds the extended morning digest: due buckets, birthdays and events.
func (s *Service) Digest(ctx context.Context, userID string) (*briefing.Digest, error) {
	contacts, err := s.store.Contacts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	today, err := s.EventsToday(ctx, userID)
	if err != nil {
		return nil, err
	}
	week, err := s.EventsThisWeek(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := briefing.BuildDigest(contacts, today, week, s.clock())
	s.logger.Debug("digest built", "user_id", userID,
		"overdue", d.Stats.OverdueCount, "due_today", d.Stats.DueTodayCount, "birthdays", d.Stats.BirthdaysTodayCount)
	return d, nil
}
