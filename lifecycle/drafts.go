// ABOUTME: Draft generation and status transitions
// ABOUTME: Marking a draft sent re-anchors the contact at the moment it was sent
package lifecycle

import (
	"context"
	"strings"

	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/drafter"
	"github.com/harperreed/synchro/metrics"
	"github.com/harperreed/synchro/models"
)

// GenerateDraft writes a pending outreach draft for the contact. The message comes
// from the configured generator, which degrades to a fixed fallback; the draft is
// stored only once its text exists.
func (s *Service) GenerateDraft(ctx context.Context, userID, contactID string, hints drafter.StyleHints) (*models.Draft, error) {
	c, err := s.GetContact(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.Settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.recentHistory(ctx, userID, c.ID)
	if err != nil {
		return nil, err
	}

	text, fromModel := s.drafter.Generate(ctx, drafter.Request{
		Contact:      *c,
		WritingStyle: settings.WritingStyleSample,
		Hints:        hints,
		History:      history,
	})
	outcome := "fallback"
	if fromModel {
		outcome = "ai"
	}
	metrics.DraftsGenerated.WithLabelValues(outcome).Inc()

	d := &models.Draft{
		ContactID:    c.ID,
		UserID:       userID,
		ContactName:  c.Name,
		DraftMessage: text,
		Status:       models.DraftPending,
	}
	err = s.store.InTx(ctx, func(tx *db.Store) error {
		if _, err := tx.Contacts.Get(ctx, userID, c.ID); err != nil {
			return err
		}
		return tx.Drafts.Create(ctx, d)
	})
	if err != nil {
		return nil, fromStore(err, "contact")
	}

	s.logger.Info("draft generated", "draft_id", d.ID, "contact_id", c.ID, "outcome", outcome)
	return d, nil
}

// ListDrafts returns the owner's drafts in status (pending when empty).
func (s *Service) ListDrafts(ctx context.Context, userID, status string) ([]models.Draft, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		status = models.DraftPending
	}
	switch status {
	case models.DraftPending, models.DraftSent, models.DraftDismissed:
	default:
		return nil, invalid("unknown draft status %q", status)
	}
	return s.store.Drafts.ListByStatus(ctx, userID, status)
}

func (s *Service) DismissDraft(ctx context.Context, userID, id string) (*models.Draft, error) {
	d, _, err := s.resolveDraft(ctx, userID, id, models.DraftDismissed)
	return d, err
}

// MarkDraftSent marks the draft sent, sets the contact's last_contact_date to now and
// recomputes next_due. It returns the updated contact as well.
func (s *Service) MarkDraftSent(ctx context.Context, userID, id string) (*models.Draft, *models.Contact, error) {
	return s.resolveDraft(ctx, userID, id, models.DraftSent)
}

// resolveDraft moves a pending draft to a terminal status. Repeating the transition the
// draft already made is a no-op; moving between terminal statuses is rejected.
func (s *Service) resolveDraft(ctx context.Context, userID, id, to string) (*models.Draft, *models.Contact, error) {
	did, err := parseID(id, "draft")
	if err != nil {
		return nil, nil, err
	}

	var draft *models.Draft
	var contact *models.Contact
	noop := false
	err = s.retry(ctx, "draft_"+to, func(tx *db.Store) error {
		noop = false
		contact = nil
		d, err := tx.Drafts.Get(ctx, userID, did)
		if err != nil {
			return err
		}
		if d.Status == to {
			draft = d
			noop = true
			return nil
		}
		if d.Status != models.DraftPending {
			return invalidTransition("draft is already %s", d.Status)
		}

		now := s.clock()
		if err := tx.Drafts.Transition(ctx, userID, did, models.DraftPending, to, now); err != nil {
			return err
		}
		d.Status = to
		d.ResolvedAt = &now
		draft = d

		if to != models.DraftSent {
			return nil
		}
		c, err := tx.Contacts.Get(ctx, userID, d.ContactID)
		if err != nil {
			return err
		}
		if err := s.reanchor(ctx, tx, c, now, now, TriggerDraftSent); err != nil {
			return err
		}
		if err := tx.Contacts.Update(ctx, c); err != nil {
			return err
		}
		contact = c
		return nil
	})
	if err != nil {
		return nil, nil, fromStore(err, "draft")
	}

	if !noop {
		metrics.DraftTransitions.WithLabelValues(to).Inc()
		s.logger.Info("draft resolved", "draft_id", did, "status", to)
	}
	return draft, contact, nil
}

func (s *Service) DeleteDraft(ctx context.Context, userID, id string) error {
	did, err := parseID(id, "draft")
	if err != nil {
		return err
	}
	if err := s.store.Drafts.Delete(ctx, userID, did); err != nil {
		return fromStore(err, "draft")
	}
	return nil
}
