// ABOUTME: Contact lifecycle transitions: create, update, stage move, delete
// ABOUTME: Keeps next_due null exactly when the contact is in the New stage
package lifecycle

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/synchro/cadence"
	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/models"
)

const (
	defaultLanguage = "English"
	defaultTone     = "Casual"
)

func parseID(id, what string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, invalid("invalid %s id %q", what, id)
	}
	return parsed, nil
}

// CreateContact stores a new contact. Contacts created in New are unscheduled; any other
// stage is anchored at the given last contact date (or now) and gets a due date.
func (s *Service) CreateContact(ctx context.Context, userID string, in models.NewContact) (*models.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return nil, err
	}

	stage := strings.TrimSpace(in.PipelineStage)
	if stage == "" {
		stage = models.StageMonthly
	}

	c := &models.Contact{
		UserID:          userID,
		Name:            in.Name,
		Job:             in.Job,
		Location:        in.Location,
		AcademicDegree:  in.AcademicDegree,
		Birthday:        in.Birthday,
		Hobbies:         in.Hobbies,
		FavoriteFood:    in.FavoriteFood,
		HowWeMet:        in.HowWeMet,
		Notes:           in.Notes,
		Phone:           in.Phone,
		Email:           strings.TrimSpace(in.Email),
		ProfilePicture:  in.ProfilePicture,
		Language:        orDefault(in.Language, defaultLanguage),
		Tone:            orDefault(in.Tone, defaultTone),
		ExampleMessage:  in.ExampleMessage,
		DeviceContactID: in.DeviceContactID,
		Groups:          dedupe(in.Groups),
		PipelineStage:   stage,
	}

	err := s.retry(ctx, "create_contact", func(tx *db.Store) error {
		if err := s.checkGroups(ctx, tx, userID, c.Groups); err != nil {
			return err
		}
		p, err := s.policy(ctx, tx, userID, stage)
		if err != nil {
			return err
		}

		now := s.clock()
		c.LastContactDate = nil
		if p.Scheduled() {
			anchor := now
			if in.LastContactDate != nil {
				anchor = cadence.AnchorOrNow(*in.LastContactDate, now)
			}
			c.LastContactDate = &anchor
			s.schedule(c, p, &anchor, now, TriggerCreate)
		} else {
			s.schedule(c, p, nil, now, TriggerCreate)
		}

		c.ID = uuid.Nil
		return tx.Contacts.Create(ctx, c)
	})
	if err != nil {
		return nil, fromStore(err, "contact")
	}

	s.logger.Info("contact created", "contact_id", c.ID, "user_id", userID, "stage", c.PipelineStage)
	return c, nil
}

func (s *Service) GetContact(ctx context.Context, userID, id string) (*models.Contact, error) {
	cid, err := parseID(id, "contact")
	if err != nil {
		return nil, err
	}
	c, err := s.store.Contacts.Get(ctx, userID, cid)
	if err != nil {
		return nil, fromStore(err, "contact")
	}
	return c, nil
}

// ListContacts returns the owner's contacts, optionally restricted to one stage.
func (s *Service) ListContacts(ctx context.Context, userID, stage string) ([]models.Contact, error) {
	if stage = strings.TrimSpace(stage); stage != "" {
		return s.store.Contacts.ListByStage(ctx, userID, stage)
	}
	return s.store.Contacts.List(ctx, userID)
}

// UpdateContact applies a partial update. When the stage or last contact date is
// present, the interval is re-resolved and next_due recomputed from the (new or
// existing) last contact date.
func (s *Service) UpdateContact(ctx context.Context, userID, id string, upd models.ContactUpdate) (*models.Contact, error) {
	if upd.Name.Cleared() || (upd.Name.IsSet() && strings.TrimSpace(upd.Name.Value()) == "") {
		return nil, invalid("name is required")
	}
	if upd.PipelineStage.Cleared() || (upd.PipelineStage.IsSet() && strings.TrimSpace(upd.PipelineStage.Value()) == "") {
		return nil, invalid("pipeline_stage cannot be empty")
	}

	c, err := s.mutateContact(ctx, "update_contact", userID, id, func(tx *db.Store, c *models.Contact) error {
		now := s.clock()

		upd.Name.Apply(&c.Name)
		c.Name = strings.TrimSpace(c.Name)
		upd.Job.Apply(&c.Job)
		upd.Location.Apply(&c.Location)
		upd.AcademicDegree.Apply(&c.AcademicDegree)
		upd.Birthday.Apply(&c.Birthday)
		upd.Hobbies.Apply(&c.Hobbies)
		upd.FavoriteFood.Apply(&c.FavoriteFood)
		upd.HowWeMet.Apply(&c.HowWeMet)
		upd.Notes.Apply(&c.Notes)
		upd.Phone.Apply(&c.Phone)
		upd.Email.Apply(&c.Email)
		upd.ProfilePicture.Apply(&c.ProfilePicture)
		upd.Language.Apply(&c.Language)
		upd.Tone.Apply(&c.Tone)
		upd.ExampleMessage.Apply(&c.ExampleMessage)
		upd.DeviceContactID.Apply(&c.DeviceContactID)

		if !upd.Groups.Unchanged() {
			groups := dedupe(upd.Groups.Value())
			if err := s.checkGroups(ctx, tx, userID, groups); err != nil {
				return err
			}
			c.Groups = groups
		}

		stageGiven := upd.PipelineStage.IsSet()
		lastGiven := !upd.LastContactDate.Unchanged()
		if !stageGiven && !lastGiven {
			return nil
		}

		if stageGiven {
			c.PipelineStage = strings.TrimSpace(upd.PipelineStage.Value())
		}
		if lastGiven {
			if upd.LastContactDate.Cleared() {
				c.LastContactDate = nil
			} else {
				at := cadence.AnchorOrNow(upd.LastContactDate.Value(), now)
				c.LastContactDate = &at
			}
		}

		p, err := s.policy(ctx, tx, userID, c.PipelineStage)
		if err != nil {
			return err
		}
		if p.Scheduled() && c.LastContactDate == nil {
			c.LastContactDate = &now
		}
		s.schedule(c, p, c.LastContactDate, now, TriggerUpdate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MoveStage moves a contact to stage, restarting the countdown from now.
// last_contact_date is not touched.
func (s *Service) MoveStage(ctx context.Context, userID, id, stage string) (*models.Contact, error) {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return nil, invalid("pipeline_stage is required")
	}

	c, err := s.mutateContact(ctx, "move_stage", userID, id, func(tx *db.Store, c *models.Contact) error {
		p, err := s.policy(ctx, tx, userID, stage)
		if err != nil {
			return err
		}
		now := s.clock()
		c.PipelineStage = stage
		s.schedule(c, p, &now, now, TriggerStageMove)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contact moved", "contact_id", c.ID, "stage", stage, "next_due", c.NextDue)
	return c, nil
}

// MoveToGroups replaces the contact's group set.
func (s *Service) MoveToGroups(ctx context.Context, userID, id string, groupIDs []string) (*models.Contact, error) {
	groups := dedupe(groupIDs)
	return s.mutateContact(ctx, "move_to_groups", userID, id, func(tx *db.Store, c *models.Contact) error {
		if err := s.checkGroups(ctx, tx, userID, groups); err != nil {
			return err
		}
		c.Groups = groups
		return nil
	})
}

// DeleteContact removes the contact together with its interactions and drafts.
func (s *Service) DeleteContact(ctx context.Context, userID, id string) error {
	cid, err := parseID(id, "contact")
	if err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(tx *db.Store) error {
		if _, err := tx.Contacts.Get(ctx, userID, cid); err != nil {
			return err
		}
		if _, err := tx.Interactions.DeleteByContact(ctx, userID, cid); err != nil {
			return err
		}
		if _, err := tx.Drafts.DeleteByContact(ctx, userID, cid); err != nil {
			return err
		}
		return tx.Contacts.Delete(ctx, userID, cid)
	})
	if err != nil {
		return fromStore(err, "contact")
	}

	s.logger.Info("contact deleted", "contact_id", cid, "user_id", userID)
	return nil
}

// DeleteAllContacts removes every contact the owner has, with dependents.
func (s *Service) DeleteAllContacts(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.store.InTx(ctx, func(tx *db.Store) error {
		if _, err := tx.Interactions.DeleteByOwner(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.Drafts.DeleteByOwner(ctx, userID); err != nil {
			return err
		}
		var err error
		n, err = tx.Contacts.DeleteByOwner(ctx, userID)
		return err
	})
	if err != nil {
		return 0, fromStore(err, "contacts")
	}

	s.logger.Warn("all contacts deleted", "user_id", userID, "count", n)
	return n, nil
}

// DueContacts returns scheduled contacts whose next_due is at or before now.
func (s *Service) DueContacts(ctx context.Context, userID string) ([]models.Contact, error) {
	return s.store.Contacts.ListDue(ctx, userID, s.clock())
}

func (s *Service) checkGroups(ctx context.Context, tx *db.Store, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return invalid("invalid group id %q", id)
		}
	}
	owned, err := tx.Groups.OwnedIDs(ctx, userID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !owned[id] {
			return notFound("group %s not found", id)
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
