// ABOUTME: Contact lifecycle service wiring the store, stage catalog, calculator and drafter
// ABOUTME: All writes run in a transaction and retry on optimistic-version conflicts
package lifecycle

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/synchro/cadence"
	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/drafter"
	"github.com/harperreed/synchro/metrics"
	"github.com/harperreed/synchro/models"
)

// DefaultRetries bounds how often a conflicting write is retried.
const DefaultRetries = 3

// Reschedule triggers, used for logging and metrics.
const (
	TriggerCreate      = "create"
	TriggerUpdate      = "update"
	TriggerStageMove   = "stage_move"
	TriggerInteraction = "interaction"
	TriggerDraftSent   = "draft_sent"
)

type Service struct {
	store   *db.Store
	catalog *cadence.Catalog
	calc    *cadence.Calculator
	drafter drafter.Generator
	logger  *log.Logger
	now     func() time.Time
	retries int
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithDrafter(g drafter.Generator) Option {
	return func(s *Service) { s.drafter = g }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.retries = n
		}
	}
}

func New(store *db.Store, catalog *cadence.Catalog, calc *cadence.Calculator, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		calc:    calc,
		drafter: drafter.Static{},
		logger:  log.New(io.Discard),
		now:     time.Now,
		retries: DefaultRetries,
	}
	if s.catalog == nil {
		s.catalog = cadence.NewCatalog()
	}
	if s.calc == nil {
		s.calc = cadence.NewCalculator(nil, nil)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Catalog() *cadence.Catalog { return s.catalog }

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// retry runs fn in a transaction, repeating it when a guarded write conflicts.
func (s *Service) retry(ctx context.Context, op string, fn func(tx *db.Store) error) error {
	for attempt := 0; ; attempt++ {
		err := s.store.InTx(ctx, fn)
		if errors.Is(err, db.ErrConflict) && attempt < s.retries {
			metrics.ConflictRetries.WithLabelValues(op).Inc()
			s.logger.Debug("retrying after conflict", "op", op, "attempt", attempt+1)
			continue
		}
		return err
	}
}

// mutateContact reads the contact, applies fn, and writes it back under the version guard.
func (s *Service) mutateContact(ctx context.Context, op, userID string, id string, fn func(tx *db.Store, c *models.Contact) error) (*models.Contact, error) {
	cid, err := parseID(id, "contact")
	if err != nil {
		return nil, err
	}

	var out *models.Contact
	err = s.retry(ctx, op, func(tx *db.Store) error {
		c, err := tx.Contacts.Get(ctx, userID, cid)
		if err != nil {
			return err
		}
		if err := fn(tx, c); err != nil {
			return err
		}
		if err := tx.Contacts.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, fromStore(err, "contact")
	}
	return out, nil
}

func (s *Service) customStages(ctx context.Context, tx *db.Store, userID string) ([]models.PipelineStage, error) {
	settings, err := tx.Settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return settings.PipelineStages, nil
}

func (s *Service) policy(ctx context.Context, tx *db.Store, userID, stage string) (cadence.Policy, error) {
	custom, err := s.customStages(ctx, tx, userID)
	if err != nil {
		return cadence.Policy{}, err
	}
	return s.catalog.Resolve(stage, custom), nil
}

// schedule sets next_due and the cached interval for p anchored at anchor (nil means now).
// Sentinel policies clear both.
func (s *Service) schedule(c *models.Contact, p cadence.Policy, anchor *time.Time, now time.Time, trigger string) {
	if !p.Scheduled() {
		c.NextDue = nil
		c.TargetIntervalDays = 0
		return
	}

	c.NextDue = s.calc.Next(anchor, now, p)
	c.TargetIntervalDays = p.IntervalDays

	base := now
	if anchor != nil {
		base = *anchor
	}
	offset := c.NextDue.Sub(base).Hours() / 24
	metrics.ContactsRescheduled.WithLabelValues(trigger).Inc()
	metrics.ScheduleOffsetDays.WithLabelValues(s.calc.Strategy().Name()).Observe(offset)

	s.logger.Debug("contact rescheduled",
		"contact_id", c.ID, "trigger", trigger, "stage", c.PipelineStage,
		"interval_days", p.IntervalDays, "policy_source", p.Source, "next_due", c.NextDue)
}

// reanchor moves last_contact_date to at and, for scheduled contacts, recomputes
// next_due from the cached interval.
func (s *Service) reanchor(ctx context.Context, tx *db.Store, c *models.Contact, at, now time.Time, trigger string) error {
	c.LastContactDate = &at
	if !c.Scheduled() {
		return nil
	}
	p, err := s.policy(ctx, tx, c.UserID, c.PipelineStage)
	if err != nil {
		return err
	}
	s.schedule(c, p.WithInterval(c.TargetIntervalDays), &at, now, trigger)
	return nil
}
