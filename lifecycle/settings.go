// ABOUTME: Per-user settings and custom pipeline stages
// ABOUTME: Removing a custom stage moves its contacts back to New
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/metrics"
	"github.com/harperreed/synchro/models"
)

func (s *Service) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	return s.store.Settings.Get(ctx, userID)
}

// Stages returns the owner's effective stage table: defaults merged with custom rows.
func (s *Service) Stages(ctx context.Context, userID string) ([]models.PipelineStage, error) {
	settings, err := s.store.Settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.Stages(settings.PipelineStages), nil
}

// UpdateSettings applies a partial settings update. Custom stages that disappear
// from the table and are not default stages have their contacts reset to New.
func (s *Service) UpdateSettings(ctx context.Context, userID string, upd models.SettingsUpdate) (*models.Settings, error) {
	if upd.NotificationTime.IsSet() {
		if _, err := time.Parse(models.ClockLayout, strings.TrimSpace(upd.NotificationTime.Value())); err != nil {
			return nil, invalid("notification_time must be HH:MM")
		}
	}
	var stages []models.PipelineStage
	if !upd.PipelineStages.Unchanged() {
		var err error
		if stages, err = validateStages(upd.PipelineStages.Value()); err != nil {
			return nil, err
		}
	}

	var out *models.Settings
	reset := map[string]int64{}
	err := s.store.InTx(ctx, func(tx *db.Store) error {
		clear(reset)
		settings, err := tx.Settings.Get(ctx, userID)
		if err != nil {
			return err
		}
		previous := settings.PipelineStages

		upd.WritingStyleSample.Apply(&settings.WritingStyleSample)
		if upd.WritingStyleSample.Cleared() {
			settings.WritingStyleSample = models.DefaultWritingStyle
		}
		if upd.NotificationTime.IsSet() {
			settings.NotificationTime = strings.TrimSpace(upd.NotificationTime.Value())
		} else if upd.NotificationTime.Cleared() {
			settings.NotificationTime = models.DefaultNotificationTime
		}
		if !upd.PipelineStages.Unchanged() {
			settings.PipelineStages = stages
			for _, removed := range removedStages(previous, stages) {
				if s.catalog.IsDefault(removed) {
					continue
				}
				n, err := tx.Contacts.ResetStage(ctx, userID, removed)
				if err != nil {
					return err
				}
				reset[removed] = n
			}
		}

		if err := tx.Settings.Put(ctx, settings); err != nil {
			return err
		}
		out = settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	for stage, n := range reset {
		metrics.StageResets.Add(float64(n))
		s.logger.Info("stage removed, contacts reset to New", "user_id", userID, "stage", stage, "contacts", n)
	}
	return out, nil
}

func validateStages(in []models.PipelineStage) ([]models.PipelineStage, error) {
	out := make([]models.PipelineStage, 0, len(in))
	seen := make(map[string]bool, len(in))
	for i, st := range in {
		st.Name = strings.TrimSpace(st.Name)
		if err := check(st); err != nil {
			return nil, invalid("pipeline_stages[%d]: %s", i, err.Error())
		}
		if strings.EqualFold(st.Name, models.StageNew) {
			return nil, invalid("pipeline_stages[%d]: %q is reserved", i, models.StageNew)
		}
		key := strings.ToLower(st.Name)
		if seen[key] {
			return nil, invalid("pipeline_stages[%d]: duplicate stage %q", i, st.Name)
		}
		seen[key] = true
		out = append(out, st)
	}
	return out, nil
}

func removedStages(before, after []models.PipelineStage) []string {
	keep := make(map[string]bool, len(after))
	for _, st := range after {
		keep[st.Name] = true
	}
	var removed []string
	for _, st := range before {
		if !keep[st.Name] {
			removed = append(removed, st.Name)
		}
	}
	return removed
}

