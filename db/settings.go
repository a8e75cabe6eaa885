// ABOUTME: Per-user settings repository
// ABOUTME: Writing style, notification time and the custom pipeline stage table (stored as JSON)
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/synchro/models"
)

type SettingsRepository struct {
	db DBTX
}

// Get returns the user's settings, or defaults when none were saved.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*models.Settings, error) {
	s := models.Settings{UserID: userID}
	var stagesJSON string

	err := r.db.QueryRowContext(ctx, `
		SELECT writing_style_sample, notification_time, pipeline_stages, updated_at
		FROM settings
		WHERE user_id = ?
	`, userID).Scan(&s.WritingStyleSample, &s.NotificationTime, &stagesJSON, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	s.PipelineStages = []models.PipelineStage{}
	if stagesJSON != "" {
		if err := json.Unmarshal([]byte(stagesJSON), &s.PipelineStages); err != nil {
			return nil, fmt.Errorf("failed to decode pipeline stages: %w", err)
		}
	}

	return &s, nil
}

// Put upserts the user's settings.
func (r *SettingsRepository) Put(ctx context.Context, s *models.Settings) error {
	if s.PipelineStages == nil {
		s.PipelineStages = []models.PipelineStage{}
	}
	stagesJSON, err := json.Marshal(s.PipelineStages)
	if err != nil {
		return fmt.Errorf("failed to encode pipeline stages: %w", err)
	}
	s.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (user_id, writing_style_sample, notification_time, pipeline_stages, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			writing_style_sample = excluded.writing_style_sample,
			notification_time = excluded.notification_time,
			pipeline_stages = excluded.pipeline_stages,
			updated_at = excluded.updated_at
	`, s.UserID, s.WritingStyleSample, s.NotificationTime, string(stagesJSON), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
