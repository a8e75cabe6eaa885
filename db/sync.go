// ABOUTME: Database operations for the sync_state table
// ABOUTME: Tracks per-user sync status and incremental tokens for external calendar services
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/synchro/models"
)

type SyncStateRepository struct {
	db DBTX
}

// Get retrieves the sync state for a user's service. It returns nil when the
// service has never been synced.
func (r *SyncStateRepository) Get(ctx context.Context, userID, service string) (*models.SyncState, error) {
	var state models.SyncState
	var lastSyncTime sql.NullTime
	var lastSyncToken, status, errorMessage sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, service, last_sync_time, last_sync_token, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE user_id = ? AND service = ?
	`, userID, service).Scan(
		&state.UserID,
		&state.Service,
		&lastSyncTime,
		&lastSyncToken,
		&status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		t := lastSyncTime.Time.UTC()
		state.LastSyncTime = &t
	}
	state.LastSyncToken = lastSyncToken.String
	state.Status = status.String
	state.ErrorMessage = errorMessage.String

	return &state, nil
}

// UpdateStatus records the sync status and an optional error message.
func (r *SyncStateRepository) UpdateStatus(ctx context.Context, userID, service, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (user_id, service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, userID, service, status, nullString(errorMsg))

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// UpdateToken stores the incremental sync token and marks the service idle.
func (r *SyncStateRepository) UpdateToken(ctx context.Context, userID, service, token string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (user_id, service, last_sync_time, last_sync_token, status, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			last_sync_token = excluded.last_sync_token,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, userID, service, nullString(token))

	if err != nil {
		return fmt.Errorf("failed to update sync token: %w", err)
	}

	return nil
}

// ClearToken forgets the incremental token so the next sync is a full one.
func (r *SyncStateRepository) ClearToken(ctx context.Context, userID, service string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_state
		SET last_sync_token = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND service = ?
	`, userID, service)
	if err != nil {
		return fmt.Errorf("failed to clear sync token: %w", err)
	}
	return nil
}
