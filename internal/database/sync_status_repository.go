package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blockelevate/integrations/internal/models"
)

// SyncStatusRepository persists the single current sync status per
// platform. Writes are keyed upserts so concurrent engine contexts can
// only race at whole-row granularity, never leave a partial row.
type SyncStatusRepository struct {
	db *sql.DB
}

// NewSyncStatusRepository creates a repository over sync_statuses.
func NewSyncStatusRepository(db *sql.DB) *SyncStatusRepository {
	return &SyncStatusRepository{db: db}
}

// Upsert overwrites the status row for the status's platform.
func (r *SyncStatusRepository) Upsert(ctx context.Context, status models.SyncStatus) error {
	query := `
		INSERT INTO sync_statuses (platform_name, last_sync, sync_type, status, records_processed, error_message, next_sync)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (platform_name) DO UPDATE SET
			last_sync = EXCLUDED.last_sync,
			sync_type = EXCLUDED.sync_type,
			status = EXCLUDED.status,
			records_processed = EXCLUDED.records_processed,
			error_message = EXCLUDED.error_message,
			next_sync = EXCLUDED.next_sync
	`

	_, err := r.db.ExecContext(ctx, query,
		status.PlatformName,
		status.LastSync,
		status.SyncType,
		status.Status,
		status.RecordsProcessed,
		nullableString(status.ErrorMessage),
		status.NextSync,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sync status: %w", err)
	}

	return nil
}

// Get retrieves the current status for a platform, or nil when the
// platform has never synced.
func (r *SyncStatusRepository) Get(ctx context.Context, platformName string) (*models.SyncStatus, error) {
	query := `
		SELECT platform_name, last_sync, sync_type, status, records_processed, error_message, next_sync
		FROM sync_statuses
		WHERE platform_name = $1
	`

	status := &models.SyncStatus{}
	var errorMessage sql.NullString

	err := r.db.QueryRowContext(ctx, query, platformName).Scan(
		&status.PlatformName,
		&status.LastSync,
		&status.SyncType,
		&status.Status,
		&status.RecordsProcessed,
		&errorMessage,
		&status.NextSync,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	status.ErrorMessage = errorMessage.String
	return status, nil
}

// List returns the current status of every platform that has synced.
func (r *SyncStatusRepository) List(ctx context.Context) ([]models.SyncStatus, error) {
	query := `
		SELECT platform_name, last_sync, sync_type, status, records_processed, error_message, next_sync
		FROM sync_statuses
		ORDER BY platform_name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.SyncStatus
	for rows.Next() {
		var status models.SyncStatus
		var errorMessage sql.NullString

		if err := rows.Scan(
			&status.PlatformName,
			&status.LastSync,
			&status.SyncType,
			&status.Status,
			&status.RecordsProcessed,
			&errorMessage,
			&status.NextSync,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync status: %w", err)
		}

		status.ErrorMessage = errorMessage.String
		statuses = append(statuses, status)
	}

	return statuses, rows.Err()
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
