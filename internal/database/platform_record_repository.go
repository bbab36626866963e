package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blockelevate/integrations/internal/models"
)

// PlatformRecordRepository stores domain records derived from external
// platform data. The (family, native_id) key makes repeated writes of
// the same remote record an overwrite, not a duplicate.
type PlatformRecordRepository struct {
	db *sql.DB
}

// NewPlatformRecordRepository creates a repository over platform_records.
func NewPlatformRecordRepository(db *sql.DB) *PlatformRecordRepository {
	return &PlatformRecordRepository{db: db}
}

// Upsert stores a record keyed by family plus native id.
func (r *PlatformRecordRepository) Upsert(ctx context.Context, record models.PlatformRecord) error {
	if record.NativeID == "" {
		return fmt.Errorf("platform record requires a native id")
	}
	if record.SyncedAt.IsZero() {
		record.SyncedAt = time.Now()
	}

	query := `
		INSERT INTO platform_records (family, native_id, payload, synced_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (family, native_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			synced_at = EXCLUDED.synced_at
	`

	_, err := r.db.ExecContext(ctx, query,
		string(record.Family),
		record.NativeID,
		[]byte(record.Payload),
		record.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert platform record: %w", err)
	}

	return nil
}

// Count returns the number of records stored for a family.
func (r *PlatformRecordRepository) Count(ctx context.Context, family models.PlatformFamily) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM platform_records WHERE family = $1",
		string(family),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count platform records: %w", err)
	}
	return count, nil
}
