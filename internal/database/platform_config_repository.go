package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blockelevate/integrations/internal/models"
)

// PlatformConfigRepository reads and administers platform configuration.
// The sync engine only calls the read methods; the write methods back the
// administrative endpoints.
type PlatformConfigRepository struct {
	db *sql.DB
}

// NewPlatformConfigRepository creates a repository over platform_configs.
func NewPlatformConfigRepository(db *sql.DB) *PlatformConfigRepository {
	return &PlatformConfigRepository{db: db}
}

// ListActive returns all platform configs with is_active=true, read fresh
// from the store.
func (r *PlatformConfigRepository) ListActive(ctx context.Context) ([]models.PlatformConfig, error) {
	query := `
		SELECT platform_config_id, platform_name, api_endpoint, credential_ref, is_active, created_at, updated_at
		FROM platform_configs
		WHERE is_active = true
		ORDER BY platform_name
	`
	return r.queryConfigs(ctx, query)
}

// ListAll returns every platform config regardless of active flag.
func (r *PlatformConfigRepository) ListAll(ctx context.Context) ([]models.PlatformConfig, error) {
	query := `
		SELECT platform_config_id, platform_name, api_endpoint, credential_ref, is_active, created_at, updated_at
		FROM platform_configs
		ORDER BY platform_name
	`
	return r.queryConfigs(ctx, query)
}

// Get retrieves one platform config by name, or nil when absent.
func (r *PlatformConfigRepository) Get(ctx context.Context, platformName string) (*models.PlatformConfig, error) {
	query := `
		SELECT platform_config_id, platform_name, api_endpoint, credential_ref, is_active, created_at, updated_at
		FROM platform_configs
		WHERE platform_name = $1
	`

	config := &models.PlatformConfig{}
	err := r.db.QueryRowContext(ctx, query, platformName).Scan(
		&config.ID,
		&config.PlatformName,
		&config.APIEndpoint,
		&config.CredentialRef,
		&config.IsActive,
		&config.CreatedAt,
		&config.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get platform config: %w", err)
	}

	return config, nil
}

// Update modifies a platform's endpoint, credential reference and active
// flag, returning the updated row.
func (r *PlatformConfigRepository) Update(ctx context.Context, platformName, apiEndpoint, credentialRef string, isActive bool) (*models.PlatformConfig, error) {
	query := `
		UPDATE platform_configs
		SET api_endpoint = $1, credential_ref = $2, is_active = $3, updated_at = $4
		WHERE platform_name = $5
		RETURNING platform_config_id, platform_name, api_endpoint, credential_ref, is_active, created_at, updated_at
	`

	config := &models.PlatformConfig{}
	err := r.db.QueryRowContext(ctx, query, apiEndpoint, credentialRef, isActive, time.Now(), platformName).Scan(
		&config.ID,
		&config.PlatformName,
		&config.APIEndpoint,
		&config.CredentialRef,
		&config.IsActive,
		&config.CreatedAt,
		&config.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update platform config: %w", err)
	}

	return config, nil
}

func (r *PlatformConfigRepository) queryConfigs(ctx context.Context, query string) ([]models.PlatformConfig, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query platform configs: %w", err)
	}
	defer rows.Close()

	var configs []models.PlatformConfig
	for rows.Next() {
		var config models.PlatformConfig
		if err := rows.Scan(
			&config.ID,
			&config.PlatformName,
			&config.APIEndpoint,
			&config.CredentialRef,
			&config.IsActive,
			&config.CreatedAt,
			&config.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan platform config: %w", err)
		}
		configs = append(configs, config)
	}

	return configs, rows.Err()
}
