package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/blockelevate/integrations/internal/integration"
	"github.com/blockelevate/integrations/internal/models"
)

// ConfigRepository is the configuration surface the admin endpoints need.
type ConfigRepository interface {
	ListAll(ctx context.Context) ([]models.PlatformConfig, error)
	Get(ctx context.Context, platformName string) (*models.PlatformConfig, error)
	Update(ctx context.Context, platformName, apiEndpoint, credentialRef string, isActive bool) (*models.PlatformConfig, error)
}

// StatusReader lists current per-platform sync statuses.
type StatusReader interface {
	List(ctx context.Context) ([]models.SyncStatus, error)
}

// SyncRequester accepts manual sync triggers.
type SyncRequester interface {
	RequestSync(ctx context.Context, platformName string, force bool) (integration.SyncReceipt, error)
}

// IntegrationHandlers manages the integration configuration, status and
// manual sync endpoints.
type IntegrationHandlers struct {
	configs   ConfigRepository
	statuses  StatusReader
	scheduler SyncRequester
	logger    *slog.Logger
}

// NewIntegrationHandlers creates integration handlers
func NewIntegrationHandlers(configs ConfigRepository, statuses StatusReader, scheduler SyncRequester, logger *slog.Logger) *IntegrationHandlers {
	return &IntegrationHandlers{
		configs:   configs,
		statuses:  statuses,
		scheduler: scheduler,
		logger:    logger,
	}
}

// UpdateConfigRequest is the body of a platform config update.
type UpdateConfigRequest struct {
	APIEndpoint   string `json:"api_endpoint"`
	CredentialRef string `json:"credential_ref"`
	IsActive      bool   `json:"is_active"`
}

// ListConfigs handles GET /api/integrations/config
func (h *IntegrationHandlers) ListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.configs.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list platform configs", "error", err)
		http.Error(w, "Failed to get integration configurations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"integrations": configs,
	})
}

// UpdateConfig handles PUT /api/integrations/config/{platform}
func (h *IntegrationHandlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	platformName := pathSegment(r.URL.Path, 3)
	if platformName == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.APIEndpoint == "" {
		http.Error(w, "api_endpoint is required", http.StatusBadRequest)
		return
	}

	config, err := h.configs.Update(r.Context(), platformName, req.APIEndpoint, req.CredentialRef, req.IsActive)
	if err != nil {
		h.logger.Error("failed to update platform config", "platform", platformName, "error", err)
		http.Error(w, "Failed to update configuration", http.StatusInternalServerError)
		return
	}
	if config == nil {
		http.Error(w, "Unknown platform", http.StatusNotFound)
		return
	}

	h.logger.Info("platform config updated", "platform", platformName, "is_active", config.IsActive)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":     "Configuration updated successfully",
		"integration": config,
	})
}

// TriggerSync handles POST /api/integrations/sync/{platform}
func (h *IntegrationHandlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	platformName := pathSegment(r.URL.Path, 3)
	if platformName == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	force := r.URL.Query().Get("force") == "true"

	receipt, err := h.scheduler.RequestSync(r.Context(), platformName, force)
	if err != nil {
		switch {
		case errors.Is(err, integration.ErrUnknownPlatform),
			errors.Is(err, integration.ErrPlatformNotConfigured):
			http.Error(w, "Unknown platform", http.StatusNotFound)
		case errors.Is(err, integration.ErrPlatformDisabled):
			http.Error(w, "Platform is not active", http.StatusConflict)
		default:
			h.logger.Error("failed to request sync", "platform", platformName, "error", err)
			http.Error(w, "Failed to trigger sync", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":              "Sync initiated for " + platformName,
		"sync_id":              receipt.SyncID,
		"estimated_completion": receipt.EstimatedCompletion,
	})
}

// GetStatus handles GET /api/integrations/status
func (h *IntegrationHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.statuses.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list sync statuses", "error", err)
		http.Error(w, "Failed to get sync statuses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"statuses": statuses,
	})
}

// pathSegment extracts the nth slash-delimited segment of a path, with
// the leading and trailing slashes stripped.
func pathSegment(path string, n int) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if n >= len(parts) {
		return ""
	}
	return parts[n]
}
