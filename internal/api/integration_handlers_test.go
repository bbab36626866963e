package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/blockelevate/integrations/internal/integration"
	"github.com/blockelevate/integrations/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConfigRepo struct {
	configs map[string]models.PlatformConfig
}

func (f *fakeConfigRepo) ListAll(ctx context.Context) ([]models.PlatformConfig, error) {
	var out []models.PlatformConfig
	for _, c := range f.configs {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeConfigRepo) Get(ctx context.Context, platformName string) (*models.PlatformConfig, error) {
	c, ok := f.configs[platformName]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeConfigRepo) Update(ctx context.Context, platformName, apiEndpoint, credentialRef string, isActive bool) (*models.PlatformConfig, error) {
	c, ok := f.configs[platformName]
	if !ok {
		return nil, nil
	}
	c.APIEndpoint = apiEndpoint
	c.CredentialRef = credentialRef
	c.IsActive = isActive
	f.configs[platformName] = c
	return &c, nil
}

type fakeStatusReader struct {
	statuses []models.SyncStatus
}

func (f *fakeStatusReader) List(ctx context.Context) ([]models.SyncStatus, error) {
	return f.statuses, nil
}

type fakeSyncRequester struct {
	receipt  integration.SyncReceipt
	err      error
	gotName  string
	gotForce bool
}

func (f *fakeSyncRequester) RequestSync(ctx context.Context, platformName string, force bool) (integration.SyncReceipt, error) {
	f.gotName = platformName
	f.gotForce = force
	return f.receipt, f.err
}

func newTestIntegrationHandlers(scheduler SyncRequester) *IntegrationHandlers {
	configs := &fakeConfigRepo{configs: map[string]models.PlatformConfig{
		models.PlatformNonprofit: {
			PlatformName: models.PlatformNonprofit,
			APIEndpoint:  "https://np.example.com",
			IsActive:     true,
		},
	}}
	statuses := &fakeStatusReader{statuses: []models.SyncStatus{
		{PlatformName: models.PlatformNonprofit, Status: models.SyncStateSuccess, RecordsProcessed: 5},
	}}
	return NewIntegrationHandlers(configs, statuses, scheduler, testLogger())
}

func TestListConfigs(t *testing.T) {
	handler := newTestIntegrationHandlers(&fakeSyncRequester{})

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/config", nil)
	rec := httptest.NewRecorder()
	handler.ListConfigs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Integrations []models.PlatformConfig `json:"integrations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Integrations) != 1 {
		t.Errorf("expected 1 integration, got %d", len(body.Integrations))
	}
	// Credential references never leave the service.
	if strings.Contains(rec.Body.String(), "credential") {
		t.Error("response must not expose credential fields")
	}
}

func TestUpdateConfig(t *testing.T) {
	handler := newTestIntegrationHandlers(&fakeSyncRequester{})

	body := `{"api_endpoint":"https://new.example.com","credential_ref":"ref-1","is_active":false}`
	req := httptest.NewRequest(http.MethodPut, "/api/integrations/config/nonprofit_platform", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.UpdateConfig(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "https://new.example.com") {
		t.Error("expected updated endpoint in response")
	}
}

func TestUpdateConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{
			name:     "unknown platform",
			path:     "/api/integrations/config/crypto_platform",
			body:     `{"api_endpoint":"https://x.example.com"}`,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing endpoint",
			path:     "/api/integrations/config/nonprofit_platform",
			body:     `{"credential_ref":"ref"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid json",
			path:     "/api/integrations/config/nonprofit_platform",
			body:     `not json`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestIntegrationHandlers(&fakeSyncRequester{})
			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.UpdateConfig(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestTriggerSync(t *testing.T) {
	requester := &fakeSyncRequester{receipt: integration.SyncReceipt{
		SyncID:              "abc-123",
		EstimatedCompletion: time.Now().Add(5 * time.Minute),
	}}
	handler := newTestIntegrationHandlers(requester)

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/sync/nonprofit_platform?force=true", nil)
	rec := httptest.NewRecorder()
	handler.TriggerSync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if requester.gotName != models.PlatformNonprofit {
		t.Errorf("expected platform %s, got %s", models.PlatformNonprofit, requester.gotName)
	}
	if !requester.gotForce {
		t.Error("expected force=true to be forwarded")
	}

	var body struct {
		SyncID              string    `json:"sync_id"`
		EstimatedCompletion time.Time `json:"estimated_completion"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.SyncID != "abc-123" {
		t.Errorf("expected sync_id abc-123, got %s", body.SyncID)
	}
	if body.EstimatedCompletion.IsZero() {
		t.Error("expected estimated_completion to be set")
	}
}

func TestTriggerSyncErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "unknown platform",
			err:      fmt.Errorf("%w: crypto_platform", integration.ErrUnknownPlatform),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "not configured",
			err:      fmt.Errorf("%w: nonprofit_platform", integration.ErrPlatformNotConfigured),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "disabled",
			err:      fmt.Errorf("%w: nonprofit_platform", integration.ErrPlatformDisabled),
			wantCode: http.StatusConflict,
		},
		{
			name:     "internal error",
			err:      fmt.Errorf("database unavailable"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestIntegrationHandlers(&fakeSyncRequester{err: tt.err})
			req := httptest.NewRequest(http.MethodPost, "/api/integrations/sync/nonprofit_platform", nil)
			rec := httptest.NewRecorder()
			handler.TriggerSync(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestGetStatus(t *testing.T) {
	handler := newTestIntegrationHandlers(&fakeSyncRequester{})

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/status", nil)
	rec := httptest.NewRecorder()
	handler.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Statuses []models.SyncStatus `json:"statuses"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Statuses) != 1 {
		t.Fatalf("expected 1 status, got %d", len(body.Statuses))
	}
	if body.Statuses[0].RecordsProcessed != 5 {
		t.Errorf("expected 5 records processed, got %d", body.Statuses[0].RecordsProcessed)
	}
}
