package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/blockelevate/integrations/internal/integration"
	"github.com/blockelevate/integrations/internal/models"
)

type fakeWebhookProcessor struct {
	processed int
	err       error
	gotEvent  models.WebhookEvent
	called    bool
}

func (f *fakeWebhookProcessor) Route(ctx context.Context, event models.WebhookEvent) (int, error) {
	f.called = true
	f.gotEvent = event
	return f.processed, f.err
}

func TestHandleWebhook(t *testing.T) {
	processor := &fakeWebhookProcessor{processed: 1}
	handler := NewWebhookHandlers(processor, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/webhooks/mental-health/headspace",
		strings.NewReader(`{"id":"session-1","meditation_minutes":10}`))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Webhook processed successfully") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	if processor.gotEvent.Family != models.FamilyMentalHealth {
		t.Errorf("expected family mental-health, got %s", processor.gotEvent.Family)
	}
	if processor.gotEvent.Provider != "headspace" {
		t.Errorf("expected provider headspace, got %s", processor.gotEvent.Provider)
	}
	if processor.gotEvent.ReceivedAt.IsZero() {
		t.Error("expected received_at to be stamped")
	}
}

func TestHandleWebhookUnknownFamily(t *testing.T) {
	processor := &fakeWebhookProcessor{}
	handler := NewWebhookHandlers(processor, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/webhooks/gaming/steam",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if processor.called {
		t.Error("router must not be invoked for an unknown family")
	}
}

func TestHandleWebhookUnknownProvider(t *testing.T) {
	processor := &fakeWebhookProcessor{
		err: fmt.Errorf("%w: ecommerce/unknownvendor", integration.ErrUnknownProvider),
	}
	handler := NewWebhookHandlers(processor, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/webhooks/ecommerce/unknownvendor",
		strings.NewReader(`{"id":"p-1"}`))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleWebhookProcessingFailure(t *testing.T) {
	// A 5xx tells the provider to redeliver; processing is idempotent so
	// the retry is safe.
	processor := &fakeWebhookProcessor{err: fmt.Errorf("database unavailable")}
	handler := NewWebhookHandlers(processor, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/webhooks/social/discord",
		strings.NewReader(`{"id":"post-1"}`))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestHandleWebhookMethodNotAllowed(t *testing.T) {
	handler := NewWebhookHandlers(&fakeWebhookProcessor{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/webhooks/social/discord", nil)
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHandleWebhookEndToEnd(t *testing.T) {
	// Full path through the real router and adapter into the record store.
	records := integration.NewMemoryRecordStore()
	registry := integration.NewRegistryWithClient(failingFetchClient{}, records)
	router := integration.NewWebhookRouter(registry, nil, testLogger())
	handler := NewWebhookHandlers(router, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/webhooks/ecommerce/shopify",
		strings.NewReader(`{"id":"prod-9","sku":"SKU-9","price":19.99}`))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	count, _ := records.Count(context.Background(), models.FamilyEcommerce)
	if count != 1 {
		t.Errorf("expected 1 stored record, got %d", count)
	}
}

// failingFetchClient makes any scheduled fetch path fail loudly; webhook
// handling never fetches.
type failingFetchClient struct{}

func (failingFetchClient) Fetch(ctx context.Context, baseURL, path string, headers map[string]string, query url.Values) ([]byte, error) {
	return nil, fmt.Errorf("unexpected fetch")
}
