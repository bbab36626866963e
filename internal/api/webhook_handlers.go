package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/blockelevate/integrations/internal/integration"
	"github.com/blockelevate/integrations/internal/models"
)

// maxWebhookBody caps inbound webhook payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// WebhookProcessor routes a validated webhook event to its adapter.
type WebhookProcessor interface {
	Route(ctx context.Context, event models.WebhookEvent) (int, error)
}

// WebhookHandlers receives inbound webhook deliveries from external
// providers.
type WebhookHandlers struct {
	router WebhookProcessor
	logger *slog.Logger
}

// NewWebhookHandlers creates webhook handlers
func NewWebhookHandlers(router WebhookProcessor, logger *slog.Logger) *WebhookHandlers {
	return &WebhookHandlers{
		router: router,
		logger: logger,
	}
}

// HandleWebhook handles POST /api/integrations/webhooks/{family}/{provider}.
// Unknown families and providers are rejected with 400. Processing
// failures return 500 so the provider retries delivery; processing is
// idempotent, so redelivery is safe.
func (h *WebhookHandlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	familySegment := pathSegment(r.URL.Path, 3)
	provider := pathSegment(r.URL.Path, 4)
	if familySegment == "" || provider == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	family, err := integration.ParseFamily(familySegment)
	if err != nil {
		http.Error(w, "Unknown webhook family", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}

	event := models.WebhookEvent{
		Family:     family,
		Provider:   provider,
		Payload:    body,
		ReceivedAt: time.Now(),
	}

	processed, err := h.router.Route(r.Context(), event)
	if err != nil {
		if errors.Is(err, integration.ErrUnknownProvider) {
			http.Error(w, "Unknown webhook provider", http.StatusBadRequest)
			return
		}
		h.logger.Error("webhook processing failed",
			"family", family,
			"provider", provider,
			"error", err,
		)
		http.Error(w, "Webhook processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":           "Webhook processed successfully",
		"records_processed": processed,
	})
}
