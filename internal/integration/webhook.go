package integration

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/blockelevate/integrations/internal/metrics"
	"github.com/blockelevate/integrations/internal/models"
)

// webhookProviders is the static family × provider mapping. A provider
// absent from this table is rejected before any processing happens.
// Adding a vendor whose payload matches its family shape is a table
// entry; a vendor needing different handling gets its own adapter.
var webhookProviders = map[models.PlatformFamily][]string{
	models.FamilyNonprofit:    {"guidestar", "candid", "networkforgood"},
	models.FamilyMentalHealth: {"betterhelp", "talkspace", "headspace", "calm"},
	models.FamilyEcommerce:    {"shopify", "stripe", "paypal", "square"},
	models.FamilySocial:       {"facebook", "instagram", "twitter", "discord"},
}

// WebhookRouter ingests asynchronous push events from external providers
// and routes them to the owning family adapter's processing entry point.
// It runs on the request path, independent of the scheduler.
type WebhookRouter struct {
	registry  *Registry
	collector *metrics.Collector
	logger    *slog.Logger
	providers map[models.PlatformFamily]map[string]bool
}

// NewWebhookRouter creates a router over the static provider table.
func NewWebhookRouter(registry *Registry, collector *metrics.Collector, logger *slog.Logger) *WebhookRouter {
	providers := make(map[models.PlatformFamily]map[string]bool, len(webhookProviders))
	for family, names := range webhookProviders {
		set := make(map[string]bool, len(names))
		for _, name := range names {
			set[name] = true
		}
		providers[family] = set
	}

	return &WebhookRouter{
		registry:  registry,
		collector: collector,
		logger:    logger,
		providers: providers,
	}
}

// Providers returns the registered provider names for a family, sorted.
func (r *WebhookRouter) Providers(family models.PlatformFamily) []string {
	set, ok := r.providers[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Route validates the event against the provider table and processes it
// through the family adapter. Processing is idempotent, so provider
// redeliveries and overlap with a concurrent scheduled sync cannot
// duplicate records.
func (r *WebhookRouter) Route(ctx context.Context, event models.WebhookEvent) (int, error) {
	set, ok := r.providers[event.Family]
	if !ok {
		r.observe(event, "rejected")
		return 0, fmt.Errorf("%w: family %q", ErrUnknownProvider, event.Family)
	}
	if !set[event.Provider] {
		r.observe(event, "rejected")
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownProvider, event.Family, event.Provider)
	}

	adapter, ok := r.registry.ByFamily(event.Family)
	if !ok {
		r.observe(event, "rejected")
		return 0, fmt.Errorf("%w: family %q", ErrUnknownProvider, event.Family)
	}

	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}

	r.logger.Info("webhook received",
		"family", event.Family,
		"provider", event.Provider,
		"bytes", len(event.Payload),
	)

	processed, err := adapter.ProcessData(ctx, event.Payload)
	if err != nil {
		r.observe(event, "failed")
		r.logger.Error("webhook processing failed",
			"family", event.Family,
			"provider", event.Provider,
			"error", err,
		)
		return 0, err
	}

	r.observe(event, "processed")
	r.logger.Info("webhook processed",
		"family", event.Family,
		"provider", event.Provider,
		"records_processed", processed,
	)
	return processed, nil
}

func (r *WebhookRouter) observe(event models.WebhookEvent, status string) {
	if r.collector != nil {
		r.collector.ObserveWebhookEvent(string(event.Family), event.Provider, status)
	}
}

// ParseFamily maps a webhook URL segment to a platform family.
func ParseFamily(segment string) (models.PlatformFamily, error) {
	switch segment {
	case "nonprofit":
		return models.FamilyNonprofit, nil
	case "mental-health":
		return models.FamilyMentalHealth, nil
	case "ecommerce":
		return models.FamilyEcommerce, nil
	case "social":
		return models.FamilySocial, nil
	default:
		return "", fmt.Errorf("%w: family %q", ErrUnknownProvider, segment)
	}
}
