package integration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blockelevate/integrations/internal/models"
)

// ErrUnknownPlatform is returned when a sync request names a platform no
// adapter is registered for. It is a configuration error and surfaces
// directly to the caller; no SyncStatus transition is written for it.
var ErrUnknownPlatform = fmt.Errorf("unknown platform")

// ErrUnknownProvider is returned by the webhook router for a family or
// provider name absent from its static mapping.
var ErrUnknownProvider = fmt.Errorf("unknown provider")

// ProcessingError indicates an adapter could not transform or persist a
// payload it fetched or received.
type ProcessingError struct {
	Family models.PlatformFamily
	Detail string
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing %s data: %s", e.Family, e.Detail)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Adapter is the fixed capability set every platform family implements.
// Adding a platform family means adding an adapter, not touching the
// dispatcher.
type Adapter interface {
	// Family returns the platform family this adapter handles.
	Family() models.PlatformFamily

	// FetchData retrieves the family's data from the remote platform.
	// Fetch failures propagate untranslated so the dispatcher can record
	// them.
	FetchData(ctx context.Context, endpoint, credentialRef string) ([]byte, error)

	// ProcessData transforms the family payload into durable records and
	// upserts them keyed by the remote native id. Re-processing the same
	// payload must not create duplicates.
	ProcessData(ctx context.Context, payload []byte) (int, error)
}

// Registry maps platform names to adapters. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds the registry for the closed set of platform families.
func NewRegistry(records RecordStore) *Registry {
	client := NewHTTPFetchClient()
	return NewRegistryWithClient(client, records)
}

// NewRegistryWithClient builds a registry using the given fetch client.
// Tests use this to substitute a stub client.
func NewRegistryWithClient(client FetchClient, records RecordStore) *Registry {
	return &Registry{
		adapters: map[string]Adapter{
			models.PlatformNonprofit:    NewNonprofitAdapter(client, records),
			models.PlatformMentalHealth: NewMentalHealthAdapter(client, records),
			models.PlatformEcommerce:    NewEcommerceAdapter(client, records),
			models.PlatformSocial:       NewSocialAdapter(client, records),
		},
	}
}

// Lookup resolves the adapter for a platform name.
func (r *Registry) Lookup(platformName string) (Adapter, error) {
	adapter, ok := r.adapters[platformName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platformName)
	}
	return adapter, nil
}

// ByFamily resolves the adapter handling a platform family.
func (r *Registry) ByFamily(family models.PlatformFamily) (Adapter, bool) {
	for _, adapter := range r.adapters {
		if adapter.Family() == family {
			return adapter, true
		}
	}
	return nil, false
}

// PlatformNames returns the registered platform names.
func (r *Registry) PlatformNames() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// decodeRecords accepts the payload shapes the external platforms send:
// an envelope with a "data" array, a bare array, or a single object (the
// usual webhook delivery shape).
func decodeRecords(payload []byte, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}

	if err := json.Unmarshal(payload, out); err == nil {
		return nil
	}

	// Single object: wrap it into a one-element array and decode again.
	wrapped := append(append([]byte{'['}, payload...), ']')
	return json.Unmarshal(wrapped, out)
}
