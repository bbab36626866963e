package integration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/blockelevate/integrations/internal/models"
)

// EcommerceAdapter syncs product and inventory data from e-commerce
// platforms (Shopify, Stripe, PayPal, Square).
type EcommerceAdapter struct {
	client  FetchClient
	records RecordStore
}

// NewEcommerceAdapter creates the e-commerce family adapter.
func NewEcommerceAdapter(client FetchClient, records RecordStore) *EcommerceAdapter {
	return &EcommerceAdapter{client: client, records: records}
}

type productRecord struct {
	ID        string  `json:"id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Inventory int     `json:"inventory"`
	Status    string  `json:"status"`
	UpdatedAt string  `json:"updated_at"`
}

// Family returns the e-commerce platform family.
func (a *EcommerceAdapter) Family() models.PlatformFamily {
	return models.FamilyEcommerce
}

// FetchData pulls the product catalog from the configured endpoint.
func (a *EcommerceAdapter) FetchData(ctx context.Context, endpoint, credentialRef string) ([]byte, error) {
	return a.client.Fetch(ctx, endpoint, "/products", authHeaders(credentialRef), nil)
}

// ProcessData upserts each product keyed by its remote id, falling back
// to the SKU when the platform omits an id.
func (a *EcommerceAdapter) ProcessData(ctx context.Context, payload []byte) (int, error) {
	var products []productRecord
	if err := decodeRecords(payload, &products); err != nil {
		return 0, &ProcessingError{Family: a.Family(), Detail: "malformed product payload", Err: err}
	}

	processed := 0
	for _, product := range products {
		nativeID := product.ID
		if nativeID == "" {
			nativeID = product.SKU
		}
		if nativeID == "" {
			return processed, &ProcessingError{Family: a.Family(), Detail: "product has no native id"}
		}

		body, err := json.Marshal(product)
		if err != nil {
			return processed, &ProcessingError{Family: a.Family(), Detail: "encoding product", Err: err}
		}

		record := models.PlatformRecord{
			Family:   a.Family(),
			NativeID: nativeID,
			Payload:  body,
			SyncedAt: time.Now(),
		}
		if err := a.records.Upsert(ctx, record); err != nil {
			return processed, &ProcessingError{Family: a.Family(), Detail: "storing product", Err: err}
		}
		processed++
	}

	return processed, nil
}
