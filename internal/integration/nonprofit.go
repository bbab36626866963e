package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blockelevate/integrations/internal/models"
)

// NonprofitAdapter syncs organization and campaign data from nonprofit
// platforms (GuideStar, Candid, Network for Good).
type NonprofitAdapter struct {
	client  FetchClient
	records RecordStore
}

// NewNonprofitAdapter creates the nonprofit family adapter.
func NewNonprofitAdapter(client FetchClient, records RecordStore) *NonprofitAdapter {
	return &NonprofitAdapter{client: client, records: records}
}

// nonprofitRecord is the payload shape nonprofit platforms deliver.
type nonprofitRecord struct {
	ID           string  `json:"id"`
	EIN          string  `json:"ein"`
	Name         string  `json:"name"`
	Mission      string  `json:"mission"`
	Category     string  `json:"category"`
	TotalRaised  float64 `json:"total_raised"`
	DonorCount   int     `json:"donor_count"`
	CampaignGoal float64 `json:"campaign_goal"`
	UpdatedAt    string  `json:"updated_at"`
}

// Family returns the nonprofit platform family.
func (a *NonprofitAdapter) Family() models.PlatformFamily {
	return models.FamilyNonprofit
}

// FetchData pulls the organization feed from the configured endpoint.
func (a *NonprofitAdapter) FetchData(ctx context.Context, endpoint, credentialRef string) ([]byte, error) {
	return a.client.Fetch(ctx, endpoint, "/nonprofits", authHeaders(credentialRef), nil)
}

// ProcessData upserts each organization keyed by its remote id. An
// organization without an id (falling back to EIN) is rejected rather
// than stored unkeyed.
func (a *NonprofitAdapter) ProcessData(ctx context.Context, payload []byte) (int, error) {
	var orgs []nonprofitRecord
	if err := decodeRecords(payload, &orgs); err != nil {
		return 0, &ProcessingError{Family: a.Family(), Detail: "malformed nonprofit payload", Err: err}
	}

	processed := 0
	for _, org := range orgs {
		nativeID := org.ID
		if nativeID == "" {
			nativeID = org.EIN
		}
		if nativeID == "" {
			return processed, &ProcessingError{
				Family: a.Family(),
				Detail: fmt.Sprintf("organization %q has no native id", org.Name),
			}
		}

		body, err := json.Marshal(org)
		if err != nil {
			return processed, &ProcessingError{Family: a.Family(), Detail: "encoding organization", Err: err}
		}

		record := models.PlatformRecord{
			Family:   a.Family(),
			NativeID: nativeID,
			Payload:  body,
			SyncedAt: time.Now(),
		}
		if err := a.records.Upsert(ctx, record); err != nil {
			return processed, &ProcessingError{Family: a.Family(), Detail: "storing organization", Err: err}
		}
		processed++
	}

	return processed, nil
}

// authHeaders builds the Authorization header from a credential reference.
func authHeaders(credentialRef string) map[string]string {
	if credentialRef == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + credentialRef}
}
