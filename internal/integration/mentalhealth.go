package integration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/blockelevate/integrations/internal/models"
)

// MentalHealthAdapter syncs wellness entries from mental-health platforms
// (BetterHelp, Talkspace, Headspace, Calm).
type MentalHealthAdapter struct {
	client  FetchClient
	records RecordStore
}

// NewMentalHealthAdapter creates the mental-health family adapter.
func NewMentalHealthAdapter(client FetchClient, records RecordStore) *MentalHealthAdapter {
	return &MentalHealthAdapter{client: client, records: records}
}

type wellnessRecord struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	MoodScore         float64 `json:"mood_score"`
	SleepHours        float64 `json:"sleep_hours"`
	ExerciseMinutes   int     `json:"exercise_minutes"`
	MeditationMinutes int     `json:"meditation_minutes"`
	StressLevel       float64 `json:"stress_level"`
	RecordedAt        string  `json:"recorded_at"`
}

// Family returns the mental-health platform family.
func (a *MentalHealthAdapter) Family() models.PlatformFamily {
	return models.FamilyMentalHealth
}

// FetchData pulls wellness entries from the configured endpoint.
func (a *MentalHealthAdapter) FetchData(ctx context.Context, endpoint, credentialRef string) ([]byte, error) {
	return a.client.Fetch(ctx, endpoint, "/wellness-data", authHeaders(credentialRef), nil)
}

// ProcessData upserts each wellness entry keyed by its remote id.
func (a *MentalHealthAdapter) ProcessData(ctx context.Context, payload []byte) (int, error) {
	var entries []wellnessRecord
	if err := decodeRecords(payload, &entries); err != nil {
		return 0, &ProcessingError{Family: a.Family(), Detail: "malformed wellness payload", Err: err}
	}

	processed := 0
	for _, entry := range entries {
		if entry.ID == "" {
			return processed, &ProcessingError{Family: a.Family(), Detail: "wellness entry has no native id"}
		}

		body, err := json.Marshal(entry)
		if err != nil {
			return processed, &ProcessingError{Family: a.Family(), Detail: "encoding wellness entry", Err: err}
		}

		record := models.PlatformRecord{
			Family:   a.Family(),
			NativeID: entry.ID,
			Payload:  body,
			SyncedAt: time.Now(),
		}
		if err := a.records.Upsert(ctx, record); err != nil {
			return processed, &ProcessingError{Family: a.Family(), Detail: "storing wellness entry", Err: err}
		}
		processed++
	}

	return processed, nil
}
