package integration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/blockelevate/integrations/internal/models"
)

// SocialAdapter syncs community posts and engagement data from social
// platforms (Facebook, Instagram, Twitter, Discord).
type SocialAdapter struct {
	client  FetchClient
	records RecordStore
}

// NewSocialAdapter creates the social family adapter.
func NewSocialAdapter(client FetchClient, records RecordStore) *SocialAdapter {
	return &SocialAdapter{client: client, records: records}
}

type socialPostRecord struct {
	ID         string `json:"id"`
	Author     string `json:"author"`
	Content    string `json:"content"`
	Likes      int    `json:"likes"`
	Comments   int    `json:"comments"`
	Shares     int    `json:"shares"`
	PostedAt   string `json:"posted_at"`
	Visibility string `json:"visibility"`
}

// Family returns the social platform family.
func (a *SocialAdapter) Family() models.PlatformFamily {
	return models.FamilySocial
}

// FetchData pulls the post feed from the configured endpoint.
func (a *SocialAdapter) FetchData(ctx context.Context, endpoint, credentialRef string) ([]byte, error) {
	return a.client.Fetch(ctx, endpoint, "/social-posts", authHeaders(credentialRef), nil)
}

// ProcessData upserts each post keyed by its remote id. A redelivered
// webhook or a re-run sync carrying posts already stored overwrites them
// in place.
func (a *SocialAdapter) ProcessData(ctx context.Context, payload []byte) (int, error) {
	var posts []socialPostRecord
	if err := decodeRecords(payload, &posts); err != nil {
		return 0, &ProcessingError{Family: a.Family(), Detail: "malformed social payload", Err: err}
	}

	processed := 0
	for _, post := range posts {
		if post.ID == "" {
			return processed, &ProcessingError{Family: a.Family(), Detail: "post has no native id"}
		}

		body, err := json.Marshal(post)
		if err != nil {
			return processed, &ProcessingError{Family: a.Family(), Detail: "encoding post", Err: err}
		}

		record := models.PlatformRecord{
			Family:   a.Family(),
			NativeID: post.ID,
			Payload:  body,
			SyncedAt: time.Now(),
		}
		if err := a.records.Upsert(ctx, record); err != nil {
			return processed, &ProcessingError{Family: a.Family(), Detail: "storing post", Err: err}
		}
		processed++
	}

	return processed, nil
}
