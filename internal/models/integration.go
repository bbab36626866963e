package models

import (
	"encoding/json"
	"time"
)

// PlatformFamily groups external platforms by the shape of data they
// produce. Each family has exactly one adapter.
type PlatformFamily string

const (
	FamilyNonprofit    PlatformFamily = "nonprofit"
	FamilyMentalHealth PlatformFamily = "mental-health"
	FamilyEcommerce    PlatformFamily = "ecommerce"
	FamilySocial       PlatformFamily = "social"
)

// Supported platform names. These are the only values accepted by the
// adapter registry; anything else is an unknown platform.
const (
	PlatformNonprofit    = "nonprofit_platform"
	PlatformMentalHealth = "mental_health_platform"
	PlatformEcommerce    = "ecommerce_platform"
	PlatformSocial       = "social_platform"
)

// SyncTrigger records what initiated a sync run.
type SyncTrigger string

const (
	TriggerScheduled SyncTrigger = "scheduled"
	TriggerManual    SyncTrigger = "manual"
	TriggerWebhook   SyncTrigger = "webhook"
)

// SyncType distinguishes the comprehensive daily pass from the lighter
// hourly pass.
type SyncType string

const (
	SyncTypeFull        SyncType = "full"
	SyncTypeIncremental SyncType = "incremental"
)

// SyncState is the lifecycle state of a platform's most recent sync.
type SyncState string

const (
	SyncStateInProgress SyncState = "in_progress"
	SyncStateSuccess    SyncState = "success"
	SyncStateFailed     SyncState = "failed"
)

// PlatformConfig is the operator-managed connection settings for one
// external platform. CredentialRef is never serialized to API clients.
type PlatformConfig struct {
	ID            string    `json:"id"`
	PlatformName  string    `json:"platform_name"`
	APIEndpoint   string    `json:"api_endpoint"`
	CredentialRef string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SyncStatus is the current sync snapshot for one platform. There is a
// single row per platform; every sync overwrites it.
type SyncStatus struct {
	PlatformName     string     `json:"platform_name"`
	LastSync         time.Time  `json:"last_sync"`
	SyncType         SyncType   `json:"sync_type"`
	Status           SyncState  `json:"status"`
	RecordsProcessed int        `json:"records_processed"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	NextSync         *time.Time `json:"next_sync,omitempty"`
}

// SyncJob identifies one dispatched sync run for logging and tracing.
type SyncJob struct {
	SyncID       string      `json:"sync_id"`
	PlatformName string      `json:"platform_name"`
	Trigger      SyncTrigger `json:"trigger"`
	StartedAt    time.Time   `json:"started_at"`
	Forced       bool        `json:"forced"`
}

// WebhookEvent is an inbound push notification from an external provider.
type WebhookEvent struct {
	Family     PlatformFamily  `json:"family"`
	Provider   string          `json:"provider"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// PlatformRecord is a synchronized domain record, stored keyed by its
// family and the id assigned by the external platform. Re-syncing the
// same remote record overwrites rather than duplicates.
type PlatformRecord struct {
	Family   PlatformFamily  `json:"family"`
	NativeID string          `json:"native_id"`
	Payload  json.RawMessage `json:"payload"`
	SyncedAt time.Time       `json:"synced_at"`
}
