package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blockelevate/integrations/internal/models"
)

// ConfigStore is the read-only view of platform configuration. The
// administrative subsystem owns the rows; the engine reads fresh before
// every dispatch.
type ConfigStore interface {
	// ListActive returns all platform configs with is_active=true.
	ListActive(ctx context.Context) ([]models.PlatformConfig, error)

	// Get retrieves a platform config by name regardless of active flag.
	Get(ctx context.Context, platformName string) (*models.PlatformConfig, error)
}

// StatusStore persists the single logically-current SyncStatus per
// platform. Writes are keyed upserts: last write wins, never partial.
type StatusStore interface {
	// Upsert overwrites the status row for status.PlatformName.
	Upsert(ctx context.Context, status models.SyncStatus) error

	// Get retrieves the current status for a platform, or nil if the
	// platform has never synced.
	Get(ctx context.Context, platformName string) (*models.SyncStatus, error)

	// List returns the current status of every platform that has synced.
	List(ctx context.Context) ([]models.SyncStatus, error)
}

// RecordStore persists domain records derived from platform data, keyed
// by family plus the remote platform's native id. Upserting the same key
// twice leaves a single record.
type RecordStore interface {
	Upsert(ctx context.Context, record models.PlatformRecord) error
	Count(ctx context.Context, family models.PlatformFamily) (int, error)
}

// MemoryConfigStore implements ConfigStore in memory for tests and
// development.
type MemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[string]models.PlatformConfig
}

// NewMemoryConfigStore creates an empty in-memory config store.
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{
		configs: make(map[string]models.PlatformConfig),
	}
}

// Put stores or replaces a platform config.
func (s *MemoryConfigStore) Put(config models.PlatformConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.PlatformName] = config
}

// ListActive returns active configs sorted by platform name.
func (s *MemoryConfigStore) ListActive(ctx context.Context) ([]models.PlatformConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []models.PlatformConfig
	for _, config := range s.configs {
		if config.IsActive {
			active = append(active, config)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].PlatformName < active[j].PlatformName
	})
	return active, nil
}

// Get retrieves a config by platform name.
func (s *MemoryConfigStore) Get(ctx context.Context, platformName string) (*models.PlatformConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, ok := s.configs[platformName]
	if !ok {
		return nil, nil
	}
	return &config, nil
}

// MemoryStatusStore implements StatusStore in memory.
type MemoryStatusStore struct {
	mu       sync.RWMutex
	statuses map[string]models.SyncStatus
	writes   int
}

// NewMemoryStatusStore creates an empty in-memory status store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{
		statuses: make(map[string]models.SyncStatus),
	}
}

// Upsert overwrites the row for the status's platform.
func (s *MemoryStatusStore) Upsert(ctx context.Context, status models.SyncStatus) error {
	if status.PlatformName == "" {
		return fmt.Errorf("sync status requires a platform name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.PlatformName] = status
	s.writes++
	return nil
}

// Get retrieves the current status for a platform.
func (s *MemoryStatusStore) Get(ctx context.Context, platformName string) (*models.SyncStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[platformName]
	if !ok {
		return nil, nil
	}
	return &status, nil
}

// List returns all current statuses sorted by platform name.
func (s *MemoryStatusStore) List(ctx context.Context) ([]models.SyncStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]models.SyncStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].PlatformName < statuses[j].PlatformName
	})
	return statuses, nil
}

// Writes returns the total number of upserts performed.
func (s *MemoryStatusStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// MemoryRecordStore implements RecordStore in memory.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]models.PlatformRecord
}

// NewMemoryRecordStore creates an empty in-memory record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]models.PlatformRecord),
	}
}

// Upsert stores a record keyed by family plus native id.
func (s *MemoryRecordStore) Upsert(ctx context.Context, record models.PlatformRecord) error {
	if record.NativeID == "" {
		return fmt.Errorf("platform record requires a native id")
	}
	if record.SyncedAt.IsZero() {
		record.SyncedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey(record.Family, record.NativeID)] = record
	return nil
}

// Count returns the number of records stored for a family.
func (s *MemoryRecordStore) Count(ctx context.Context, family models.PlatformFamily) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.records {
		if record.Family == family {
			count++
		}
	}
	return count, nil
}

func recordKey(family models.PlatformFamily, nativeID string) string {
	return string(family) + "/" + nativeID
}
