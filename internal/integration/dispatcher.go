package integration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blockelevate/integrations/internal/metrics"
	"github.com/blockelevate/integrations/internal/models"
)

// SyncRun describes one dispatch: what triggered it, whether it is a full
// or incremental pass, and the cadence window the next run belongs to.
type SyncRun struct {
	Trigger models.SyncTrigger
	Type    models.SyncType
	Cadence time.Duration
	Forced  bool

	// SyncID, when set, is the externally assigned job id (manual
	// triggers hand theirs out before dispatch begins).
	SyncID string
}

// Dispatcher routes sync requests to platform adapters and owns every
// write to the SyncStatus store. Fetch and processing failures are
// absorbed here as failed statuses; they never reach the scheduler loop.
type Dispatcher struct {
	registry  *Registry
	configs   ConfigStore
	statuses  StatusStore
	logger    *slog.Logger
	collector *metrics.Collector

	// ConcurrentSyncs caps the per-platform fan-out of DispatchAll.
	ConcurrentSyncs int
}

// NewDispatcher creates a dispatcher with injected dependencies.
func NewDispatcher(registry *Registry, configs ConfigStore, statuses StatusStore, collector *metrics.Collector, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:        registry,
		configs:         configs,
		statuses:        statuses,
		collector:       collector,
		logger:          logger,
		ConcurrentSyncs: 4,
	}
}

// DispatchOne runs a single platform sync. An unknown platform name is a
// configuration error returned to the caller with no status transition
// written. Any other failure lands in the returned SyncStatus as
// status=failed with the error message populated.
func (d *Dispatcher) DispatchOne(ctx context.Context, config models.PlatformConfig, run SyncRun) (models.SyncStatus, error) {
	adapter, err := d.registry.Lookup(config.PlatformName)
	if err != nil {
		d.logger.Warn("sync requested for unknown platform", "platform", config.PlatformName)
		return models.SyncStatus{}, err
	}

	syncID := run.SyncID
	if syncID == "" {
		syncID = uuid.NewString()
	}

	job := models.SyncJob{
		SyncID:       syncID,
		PlatformName: config.PlatformName,
		Trigger:      run.Trigger,
		StartedAt:    time.Now(),
		Forced:       run.Forced,
	}

	d.logger.Info("sync started",
		"sync_id", job.SyncID,
		"platform", job.PlatformName,
		"trigger", job.Trigger,
		"forced", job.Forced,
	)

	status := models.SyncStatus{
		PlatformName: config.PlatformName,
		LastSync:     job.StartedAt,
		SyncType:     run.Type,
		Status:       models.SyncStateInProgress,
	}
	if err := d.statuses.Upsert(ctx, status); err != nil {
		d.logger.Error("failed to record sync start", "platform", config.PlatformName, "error", err)
	}

	nextSync := job.StartedAt.Add(run.Cadence)
	status.NextSync = &nextSync

	recordsProcessed, syncErr := d.runSync(ctx, adapter, config)
	duration := time.Since(job.StartedAt)

	if syncErr != nil {
		status.Status = models.SyncStateFailed
		status.ErrorMessage = syncErr.Error()
		d.logger.Error("sync failed",
			"sync_id", job.SyncID,
			"platform", job.PlatformName,
			"error", syncErr,
			"duration", duration,
		)
	} else {
		status.Status = models.SyncStateSuccess
		status.RecordsProcessed = recordsProcessed
		d.logger.Info("sync completed",
			"sync_id", job.SyncID,
			"platform", job.PlatformName,
			"records_processed", recordsProcessed,
			"duration", duration,
		)
	}

	if err := d.statuses.Upsert(ctx, status); err != nil {
		d.logger.Error("failed to record sync outcome", "platform", config.PlatformName, "error", err)
	}

	if d.collector != nil {
		d.collector.ObserveSyncRun(config.PlatformName, string(status.Status), duration)
	}

	return status, nil
}

// runSync performs the fetch/process sequence for one platform.
func (d *Dispatcher) runSync(ctx context.Context, adapter Adapter, config models.PlatformConfig) (int, error) {
	payload, err := adapter.FetchData(ctx, config.APIEndpoint, config.CredentialRef)
	if err != nil {
		return 0, err
	}
	return adapter.ProcessData(ctx, payload)
}

// DispatchAll reads the active platform configs fresh from the store and
// syncs each one concurrently. Platforms are independent: one failure
// never aborts the others, and no ordering is guaranteed.
func (d *Dispatcher) DispatchAll(ctx context.Context, run SyncRun) []models.SyncStatus {
	configs, err := d.configs.ListActive(ctx)
	if err != nil {
		d.logger.Error("failed to list active platform configs", "error", err)
		return nil
	}

	if len(configs) == 0 {
		d.logger.Debug("no active platforms configured")
		return nil
	}

	results := make([]models.SyncStatus, 0, len(configs))

	var wg sync.WaitGroup
	var mu sync.Mutex
	semaphore := make(chan struct{}, d.ConcurrentSyncs)

	for _, config := range configs {
		wg.Add(1)

		go func(cfg models.PlatformConfig) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			status, err := d.DispatchOne(ctx, cfg, run)
			if err != nil {
				// Only unknown-platform config errors reach here; the row
				// is rejected, siblings proceed.
				d.logger.Error("skipping platform", "platform", cfg.PlatformName, "error", err)
				return
			}

			mu.Lock()
			results = append(results, status)
			mu.Unlock()
		}(config)
	}

	wg.Wait()

	return results
}
