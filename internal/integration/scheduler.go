package integration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blockelevate/integrations/internal/metrics"
	"github.com/blockelevate/integrations/internal/models"
)

// ErrPlatformNotConfigured is returned by RequestSync when no
// platform_configs row exists for the requested platform.
var ErrPlatformNotConfigured = fmt.Errorf("platform configuration not found")

// ErrPlatformDisabled is returned by a non-forced RequestSync targeting a
// deactivated platform.
var ErrPlatformDisabled = fmt.Errorf("platform is not active")

// SchedulerConfig holds the cadence intervals.
type SchedulerConfig struct {
	HourlyInterval      time.Duration
	DailyInterval       time.Duration
	EstimatedCompletion time.Duration
}

// DefaultSchedulerConfig returns the standard cadences: an hourly pass
// for critical updates and a daily comprehensive pass.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		HourlyInterval:      1 * time.Hour,
		DailyInterval:       24 * time.Hour,
		EstimatedCompletion: 5 * time.Minute,
	}
}

// SyncReceipt is the immediate response to a manual sync request. The
// estimated completion is advisory only.
type SyncReceipt struct {
	SyncID              string    `json:"sync_id"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

// Scheduler drives the two fixed-cadence sync emitters and accepts
// manual triggers. Each cadence never overlaps itself: a tick firing
// while the previous run of the same cadence is still in flight is
// skipped and logged. Hourly and daily runs may race each other on the
// same platform; the SyncStatus row is a snapshot, so the last writer
// wins.
type Scheduler struct {
	dispatcher *Dispatcher
	configs    ConfigStore
	registry   *Registry
	collector  *metrics.Collector
	logger     *slog.Logger
	cfg        SchedulerConfig

	stopChan chan struct{}
	stopOnce sync.Once

	mu         sync.Mutex
	hourlyBusy bool
	dailyBusy  bool
	inFlight   sync.WaitGroup
}

// NewScheduler creates a scheduler with injected dependencies and an
// explicit lifecycle; nothing starts until Start is called.
func NewScheduler(dispatcher *Dispatcher, configs ConfigStore, registry *Registry, collector *metrics.Collector, logger *slog.Logger, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		configs:    configs,
		registry:   registry,
		collector:  collector,
		logger:     logger,
		cfg:        cfg,
		stopChan:   make(chan struct{}),
	}
}

// Start runs the emitter loop until the context is cancelled or Stop is
// called. Callers typically run it on its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting sync scheduler",
		"hourly_interval", s.cfg.HourlyInterval,
		"daily_interval", s.cfg.DailyInterval,
	)

	hourly := time.NewTicker(s.cfg.HourlyInterval)
	defer hourly.Stop()
	daily := time.NewTicker(s.cfg.DailyInterval)
	defer daily.Stop()

	for {
		select {
		case <-hourly.C:
			s.runCadence(ctx, "hourly", SyncRun{
				Trigger: models.TriggerScheduled,
				Type:    models.SyncTypeIncremental,
				Cadence: s.cfg.HourlyInterval,
			})
		case <-daily.C:
			s.runCadence(ctx, "daily", SyncRun{
				Trigger: models.TriggerScheduled,
				Type:    models.SyncTypeFull,
				Cadence: s.cfg.DailyInterval,
			})
		case <-s.stopChan:
			s.logger.Info("sync scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("sync scheduler stopping", "reason", ctx.Err())
			return
		}
	}
}

// Stop terminates the emitter loop and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.inFlight.Wait()
}

// runCadence fans out a dispatchAll for one cadence unless that cadence
// is already running.
func (s *Scheduler) runCadence(ctx context.Context, cadence string, run SyncRun) {
	if !s.claimCadence(cadence) {
		s.logger.Warn("skipping sync tick, previous run still in flight", "cadence", cadence)
		if s.collector != nil {
			s.collector.ObserveSkippedTick(cadence)
		}
		return
	}

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		defer s.releaseCadence(cadence)

		statuses := s.dispatcher.DispatchAll(ctx, run)
		s.logger.Info("scheduled sync pass complete", "cadence", cadence, "platforms", len(statuses))
	}()
}

func (s *Scheduler) claimCadence(cadence string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cadence {
	case "daily":
		if s.dailyBusy {
			return false
		}
		s.dailyBusy = true
	default:
		if s.hourlyBusy {
			return false
		}
		s.hourlyBusy = true
	}
	return true
}

func (s *Scheduler) releaseCadence(cadence string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cadence == "daily" {
		s.dailyBusy = false
	} else {
		s.hourlyBusy = false
	}
}

// RequestSync validates a manual sync request and hands it off to a
// background dispatch, returning immediately. force bypasses the active
// flag but not the adapter lookup: a platform no adapter exists for is
// rejected outright, with no SyncStatus written.
func (s *Scheduler) RequestSync(ctx context.Context, platformName string, force bool) (SyncReceipt, error) {
	if _, err := s.registry.Lookup(platformName); err != nil {
		return SyncReceipt{}, err
	}

	config, err := s.configs.Get(ctx, platformName)
	if err != nil {
		return SyncReceipt{}, fmt.Errorf("loading platform config: %w", err)
	}
	if config == nil {
		return SyncReceipt{}, fmt.Errorf("%w: %s", ErrPlatformNotConfigured, platformName)
	}
	if !config.IsActive && !force {
		return SyncReceipt{}, fmt.Errorf("%w: %s", ErrPlatformDisabled, platformName)
	}

	receipt := SyncReceipt{
		SyncID:              uuid.NewString(),
		EstimatedCompletion: time.Now().Add(s.cfg.EstimatedCompletion),
	}

	run := SyncRun{
		Trigger: models.TriggerManual,
		Type:    models.SyncTypeIncremental,
		Cadence: s.cfg.HourlyInterval,
		Forced:  force,
		SyncID:  receipt.SyncID,
	}

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		// Detached from the request context: the HTTP call returns while
		// the sync is still running.
		if _, err := s.dispatcher.DispatchOne(context.Background(), *config, run); err != nil {
			s.logger.Error("manual sync dispatch failed", "platform", platformName, "error", err)
		}
	}()

	return receipt, nil
}
