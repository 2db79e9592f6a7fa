package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/metrics"
)

// RearmerConfig holds the daily fire time of the re-armer.
type RearmerConfig struct {
	Hour     int
	Minute   int
	Second   int
	Location *time.Location
}

// DefaultRearmerConfig fires at 23:50:00 local time.
func DefaultRearmerConfig() RearmerConfig {
	return RearmerConfig{Hour: 23, Minute: 50, Second: 0, Location: time.Local}
}

// AdvanceWindow moves both bounds of w one calendar day forward in loc.
// Wall-clock times are kept, so across a DST change the stored instants
// move by 23 or 25 hours rather than a flat 24.
func AdvanceWindow(w domain.WorkingWindow, loc *time.Location) domain.WorkingWindow {
	return domain.WorkingWindow{
		From: w.FromTime(loc).AddDate(0, 0, 1).UnixMilli(),
		To:   w.ToTime(loc).AddDate(0, 0, 1).UnixMilli(),
	}
}

// NextFireTime returns the first moment strictly after now at cfg's local time.
func NextFireTime(now time.Time, cfg RearmerConfig) time.Time {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	due := time.Date(local.Year(), local.Month(), local.Day(), cfg.Hour, cfg.Minute, cfg.Second, 0, loc)
	if !due.After(local) {
		due = time.Date(local.Year(), local.Month(), local.Day()+1, cfg.Hour, cfg.Minute, cfg.Second, 0, loc)
	}
	return due
}

// NextDelay returns how long to wait from now until the next fire time. Always positive.
func NextDelay(now time.Time, cfg RearmerConfig) time.Duration {
	return NextFireTime(now, cfg).Sub(now)
}

// Rearmer advances the working window by one day, once a day, and
// reschedules itself after every run. There is no catch-up for missed days.
type Rearmer struct {
	config  RearmerConfig
	store   BlockerStore
	state   domain.StateStore
	metrics *metrics.Metrics
	logger  *zap.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu       sync.Mutex
	nextFire time.Time
}

// NewRearmer creates a re-armer. state may be nil.
func NewRearmer(config RearmerConfig, store BlockerStore, state domain.StateStore, m *metrics.Metrics, logger *zap.Logger) *Rearmer {
	if config.Location == nil {
		config.Location = time.Local
	}
	return &Rearmer{
		config:  config,
		store:   store,
		state:   state,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		after:   time.After,
	}
}

// NewRearmerWithClock creates a re-armer with a custom clock and timer (for testing).
func NewRearmerWithClock(
	config RearmerConfig,
	store BlockerStore,
	logger *zap.Logger,
	now func() time.Time,
	after func(time.Duration) <-chan time.Time,
) *Rearmer {
	r := NewRearmer(config, store, nil, nil, logger)
	r.now = now
	r.after = after
	return r
}

// NextFire returns when the re-armer fires next; zero before Run schedules it.
func (r *Rearmer) NextFire() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextFire
}

// RunOnce advances the stored window by one day. A missing window is not an error.
func (r *Rearmer) RunOnce(ctx context.Context) error {
	current, err := r.store.WorkingWindow(ctx)
	if err != nil {
		r.metrics.ObserveRearm("error")
		return fmt.Errorf("failed to read working window: %w", err)
	}
	if current == nil {
		r.metrics.ObserveRearm("skipped")
		r.logger.Info("no working window to re-arm")
		return nil
	}

	next := AdvanceWindow(*current, r.config.Location)
	if err := r.store.SetWorkingWindow(ctx, next); err != nil {
		r.metrics.ObserveRearm("error")
		return fmt.Errorf("failed to write working window: %w", err)
	}

	r.metrics.ObserveRearm("ok")
	r.logger.Info("working window re-armed",
		zap.Time("from", next.FromTime(r.config.Location)),
		zap.Time("to", next.ToTime(r.config.Location)))
	return nil
}

// Run waits for each fire time, runs once, and schedules the next run,
// until ctx is canceled.
func (r *Rearmer) Run(ctx context.Context) error {
	for {
		now := r.now()
		fire := NextFireTime(now, r.config)
		r.schedule(ctx, fire)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.after(fire.Sub(now)):
		}

		if err := r.RunOnce(ctx); err != nil {
			r.logger.Error("re-arm failed", zap.Error(err))
		}
	}
}

func (r *Rearmer) schedule(ctx context.Context, fire time.Time) {
	r.mu.Lock()
	r.nextFire = fire
	r.mu.Unlock()

	r.metrics.SetNextRearm(fire)
	if r.state != nil {
		if err := r.state.SetNextRearm(ctx, fire.UnixMilli()); err != nil {
			r.logger.Warn("failed to record next re-arm", zap.Error(err))
		}
	}
	r.logger.Debug("re-arm scheduled", zap.Time("at", fire))
}
