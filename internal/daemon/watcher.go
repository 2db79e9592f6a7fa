// Package daemon implements the blocker daemon.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/usecase"
)

// Runner is a background loop that runs until ctx is canceled.
type Runner interface {
	Run(ctx context.Context) error
}

// WatcherConfig holds watcher daemon configuration.
type WatcherConfig struct {
	HeartbeatInterval  time.Duration // How often to update heartbeat
	SourceRestartDelay time.Duration // Wait before restarting an interrupted event source
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		HeartbeatInterval:  30 * time.Second,
		SourceRestartDelay: 10 * time.Second,
	}
}

// Watcher is the blocker daemon.
// It feeds UI events from the event source to the observer, runs the daily
// re-armer, and records its own liveness in the state store.
// If the event source is interrupted, the host is told the service is
// disabled and the source is restarted after a delay.
type Watcher struct {
	config   WatcherConfig
	source   domain.EventSource
	observer *usecase.Observer
	rearmer  Runner
	state    domain.StateStore
	extras   []Runner
	logger   *zap.Logger
	daemon   domain.DaemonState
}

// NewWatcher creates a new watcher daemon. extras are run alongside the
// main loop (store watcher, metrics server); their errors are logged.
func NewWatcher(
	config WatcherConfig,
	source domain.EventSource,
	observer *usecase.Observer,
	rearmer Runner,
	state domain.StateStore,
	daemon domain.DaemonState,
	logger *zap.Logger,
	extras ...Runner,
) *Watcher {
	return &Watcher{
		config:   config,
		source:   source,
		observer: observer,
		rearmer:  rearmer,
		state:    state,
		extras:   extras,
		daemon:   daemon,
		logger:   logger,
	}
}

// Run starts the watcher daemon loop.
// This blocks until context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.state.SaveState(ctx, w.daemon); err != nil {
		w.logger.Error("failed to register daemon", zap.Error(err))
		return err
	}

	w.logger.Info("blocker daemon started",
		zap.Int("pid", w.daemon.PID),
		zap.String("version", w.daemon.AppVersion))

	if w.rearmer != nil {
		go w.runBackground(ctx, "rearmer", w.rearmer)
	}
	for _, r := range w.extras {
		go w.runBackground(ctx, "extra", r)
	}

	sourceErr := w.startSource(ctx)
	heartbeatTicker := time.NewTicker(w.config.HeartbeatInterval)
	defer heartbeatTicker.Stop()

	var restart <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("blocker daemon stopping")
			w.observer.OnDestroy(context.WithoutCancel(ctx))
			return ctx.Err()

		case ev := <-w.source.Events():
			w.observer.OnEvent(ctx, ev)

		case err := <-sourceErr:
			sourceErr = nil
			if ctx.Err() != nil {
				continue
			}
			w.logger.Warn("event source stopped", zap.Error(err))
			w.observer.OnInterrupt(ctx)
			restart = time.After(w.config.SourceRestartDelay)

		case <-restart:
			restart = nil
			w.logger.Info("restarting event source")
			sourceErr = w.startSource(ctx)

		case <-heartbeatTicker.C:
			if err := w.state.UpdateHeartbeat(ctx); err != nil {
				w.logger.Warn("failed to update heartbeat", zap.Error(err))
			}
		}
	}
}

// startSource runs the event source and reports its exit on the returned channel.
func (w *Watcher) startSource(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.source.Start(ctx)
	}()
	return errCh
}

func (w *Watcher) runBackground(ctx context.Context, name string, r Runner) {
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("background loop stopped", zap.String("loop", name), zap.Error(err))
	}
}
