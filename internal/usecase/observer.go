package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/metrics"
)

// blockingKinds are the only event kinds that can trigger a block.
var blockingKinds = map[domain.EventKind]bool{
	domain.EventViewClicked:          true,
	domain.EventViewScrolled:         true,
	domain.EventWindowStateChanged:   true,
	domain.EventWindowContentChanged: true,
}

// Observer decides, per UI event, whether the user must be redirected.
// It keeps no state between events: the window and blocked list are
// re-read from the store every time.
type Observer struct {
	store   BlockerStore
	relay   *Relay
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewObserver creates an observer.
func NewObserver(store BlockerStore, relay *Relay, m *metrics.Metrics, logger *zap.Logger) *Observer {
	return &Observer{
		store:   store,
		relay:   relay,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// NewObserverWithClock creates an observer with a custom clock (for testing).
func NewObserverWithClock(store BlockerStore, relay *Relay, logger *zap.Logger, now func() time.Time) *Observer {
	o := NewObserver(store, relay, nil, logger)
	o.now = now
	return o
}

// OnEvent handles one UI event and reports whether a block was signaled.
func (o *Observer) OnEvent(ctx context.Context, ev domain.UIEvent) bool {
	o.metrics.ObserveEvent(string(ev.Kind))

	if !o.isWorkingTime(ctx) {
		return false
	}
	if !blockingKinds[ev.Kind] || ev.Package == "" {
		return false
	}

	pkgs, err := o.store.BlockedPackages(ctx)
	if err != nil {
		o.logger.Warn("failed to read blocked packages", zap.Error(err))
		return false
	}
	for _, pkg := range pkgs {
		if pkg == ev.Package {
			o.logger.Info("blocked app in foreground",
				zap.String("package", ev.Package),
				zap.String("event", string(ev.Kind)))
			o.relay.Block(ctx, ev.Package)
			return true
		}
	}
	return false
}

// OnInterrupt is called when the event source is interrupted.
func (o *Observer) OnInterrupt(ctx context.Context) {
	o.logger.Warn("event observer interrupted")
	o.relay.Disable(ctx)
}

// OnDestroy is called when the observer is torn down.
func (o *Observer) OnDestroy(ctx context.Context) {
	o.logger.Info("event observer destroyed")
	o.relay.Disable(ctx)
}

func (o *Observer) isWorkingTime(ctx context.Context) bool {
	w, err := o.store.WorkingWindow(ctx)
	if err != nil {
		o.logger.Warn("failed to read working window", zap.Error(err))
		return false
	}
	if w == nil {
		return false
	}
	return w.Contains(o.now())
}
