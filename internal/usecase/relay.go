package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/metrics"
)

// Relay hands block and service-disabled signals to the host.
//
// Each signal is kept in a single-slot mailbox read by TakeBlockedApp or
// TakeServiceDisabled. Reading clears the slot, so every signal is seen at
// most once. A second Block before the first is taken overwrites it; the
// overwrite is logged. Every signal also dispatches an Intent through the
// Foregrounder; delivery errors are logged and otherwise ignored.
type Relay struct {
	foregrounder domain.Foregrounder
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time

	mu       sync.Mutex
	blocked  *string
	disabled bool
}

// NewRelay creates a relay delivering through f.
func NewRelay(f domain.Foregrounder, m *metrics.Metrics, logger *zap.Logger) *Relay {
	return &Relay{
		foregrounder: f,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// Block records pkg as the last blocked package and summons the host.
func (r *Relay) Block(ctx context.Context, pkg string) {
	r.mu.Lock()
	if r.blocked != nil && *r.blocked != pkg {
		r.logger.Debug("unconsumed block signal overwritten",
			zap.String("previous", *r.blocked),
			zap.String("package", pkg))
	}
	r.blocked = &pkg
	r.mu.Unlock()

	r.metrics.ObserveBlock(pkg)
	r.dispatch(ctx, domain.SignalBlocked, pkg)
}

// Disable records that the observer stopped and summons the host.
func (r *Relay) Disable(ctx context.Context) {
	r.mu.Lock()
	r.disabled = true
	r.mu.Unlock()

	r.metrics.ObserveDisabled()
	r.dispatch(ctx, domain.SignalDisabled, domain.ServiceDisabled)
}

// TakeBlockedApp returns and clears the last blocked package.
func (r *Relay) TakeBlockedApp() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.blocked == nil {
		return "", false
	}
	pkg := *r.blocked
	r.blocked = nil
	return pkg, true
}

// TakeServiceDisabled returns and clears the service-disabled flag.
func (r *Relay) TakeServiceDisabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	disabled := r.disabled
	r.disabled = false
	return disabled
}

func (r *Relay) dispatch(ctx context.Context, kind domain.SignalKind, payload string) {
	intent := domain.Intent{
		ID:     uuid.NewString(),
		Action: domain.LaunchMainAction,
		Kind:   kind,
		Extras: map[string]string{domain.IntentBundleKey: payload},
		SentAt: r.now(),
	}

	if err := r.foregrounder.BringToForeground(ctx, intent); err != nil {
		r.logger.Warn("failed to bring host to foreground",
			zap.String("intent_id", intent.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}
	r.logger.Info("host summoned",
		zap.String("intent_id", intent.ID),
		zap.String("kind", string(kind)),
		zap.String("payload", payload))
}
