package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// DefaultPollInterval is how often the process table is sampled.
const DefaultPollInterval = 2 * time.Second

// ProcessEventSource implements domain.EventSource by sampling the process
// table. A process seen for the first time yields a window-state-changed
// event; a process still running yields a window-content-changed event.
type ProcessEventSource struct {
	processManager domain.ProcessManager
	interval       time.Duration
	maxFailures    int
	logger         *zap.Logger

	ch   chan domain.UIEvent
	mu   sync.Mutex
	seen map[string]bool
	now  func() time.Time
}

// NewProcessEventSource creates an event source polling every interval.
func NewProcessEventSource(pm domain.ProcessManager, interval time.Duration, logger *zap.Logger) *ProcessEventSource {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ProcessEventSource{
		processManager: pm,
		interval:       interval,
		maxFailures:    3,
		logger:         logger,
		ch:             make(chan domain.UIEvent, 256),
		seen:           make(map[string]bool),
		now:            time.Now,
	}
}

// Events returns the channel events are delivered on.
func (s *ProcessEventSource) Events() <-chan domain.UIEvent {
	return s.ch
}

// Available reports whether the process table can be read.
func (s *ProcessEventSource) Available() (bool, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.processManager.Names(ctx); err != nil {
		return false, fmt.Sprintf("process table not readable: %v", err)
	}
	return true, ""
}

// Start polls until ctx is done or sampling fails maxFailures times in a row.
func (s *ProcessEventSource) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	failures := 0
	for {
		if err := s.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			s.logger.Warn("process sampling failed",
				zap.Int("consecutive_failures", failures),
				zap.Error(err))
			if failures >= s.maxFailures {
				return fmt.Errorf("event source interrupted: %w", err)
			}
		} else {
			failures = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll samples the process table once and emits the resulting events.
// Newly started processes are emitted before ones already seen, whatever
// order the process table lists them in. Every event is delivered; Poll
// waits for the consumer and gives up only when ctx is done.
func (s *ProcessEventSource) Poll(ctx context.Context) error {
	names, err := s.processManager.Names(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	current := make(map[string]bool, len(names))
	var started, running []string

	s.mu.Lock()
	for _, name := range names {
		if current[name] {
			continue
		}
		current[name] = true
		if s.seen[name] {
			running = append(running, name)
		} else {
			started = append(started, name)
		}
	}
	s.seen = current
	s.mu.Unlock()

	for _, name := range started {
		if err := s.emit(ctx, domain.UIEvent{Kind: domain.EventWindowStateChanged, Package: name, Time: now}); err != nil {
			return err
		}
	}
	for _, name := range running {
		if err := s.emit(ctx, domain.UIEvent{Kind: domain.EventWindowContentChanged, Package: name, Time: now}); err != nil {
			return err
		}
	}
	return nil
}

// emit blocks until the consumer takes ev or ctx is done.
func (s *ProcessEventSource) emit(ctx context.Context, ev domain.UIEvent) error {
	select {
	case s.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ensure ProcessEventSource implements domain.EventSource.
var _ domain.EventSource = (*ProcessEventSource)(nil)
