package daemon

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
	"github.com/eliteGoblin/focusd/app_block/internal/usecase"
	"github.com/eliteGoblin/focusd/app_block/test/fixtures"
)

// slowStore adds a per-read delay to fakeStore, like a real encrypted database.
type slowStore struct {
	fakeStore
	delay time.Duration
}

func (s *slowStore) WorkingWindow(ctx context.Context) (*domain.WorkingWindow, error) {
	time.Sleep(s.delay)
	return s.fakeStore.WorkingWindow(ctx)
}

func (s *slowStore) BlockedPackages(ctx context.Context) ([]string, error) {
	time.Sleep(s.delay)
	return s.fakeStore.BlockedPackages(ctx)
}

func TestWatcher_BlocksNewAppOnBusyDesktop(t *testing.T) {
	names := make([]string, 400)
	for i := range names {
		names[i] = fmt.Sprintf("daemon-%03d", i)
	}
	procs := fixtures.NewScriptedProcesses(names...)

	now := time.Now()
	store := &slowStore{
		fakeStore: fakeStore{
			window: &domain.WorkingWindow{
				From: now.Add(-time.Hour).UnixMilli(),
				To:   now.Add(time.Hour).UnixMilli(),
			},
			pkgs: []string{"steam"},
		},
		delay: 50 * time.Microsecond,
	}

	logger := zap.NewNop()
	host := &fixtures.FakeHost{}
	relay := usecase.NewRelay(host, nil, logger)
	observer := usecase.NewObserver(store, relay, nil, logger)
	source := infra.NewProcessEventSource(procs, 10*time.Millisecond, logger)

	w := NewWatcher(DefaultWatcherConfig(), source, observer, nil, &fakeState{},
		domain.DaemonState{PID: 4242, AppVersion: "test"}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// Let the first full sample settle, then launch the blocked app last.
	time.Sleep(50 * time.Millisecond)
	procs.Set(append(append([]string(nil), names...), "steam")...)

	require.Eventually(t, func() bool {
		for _, p := range host.Payloads() {
			if p == "steam" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}
