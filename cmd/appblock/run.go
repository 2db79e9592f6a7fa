package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/config"
	"github.com/eliteGoblin/focusd/app_block/internal/daemon"
	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
	"github.com/eliteGoblin/focusd/app_block/internal/metrics"
	"github.com/eliteGoblin/focusd/app_block/internal/usecase"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the blocker daemon in the foreground",
	Long: `Run the blocker daemon in the foreground.

The daemon polls running applications, blocks the configured ones during
the working window, and moves the window forward every night.
Use 'appblock start' to run it in the background.`,
	RunE: runDaemon,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the blocker daemon in the background",
	RunE:  runStart,
}

// runnerFunc adapts a function to daemon.Runner.
type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := createDaemonLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := openEnv(ctx, logger)
	if err != nil {
		logger.Error("failed to open store", zap.Error(err))
		return err
	}
	defer e.Close()

	hour, minute, second, err := config.ParseClock(cfg.RearmAt)
	if err != nil {
		return err
	}

	m := metrics.New()
	pm := infra.NewProcessManager()
	state := infra.NewSQLStateStore(e.db, pm)

	foregrounder, closeForegrounder := buildForegrounder(cfg, logger)
	defer closeForegrounder()

	relay := usecase.NewRelay(foregrounder, m, logger)
	observer := usecase.NewObserver(e.settings, relay, m, logger)
	rearmer := usecase.NewRearmer(usecase.RearmerConfig{
		Hour:     hour,
		Minute:   minute,
		Second:   second,
		Location: time.Local,
	}, e.settings, state, m, logger)

	source := infra.NewProcessEventSource(pm, cfg.PollInterval, logger)
	if ok, reason := source.Available(); !ok {
		logger.Error("event source unavailable", zap.String("reason", reason))
		return fmt.Errorf("event source unavailable: %s", reason)
	}

	// Keep the blocked-package gauge in step with the store.
	refreshBlocked := func(string) {
		pkgs, err := e.settings.BlockedPackages(context.WithoutCancel(ctx))
		if err != nil {
			logger.Warn("failed to count blocked packages", zap.Error(err))
			return
		}
		m.SetBlockedPackages(len(pkgs))
	}
	unregister := e.provider.RegisterObserver(domain.ContentURIApp, refreshBlocked)
	defer unregister()
	refreshBlocked(domain.ContentURIApp)

	extras := []daemon.Runner{infra.NewStoreWatcher(cfg.DataDir, e.provider, logger)}
	if cfg.MetricsAddr != "" {
		extras = append(extras, runnerFunc(func(ctx context.Context) error {
			return m.Serve(ctx, cfg.MetricsAddr)
		}))
	}

	watcherConfig := daemon.DefaultWatcherConfig()
	watcherConfig.HeartbeatInterval = cfg.HeartbeatInterval

	watcher := daemon.NewWatcher(
		watcherConfig,
		source,
		observer,
		rearmer,
		state,
		domain.DaemonState{
			PID:           pm.GetCurrentPID(),
			AppVersion:    Version,
			LastHeartbeat: time.Now(),
		},
		logger,
		extras...,
	)

	logger.Info("starting appblock daemon",
		zap.String("version", Version),
		zap.String("data_dir", cfg.DataDir),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.String("rearm_at", cfg.RearmAt))

	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("daemon stopped", zap.Error(err))
		return err
	}
	logger.Info("daemon stopped")
	return nil
}

// buildForegrounder combines the host command and the optional NATS publisher.
func buildForegrounder(cfg config.Config, logger *zap.Logger) (domain.Foregrounder, func()) {
	var multi infra.MultiForegrounder
	if cfg.Host.Command != "" {
		multi = append(multi, infra.NewCommandForegrounder(cfg.Host.Command, cfg.Host.Args...))
	}

	closer := func() {}
	if cfg.NATS.URL != "" {
		nf, err := infra.NewNATSForegrounder(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			logger.Warn("NATS unavailable, intents will not be published",
				zap.String("url", cfg.NATS.URL),
				zap.Error(err))
		} else {
			multi = append(multi, nf)
			closer = nf.Close
		}
	}

	if len(multi) == 0 {
		logger.Warn("no host configured, block signals are only logged")
		return infra.NopForegrounder{}, closer
	}
	return multi, closer
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	state := infra.NewSQLStateStore(e.db, infra.NewProcessManager())
	alive, err := state.IsDaemonAlive(ctx)
	if err != nil {
		return err
	}
	if alive {
		fmt.Println("Daemon already running")
		return nil
	}

	pid, err := daemon.StartDaemon(configPath)
	if err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	fmt.Printf("Daemon started (PID: %d)\n", pid)
	return nil
}
