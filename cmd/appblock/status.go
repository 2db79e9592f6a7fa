package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_block/internal/config"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon, window and permission status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	pm := infra.NewProcessManager()
	state := infra.NewSQLStateStore(e.db, pm)

	fmt.Println("=== appblock status ===")
	fmt.Printf("Mode:        %s\n", config.DetectExecMode())
	fmt.Printf("Data dir:    %s\n", e.cfg.DataDir)

	ds, err := state.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load daemon state: %w", err)
	}
	alive, _ := state.IsDaemonAlive(ctx)
	switch {
	case ds == nil:
		fmt.Println("Daemon:      never started")
	case alive:
		fmt.Printf("Daemon:      running (PID %d, v%s)\n", ds.PID, ds.AppVersion)
		if !ds.LastHeartbeat.IsZero() {
			fmt.Printf("Heartbeat:   %s ago\n", time.Since(ds.LastHeartbeat).Round(time.Second))
		}
	default:
		fmt.Printf("Daemon:      stopped (last PID %d)\n", ds.PID)
	}
	if ds != nil && !ds.NextRearm.IsZero() {
		fmt.Printf("Next re-arm: %s\n", ds.NextRearm.In(time.Local).Format(time.RFC3339))
	}

	w, err := e.settings.WorkingWindow(ctx)
	if err != nil {
		return err
	}
	if w == nil {
		fmt.Println("Working window: not set")
	} else {
		printWindow(*w, time.Now())
	}

	pkgs, err := e.settings.BlockedPackages(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Blocked apps: %d\n", len(pkgs))

	checker := infra.NewPermissionChecker(
		infra.NewProcessEventSource(pm, e.cfg.PollInterval, e.logger), pm, e.cfg.DataDir)
	fmt.Println("\nPermissions:")
	for _, p := range infra.AllPermissions {
		mark := "granted"
		if !checker.Check(ctx, p) {
			mark = "MISSING"
		}
		fmt.Printf("  %-22s %s\n", p, mark)
	}
	fmt.Println("=======================")
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("appblock %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
