package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_block/internal/config"
	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Manage the working-time window",
}

var (
	windowFrom string
	windowTo   string
)

var windowSetCmd = &cobra.Command{
	Use:   "set --from <time> --to <time>",
	Short: "Set the working window",
	Long: `Set the working window.

Times are either RFC 3339 timestamps or clock times (HH:MM or HH:MM:SS),
which are taken as today in the local time zone.`,
	Example: `  appblock window set --from 09:00 --to 17:00
  appblock window set --from 2024-03-09T23:50:00-05:00 --to 2024-03-10T01:00:00-05:00`,
	Args: cobra.NoArgs,
	RunE: runWindowSet,
}

var windowShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the working window",
	Args:  cobra.NoArgs,
	RunE:  runWindowShow,
}

func init() {
	windowSetCmd.Flags().StringVar(&windowFrom, "from", "", "Window start")
	windowSetCmd.Flags().StringVar(&windowTo, "to", "", "Window end")
	_ = windowSetCmd.MarkFlagRequired("from")
	_ = windowSetCmd.MarkFlagRequired("to")

	windowCmd.AddCommand(windowSetCmd)
	windowCmd.AddCommand(windowShowCmd)
}

// parseWindowTime accepts RFC 3339 or a clock time on now's local date.
func parseWindowTime(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	hour, minute, second, err := config.ParseClock(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339 or HH:MM[:SS])", s)
	}
	local := now.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, minute, second, 0, time.Local), nil
}

func runWindowSet(cmd *cobra.Command, args []string) error {
	now := time.Now()
	from, err := parseWindowTime(windowFrom, now)
	if err != nil {
		return err
	}
	to, err := parseWindowTime(windowTo, now)
	if err != nil {
		return err
	}
	if to.Before(from) {
		fmt.Println("Warning: window ends before it starts; blocking will never be active")
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.settings.SetWorkingWindow(ctx, domain.NewWorkingWindow(from, to)); err != nil {
		return err
	}
	fmt.Printf("Working window: %s - %s\n", from.Format(time.RFC3339), to.Format(time.RFC3339))
	return nil
}

func runWindowShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	w, err := e.settings.WorkingWindow(ctx)
	if err != nil {
		return err
	}
	if w == nil {
		fmt.Println("No working window set")
		return nil
	}
	printWindow(*w, time.Now())
	return nil
}

func printWindow(w domain.WorkingWindow, now time.Time) {
	active := "inactive"
	if w.Contains(now) {
		active = "active"
	}
	fmt.Printf("Working window: %s - %s (%s)\n",
		w.FromTime(time.Local).Format(time.RFC3339),
		w.ToTime(time.Local).Format(time.RFC3339),
		active)
}
