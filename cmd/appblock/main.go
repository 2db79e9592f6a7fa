// Package main is the CLI entry point for appblock.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "appblock",
	Short: "Working-time app blocker",
	Long: `appblock watches which applications come to the foreground and, during
the configured working-time window, sends the user back to the host
application whenever a blocked one shows up.

The working window moves forward by one day every night at 23:50.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var (
	configPath string
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/appblock/config.yaml)")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(versionCmd)
}
