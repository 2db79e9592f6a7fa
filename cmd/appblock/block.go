package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Manage the blocked application list",
}

var blockSetCmd = &cobra.Command{
	Use:   "set <app>...",
	Short: "Replace the blocked list",
	Long: `Replace the blocked list with the given application names.

The old list is cleared and the new one written in a single transaction.
Duplicate names are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBlockSet,
}

var blockListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the blocked list",
	Args:  cobra.NoArgs,
	RunE:  runBlockList,
}

var blockClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every blocked application",
	Args:  cobra.NoArgs,
	RunE:  runBlockClear,
}

func init() {
	blockCmd.AddCommand(blockSetCmd)
	blockCmd.AddCommand(blockListCmd)
	blockCmd.AddCommand(blockClearCmd)
}

func runBlockSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	pkgs := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			pkgs = append(pkgs, a)
		}
	}

	result, err := e.settings.ReplaceBlockedPackages(ctx, pkgs)
	if err != nil {
		return err
	}
	fmt.Printf("Blocked %d app(s)", len(result.Inserted))
	if result.Failed > 0 {
		fmt.Printf(", %d duplicate(s) skipped", result.Failed)
	}
	fmt.Println()
	return nil
}

func runBlockList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	pkgs, err := e.settings.BlockedPackages(ctx)
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		fmt.Println("No blocked apps")
		return nil
	}
	for _, p := range pkgs {
		fmt.Println(p)
	}
	return nil
}

func runBlockClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.settings.ReplaceBlockedPackages(ctx, nil); err != nil {
		return err
	}
	fmt.Println("Blocked list cleared")
	return nil
}
