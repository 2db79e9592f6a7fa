package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_block/internal/infra"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List running applications that can be blocked",
	Args:  cobra.NoArgs,
	RunE:  runApps,
}

func runApps(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	catalog := infra.NewProcessCatalog(infra.NewProcessManager())
	apps, err := catalog.List(ctx)
	if err != nil {
		return err
	}

	blocked := map[string]bool{}
	if e, err := openEnv(ctx, nil); err == nil {
		defer e.Close()
		pkgs, _ := e.settings.BlockedPackages(ctx)
		for _, p := range pkgs {
			blocked[p] = true
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "APP\tBLOCKED")
	for _, app := range apps {
		mark := ""
		if blocked[app.Package] {
			mark = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\n", app.Package, mark)
	}
	return w.Flush()
}
