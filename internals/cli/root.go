package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crowdfund_backend/internals/configs"
)

var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "crowdfund",
		Short:   "Campaign funding backend: campaigns, checkout and donation reconciliation",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configs.LoadEnv()
		},
		// no subcommand keeps the old `go run .` behaviour
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(repairCmd())
	return root
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
