package main

import (
	"github.com/Sternrassler/stars-export/pkg/ratelimit"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// newClock is the time source for rate pauses and jitter.
var newClock = func() ratelimit.Clock { return ratelimit.SystemClock{} }

func newRootCmd() *cobra.Command {
	opts := &exportOptions{}

	rootCmd := &cobra.Command{
		Use:   "stars-export",
		Short: "Export your starred GitHub repositories",
		Long: `stars-export fetches every repository a GitHub user has starred,
one page at a time, pausing when the API rate budget runs low, and writes
the result as JSON, CSV and XLSX files.

Running it without a subcommand is the same as "stars-export export".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}
	addExportFlags(rootCmd, opts)

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
