package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "datastar-demo",
		Short: "Demo server for the Datastar SSE protocol SDK",
		Long: `datastar-demo runs a small server-driven UI application on top of
the Datastar SSE protocol SDK.

Every update the page shows travels over a Server-Sent Events stream:
element patches, signal merges, and script execution. The demo exists
to exercise the SDK end to end and to serve as copyable example code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// versionCmd prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("datastar-demo %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
