// Command crossdex runs the cross-domain record query orchestrator: an HTTP
// server, a one-shot CLI query, and an index rebuild tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/crossdex/internal/version"
)

var envName string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "crossdex",
	Short:   "Cross-domain record query orchestrator",
	Long:    "crossdex coordinates document lookups across domain partitions (ERP, LIMS, DMS) and synthesizes one cited report per query.",
	Version: fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "",
		"Config environment name (default: ENV variable or \"local\")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(reindexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
