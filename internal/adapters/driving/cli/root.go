// Package cli implements the dcgraph command-line interface using cobra.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verboseFlag bool
	configFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "dcgraph",
	Short: "MCP server for the Data Commons statistical graph",
	Long: `dcgraph exposes the Data Commons statistical-data graph to AI
assistants over the Model Context Protocol: observation fetching with
automatic primary-source selection, and topic/variable search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"path to the config file (default ~/.dcgraph/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
