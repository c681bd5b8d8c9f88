package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose *bool
var showMetrics *bool

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug reports.")
	showMetrics = rootCmd.PersistentFlags().Bool("metrics", false, "Print the report metrics collected while the command ran.")
}

var rootCmd = &cobra.Command{
	Use:   "shuextract-cli",
	Short: "shuextract-cli extracts grade, ranking, attendance and schedule records from saved or served pages.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupTelemetry()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		printMetrics(cmd.Context())
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
