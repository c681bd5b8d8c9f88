package commands

import (
	"strings"

	"shuassist-backend/internal/extract/kind"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(kindsCmd)
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "Prints the built-in record kinds and their strategy cascades.",
	Run: func(cmd *cobra.Command, args []string) {
		t := newTable()
		t.AppendHeader(table.Row{"Kind", "Cascade", "Summaries", "Description"})
		for _, name := range kind.Names() {
			cfg, err := kind.Builtin(name)
			if err != nil {
				fatal("failed to load kind", err)
			}
			t.AppendRow(table.Row{
				cfg.Name,
				strings.Join(cfg.Cascade, " > "),
				cfg.HasSummaries(),
				cfg.Description,
			})
		}
		t.Render()
	},
}
