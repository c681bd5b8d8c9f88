package commands

import (
	"time"

	"shuassist-backend/internal/components/chrono"
	"shuassist-backend/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsDb *string
var runsId *string

func init() {
	runsDb = runsCmd.Flags().String("db", "results.db", "The sqlite database runs were stored in.")
	runsId = runsCmd.Flags().String("id", "", "Print the records of this run instead of listing runs.")
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs [--db <results.db>] [--id <run id>]",
	Short: "Lists stored extraction runs, or prints the records of one.",
	Run: func(cmd *cobra.Command, args []string) {
		database, err := store.OpenDB(*runsDb)
		if err != nil {
			fatal("failed to open db", err)
		}
		defer database.Close()
		clock, err := chrono.NewStandardImpl()
		if err != nil {
			fatal("failed to load timezone", err)
		}
		s := store.NewStore(database, clock)

		if *runsId != "" {
			records, err := s.Records(cmd.Context(), *runsId)
			if err != nil {
				fatal("failed to load records", err)
			}
			if len(records) > 0 {
				renderRecords(records)
			}
			summaries, err := s.Summaries(cmd.Context(), *runsId)
			if err != nil {
				fatal("failed to load summaries", err)
			}
			if len(summaries) > 0 {
				renderRecords(summaryRows(summaries))
			}
			return
		}

		runs, err := s.Runs(cmd.Context())
		if err != nil {
			fatal("failed to list runs", err)
		}
		t := newTable()
		t.AppendHeader(table.Row{"Run", "Kind", "Outcome", "Strategy", "Records", "Summaries", "Diagnostics", "Created"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.ID, run.Kind, run.Outcome, run.Strategy,
				run.Records, run.Summaries, run.Diagnostics,
				run.CreatedAt.Format(time.DateTime),
			})
		}
		t.Render()
	},
}
