package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shuassist-backend/internal/components/chrono"
	"shuassist-backend/internal/extract"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/internal/source"
	"shuassist-backend/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var extractKind *string
var extractConfig *string
var extractFormat *string
var extractSection *string
var extractDb *string
var extractUrl *string
var extractDiagnostics *bool
var extractSavePage *string

func init() {
	extractKind = extractCmd.Flags().String("kind", "grades", "The built-in record kind to extract.")
	extractConfig = extractCmd.Flags().String("config", "", "A json5 kind configuration, merged over the built-in kind of the same name.")
	extractFormat = extractCmd.Flags().String("format", "auto", "The input format: html, text or auto (by file extension).")
	extractSection = extractCmd.Flags().String("section", "", "The section the page starts in, overrides the initial section of the kind.")
	extractDb = extractCmd.Flags().String("db", "", "A sqlite database to store the run in.")
	extractUrl = extractCmd.Flags().String("url", "", "Fetch the page from this url instead of reading a file.")
	extractSavePage = extractCmd.Flags().String("save-page", "", "Keep a copy of the fetched page in this directory.")
	extractDiagnostics = extractCmd.Flags().Bool("diagnostics", false, "Print every diagnostic of the run.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract [--kind <kind>] [--config <kind.json5>] [--format html|text] [--section <key>] [--db <results.db>] (<file> | --url <url>)",
	Short: "Extracts the records of one page and prints them.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadKind(*extractKind, *extractConfig)
		engine, err := extract.NewEngine(cfg, extract.WithTelemetryAPI(tel))
		if err != nil {
			fatal("failed to create engine", err)
		}

		var content record.Content
		switch {
		case *extractUrl != "":
			var opts []source.FetcherOption
			if *extractSavePage != "" {
				output, err := source.NewPageOutput(*extractSavePage)
				if err != nil {
					fatal("failed to create page output", err)
				}
				opts = append(opts, source.WithPageOutput(output))
			}
			content, err = source.NewFetcher(tel, opts...).Fetch(cmd.Context(), *extractUrl)
			if err != nil {
				fatal("failed to fetch page", err)
			}
		case len(args) == 1:
			content, err = readContent(args[0], *extractFormat)
			if err != nil {
				fatal("failed to read page", err)
			}
		default:
			fmt.Fprintln(os.Stderr, "expected exactly one file argument or --url")
			os.Exit(1)
		}

		res, err := engine.Run(content, extract.Options{Section: *extractSection})
		if err != nil {
			fatal("content violates the input contract", err)
		}

		if len(res.Records) > 0 {
			renderRecords(res.Records)
		}
		if len(res.Summaries) > 0 {
			renderRecords(summaryRows(res.Summaries))
		}

		strategy := res.Strategy
		if strategy == "" {
			strategy = "-"
		}
		fmt.Printf(
			"%s: %s (strategy: %s, records: %d, summaries: %d, skipped: %d, diagnostics: %d)\n",
			res.Kind, res.Outcome, strategy, len(res.Records), len(res.Summaries), res.Skipped, len(res.Diagnostics),
		)
		if *extractDiagnostics {
			for _, d := range res.Diagnostics {
				fmt.Println(" -", d.Error())
			}
		}

		if *extractDb == "" {
			return
		}
		database, err := store.OpenDB(*extractDb)
		if err != nil {
			fatal("failed to open db", err)
		}
		defer database.Close()
		clock, err := chrono.NewStandardImpl()
		if err != nil {
			fatal("failed to load timezone", err)
		}
		id, err := store.NewStore(database, clock).SaveRun(cmd.Context(), cfg.Name, res)
		if err != nil {
			fatal("failed to save run", err)
		}
		fmt.Println("saved run", id)
	},
}

func readContent(path, format string) (record.Content, error) {
	f, err := os.Open(path)
	if err != nil {
		return record.Content{}, err
	}
	defer f.Close()

	if format == "auto" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			format = "html"
		default:
			format = "text"
		}
	}
	switch format {
	case "html":
		return source.FromHTML(f)
	case "text":
		return source.FromText(f)
	}
	return record.Content{}, fmt.Errorf("unknown format %q", format)
}

// renderRecords prints records as one table, columns are the field names in first-seen order.
func renderRecords(records []record.Record) {
	columns := []string{}
	index := map[string]int{}
	for _, r := range records {
		for _, f := range r.Fields {
			if _, ok := index[f.Name]; !ok {
				index[f.Name] = len(columns)
				columns = append(columns, f.Name)
			}
		}
	}

	t := newTable()
	header := table.Row{"section"}
	for _, c := range columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for _, r := range records {
		row := make(table.Row, len(columns)+1)
		row[0] = r.Section
		for i := range columns {
			row[i+1] = ""
		}
		for _, f := range r.Fields {
			row[index[f.Name]+1] = f.Value.Text()
		}
		t.AppendRow(row)
	}
	t.Render()
}
