package commands

import (
	"fmt"
	"os"
	"strings"

	"shuassist-backend/internal/extract/classify"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var classifyKind *string
var classifyConfig *string

func init() {
	classifyKind = classifyCmd.Flags().String("kind", "grades", "The record kind whose classifier is used.")
	classifyConfig = classifyCmd.Flags().String("config", "", "A json5 kind configuration.")
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify [--kind <kind>] <token>...",
	Short: "Prints the category the field classifier assigns to each token.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "expected at least one token, predicates are tried in this order:", strings.Join(classify.Predicates(), ", "))
			os.Exit(1)
		}

		cfg := loadKind(*classifyKind, *classifyConfig)
		classifier, err := classify.NewClassifier(cfg.Classifier)
		if err != nil {
			fatal("failed to create classifier", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Token", "Category", "Key"})
		for _, token := range args {
			res := classifier.Classify(token)
			t.AppendRow(table.Row{token, res.Category.String(), res.Key()})
		}
		t.Render()
	},
}
