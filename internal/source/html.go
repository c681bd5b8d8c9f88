// Package source turns fetched or saved pages into the content snapshot the extraction
// engine consumes. Everything that touches the DOM, the network or the filesystem lives here,
// the engine only ever sees tables of cell strings and trimmed lines.
package source

import (
	"io"
	"strings"

	"shuassist-backend/internal/extract/record"
	"shuassist-backend/pkg/htmlutil"
	"shuassist-backend/pkg/textutil"

	"github.com/PuerkitoBio/goquery"
)

// FromHTML parses a rendered page. Every visible <table> becomes one Table and the visible
// text of the body becomes Lines.
func FromHTML(r io.Reader) (record.Content, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return record.Content{}, err
	}

	content := record.Content{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if hidden(table) {
			return
		}
		rows := tableRows(table)
		if len(rows) > 0 {
			content.Tables = append(content.Tables, rows)
		}
	})

	body := doc.Find("body")
	if body.Length() > 0 {
		for _, line := range htmlutil.TextLines(body.Get(0)) {
			line = clean(line)
			if line != "" {
				content.Lines = append(content.Lines, line)
			}
		}
	}
	return content, nil
}

// hidden reports whether the selection or one of its ancestors is not rendered.
func hidden(sel *goquery.Selection) bool {
	for _, n := range sel.Nodes {
		if htmlutil.IsSkipped(n) {
			return true
		}
	}
	for _, n := range sel.Parents().Nodes {
		if htmlutil.IsSkipped(n) {
			return true
		}
	}
	return false
}

// tableRows returns the rows that belong to this table, rows of nested tables are left to
// the nested table itself.
func tableRows(table *goquery.Selection) record.Table {
	var rows record.Table
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.Closest("table").IsSelection(table) {
			return
		}
		if htmlutil.IsSkipped(tr.Get(0)) {
			return
		}
		var row []string
		tr.Children().Filter("td, th").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, cellText(cell))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return rows
}

func cellText(cell *goquery.Selection) string {
	if cell.Find("table").Length() > 0 {
		cell = cell.Clone()
		cell.Find("table").Remove()
	}
	return clean(htmlutil.CellText(cell.Get(0)))
}

func clean(s string) string {
	return textutil.CollapseSpace(strings.ToValidUTF8(s, "\uFFFD"))
}

// FromText splits plain text into cleaned, non-empty lines.
func FromText(r io.Reader) (record.Content, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return record.Content{}, err
	}
	return record.Content{Lines: textutil.Lines(strings.ToValidUTF8(string(data), "\uFFFD"))}, nil
}
