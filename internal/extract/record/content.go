package record

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Table is one rendered table, an ordered list of rows of cell strings.
type Table [][]string

// Content is a single finite snapshot handed to the engine by a content source. It may hold
// tables, lines or both, the engine never assumes which one is the "real" source.
type Content struct {
	Tables []Table
	Lines  []string
}

// Size is the number of rows and lines in the content.
func (c Content) Size() int {
	size := len(c.Lines)
	for _, t := range c.Tables {
		size += len(t)
	}
	return size
}

func (c Content) Empty() bool {
	return c.Size() == 0
}

// TextLines returns the plain text lines of the content. When only tables are present every
// row with at least one non-empty cell becomes a line of its cells joined by a space.
func (c Content) TextLines() []string {
	if len(c.Lines) > 0 {
		return c.Lines
	}
	var lines []string
	for _, t := range c.Tables {
		for _, row := range t {
			line := JoinRow(row)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// JoinRow joins the non-empty cells of a row with a single space.
func JoinRow(row []string) string {
	parts := make([]string, 0, len(row))
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, " ")
}

// Validate checks the input contract: cells must be valid UTF-8, lines must additionally be
// non-empty, whitespace-trimmed and contain no line breaks.
func (c Content) Validate() error {
	for ti, t := range c.Tables {
		for ri, row := range t {
			for ci, cell := range row {
				if !utf8.ValidString(cell) {
					return &InputContractError{
						Location: fmt.Sprintf("table %d row %d cell %d", ti, ri, ci),
						Reason:   "invalid utf-8",
					}
				}
			}
		}
	}
	for li, line := range c.Lines {
		location := fmt.Sprintf("line %d", li)
		switch {
		case !utf8.ValidString(line):
			return &InputContractError{Location: location, Reason: "invalid utf-8"}
		case line == "":
			return &InputContractError{Location: location, Reason: "empty line"}
		case strings.TrimSpace(line) != line:
			return &InputContractError{Location: location, Reason: "line is not whitespace-trimmed"}
		case strings.ContainsAny(line, "\r\n"):
			return &InputContractError{Location: location, Reason: "line contains a line break"}
		}
	}
	return nil
}
