// Package strategy holds the parsing algorithms tried by the cascade runner. Every strategy
// turns one content snapshot into an ordered list of raw records, all values are kept as the
// strings found in the content, coercion happens later.
package strategy

import (
	"strings"

	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/internal/extract/section"
	"shuassist-backend/pkg/textutil"
)

const (
	TABULAR = "tabular"
	LEXICAL = "lexical"
	BLOCK   = "block"
	PATTERN = "pattern"
)

const report_strategy_skipped = "skipped"

// Input is what a strategy receives for one run.
type Input struct {
	Content record.Content
	// InitialSection is the section the run starts in, empty means NoSection.
	InitialSection string
}

func (in Input) tracker() *section.Tracker {
	return section.NewTrackerIn(in.InitialSection)
}

// Outcome is the result of one strategy over one content snapshot.
type Outcome struct {
	Records []record.Record
	// Skipped counts rows and lines that were noise or could not be attributed to a section.
	Skipped     int
	Diagnostics []error
}

func (o *Outcome) skip() {
	o.Skipped++
}

func (o *Outcome) anomaly(tel telemetry.API, id, line string, extra []string) {
	err := &record.AnomalousToken{Line: line, Extra: extra}
	tel.ReportWarning(id, err)
	o.Diagnostics = append(o.Diagnostics, err)
}

func (o *Outcome) finish(tel telemetry.API) Outcome {
	tel.ReportCount(report_strategy_skipped, int64(o.Skipped))
	return *o
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = textutil.Fold(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// assigned lists the non-empty values of a record, used as classification context.
func assigned(r record.Record) []string {
	values := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		if !f.Value.IsEmpty() {
			values = append(values, f.Value.Text())
		}
	}
	return values
}

// sectionFromFields joins the non-empty values of the given fields with "-".
func sectionFromFields(r record.Record, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v := textutil.Fold(r.Raw(f))
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "-")
}
