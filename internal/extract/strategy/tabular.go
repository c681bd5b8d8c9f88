package strategy

import (
	"fmt"
	"regexp"
	"strings"

	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/internal/extract/section"
	"shuassist-backend/pkg/textutil"

	"github.com/antzucaro/matchr"
)

const (
	report_tabular_extra_cells = "row.extra-cells"
	report_tabular_no_table    = "tables.none-qualified"
)

// Column is one entry of the canonical column order, Labels are the header texts that
// identify it.
type Column struct {
	Field  string   `json:"field"`
	Labels []string `json:"labels"`
}

type TabularConfig struct {
	// Require lists keywords that must all appear in a table's text for it to be scanned.
	Require []string `json:"require"`
	// Any lists keywords of which at least one must appear, ignored when empty.
	Any []string `json:"any"`
	// FirstOnly stops at the first qualifying table.
	FirstOnly bool `json:"first_only"`

	Columns          []Column `json:"columns"`
	HeaderMinMatches int      `json:"header_min_matches"`
	MinCells         int      `json:"min_cells"`
	// PadToHeader pads or truncates rows to the header length instead of falling back to the
	// canonical column order.
	PadToHeader    bool    `json:"pad_to_header"`
	FuzzyThreshold float64 `json:"fuzzy_threshold"`

	CategoryField string   `json:"category_field"`
	Categories    []string `json:"categories"`
	NameField     string   `json:"name_field"`
	// LabelFields are excluded from the "every data field is empty" check together with the
	// category, name and section fields.
	LabelFields []string `json:"label_fields"`
	// SectionFields take the section key from the row itself instead of the tracker.
	SectionFields []string `json:"section_fields"`
	// Validate maps a field to a regular expression its raw value must match.
	Validate map[string]string `json:"validate"`
}

type column struct {
	field  string
	labels []string
}

// Tabular parses rendered tables, header row first, into records.
type Tabular struct {
	cfg        TabularConfig
	classifier classify.Classifier
	tel        telemetry.API

	columns    []column
	allLabels  []string
	require    []string
	any        []string
	categories []string
	validate   map[string]*regexp.Regexp
	nonData    map[string]struct{}
}

func NewTabular(cfg TabularConfig, classifier classify.Classifier, tel telemetry.API) (Tabular, error) {
	assert.NotNil(tel)

	if len(cfg.Columns) == 0 {
		return Tabular{}, fmt.Errorf("tabular: at least one column is required")
	}
	if cfg.HeaderMinMatches <= 0 {
		cfg.HeaderMinMatches = 2
	}
	if cfg.MinCells <= 0 {
		cfg.MinCells = 2
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = 0.85
	}

	t := Tabular{
		cfg:        cfg,
		classifier: classifier,
		tel:        telemetry.NewScopedAPI(TABULAR, tel),
		require:    foldAll(cfg.Require),
		any:        foldAll(cfg.Any),
		categories: foldAll(cfg.Categories),
		validate:   map[string]*regexp.Regexp{},
		nonData:    map[string]struct{}{},
	}
	for _, c := range cfg.Columns {
		if c.Field == "" {
			return Tabular{}, fmt.Errorf("tabular: column without a field name")
		}
		col := column{field: c.Field}
		for _, l := range c.Labels {
			l = textutil.NormalizeLabel(l)
			if l != "" {
				col.labels = append(col.labels, l)
				t.allLabels = append(t.allLabels, l)
			}
		}
		t.columns = append(t.columns, col)
	}
	for field, expr := range cfg.Validate {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Tabular{}, fmt.Errorf("tabular: validate %s: %w", field, err)
		}
		t.validate[field] = re
	}
	for _, f := range append(append([]string{cfg.CategoryField, cfg.NameField}, cfg.LabelFields...), cfg.SectionFields...) {
		if f != "" {
			t.nonData[f] = struct{}{}
		}
	}
	return t, nil
}

func (t Tabular) Name() string {
	return TABULAR
}

func (t Tabular) qualifies(table record.Table) bool {
	var text strings.Builder
	for _, row := range table {
		text.WriteString(textutil.Fold(record.JoinRow(row)))
		text.WriteByte('\n')
	}
	joined := text.String()
	for _, k := range t.require {
		if !strings.Contains(joined, k) {
			return false
		}
	}
	if len(t.any) > 0 && !textutil.ContainsAny(joined, t.any) {
		return false
	}
	return true
}

// headerMatches counts the cells that contain a known header label.
func (t Tabular) headerMatches(row []string) int {
	count := 0
	for _, cell := range row {
		if textutil.MatchLabel(cell, t.allLabels) {
			count++
		}
	}
	return count
}

func (t Tabular) isHeaderLike(row []string) bool {
	return t.headerMatches(row) >= t.cfg.HeaderMinMatches
}

// resolveHeader maps every header cell to a field. Exact label matches are taken first,
// then the longest contained label, then the closest label by Jaro-Winkler similarity.
// Cells that match nothing keep their own text as field name.
func (t Tabular) resolveHeader(header []string) []string {
	fields := make([]string, len(header))
	used := make([]bool, len(t.columns))
	normalized := make([]string, len(header))
	for i, cell := range header {
		normalized[i] = textutil.NormalizeLabel(cell)
	}

	assign := func(cellIdx int, score func(label string) float64, threshold float64) {
		best, bestScore := -1, 0.0
		for ci, col := range t.columns {
			if used[ci] {
				continue
			}
			for _, l := range col.labels {
				s := score(l)
				if s >= threshold && s > bestScore {
					best, bestScore = ci, s
				}
			}
		}
		if best >= 0 {
			used[best] = true
			fields[cellIdx] = t.columns[best].field
		}
	}

	passes := []struct {
		score     func(cell, label string) float64
		threshold float64
	}{
		{
			score: func(cell, label string) float64 {
				if cell == label {
					return 1
				}
				return 0
			},
			threshold: 1,
		},
		{
			score: func(cell, label string) float64 {
				if strings.Contains(cell, label) {
					return float64(len(label))
				}
				return 0
			},
			threshold: 1,
		},
		{
			score: func(cell, label string) float64 {
				return matchr.JaroWinkler(cell, label, false)
			},
			threshold: t.cfg.FuzzyThreshold,
		},
	}
	for _, pass := range passes {
		for i := range header {
			if fields[i] != "" || normalized[i] == "" {
				continue
			}
			cell := normalized[i]
			assign(i, func(label string) float64 { return pass.score(cell, label) }, pass.threshold)
		}
	}

	for i, cell := range header {
		if fields[i] != "" {
			continue
		}
		fields[i] = textutil.CollapseSpace(cell)
		if fields[i] == "" {
			fields[i] = fmt.Sprintf("column_%d", i)
		}
	}
	return fields
}

func nonEmptyCells(row []string) int {
	count := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			count++
		}
	}
	return count
}

func (t Tabular) Extract(in Input) Outcome {
	out := Outcome{}
	tracker := in.tracker()

	scanned := 0
	for _, table := range in.Content.Tables {
		if !t.qualifies(table) {
			continue
		}
		scanned++
		t.scanTable(table, tracker, &out)
		if t.cfg.FirstOnly {
			break
		}
	}
	if scanned == 0 && len(in.Content.Tables) > 0 {
		t.tel.ReportDebug(report_tabular_no_table, len(in.Content.Tables))
	}

	return out.finish(t.tel)
}

func (t Tabular) scanTable(table record.Table, tracker *section.Tracker, out *Outcome) {
	headerIdx := -1
	for i, row := range table {
		if t.isHeaderLike(row) {
			headerIdx = i
			break
		}
	}
	var header []string
	if headerIdx >= 0 {
		header = t.resolveHeader(table[headerIdx])
	}

	for i, row := range table {
		if i == headerIdx {
			continue
		}
		if nonEmptyCells(row) == 0 {
			out.skip()
			continue
		}

		joined := record.JoinRow(row)
		if key, ok := t.classifier.SectionKey(joined); ok {
			tracker.Enter(key)
			continue
		}
		if headerIdx >= 0 && i > headerIdx && t.isHeaderLike(row) {
			out.skip()
			continue
		}
		if nonEmptyCells(row) < t.cfg.MinCells {
			out.skip()
			continue
		}

		var rec record.Record
		if header != nil && (len(row) == len(header) || t.cfg.PadToHeader) {
			rec = zipRow(header, row)
		} else {
			var extra []string
			rec, extra = t.canonicalRow(row)
			if len(extra) > 0 {
				out.anomaly(t.tel, report_tabular_extra_cells, joined, extra)
			}
		}

		key := sectionFromFields(rec, t.cfg.SectionFields)
		if key == "" {
			current, ok := tracker.Current()
			if !ok {
				out.skip()
				continue
			}
			key = current
		}
		rec.Section = key

		if !t.accept(&rec) {
			out.skip()
			continue
		}
		out.Records = append(out.Records, rec)
	}
}

// zipRow pairs cells with header fields, shorter rows leave the trailing fields empty and
// longer rows are truncated.
func zipRow(header []string, row []string) record.Record {
	rec := record.Record{}
	for i, field := range header {
		if i >= len(row) {
			break
		}
		rec.SetString(field, textutil.CollapseSpace(row[i]))
	}
	return rec
}

func (t Tabular) canonicalRow(row []string) (record.Record, []string) {
	rec := record.Record{}
	var extra []string
	for i, cell := range row {
		cell = textutil.CollapseSpace(cell)
		if i >= len(t.columns) {
			if cell != "" {
				extra = append(extra, cell)
			}
			continue
		}
		rec.SetString(t.columns[i].field, cell)
	}
	return rec, extra
}

// accept validates a mapped row and cleans its name field.
func (t Tabular) accept(rec *record.Record) bool {
	if t.cfg.CategoryField != "" && len(t.categories) > 0 {
		if !contains(t.categories, textutil.Fold(rec.Raw(t.cfg.CategoryField))) {
			return false
		}
	}
	for field, re := range t.validate {
		if !re.MatchString(textutil.Fold(rec.Raw(field))) {
			return false
		}
	}
	if t.cfg.NameField != "" {
		if name := rec.Raw(t.cfg.NameField); name != "" {
			rec.Set(t.cfg.NameField, record.String(textutil.CleanEntityName(name)))
		}
	}

	hasData := false
	for _, f := range rec.Fields {
		if _, skip := t.nonData[f.Name]; skip {
			continue
		}
		if !f.Value.IsEmpty() {
			hasData = true
			break
		}
	}
	return hasData && rec.Valid()
}
