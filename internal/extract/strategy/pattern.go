package strategy

import (
	"fmt"
	"regexp"

	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/pkg/textutil"
)

const report_pattern_match = "pattern.match"

type Template struct {
	Field string `json:"field"`
	// Template uses regexp.Expand syntax, e.g. "$3/$4".
	Template string `json:"template"`
}

type Constant struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type Pattern struct {
	Regex string `json:"regex"`
	// Fields names the capture groups in order, an empty name drops the group.
	Fields    []string   `json:"fields"`
	Templates []Template `json:"templates"`
	Constants []Constant `json:"constants"`
	// LineField stores the whole line when set.
	LineField string `json:"line_field"`
}

type PatternConfig struct {
	Patterns      []Pattern `json:"patterns"`
	SectionFields []string  `json:"section_fields"`
}

type compiledPattern struct {
	Pattern
	re *regexp.Regexp
}

// PatternStrategy applies line regexes. Lines are matched against the patterns before the
// marker check so a pattern may describe a line that also looks like a marker.
type PatternStrategy struct {
	cfg        PatternConfig
	classifier classify.Classifier
	tel        telemetry.API
	patterns   []compiledPattern
}

func NewPattern(cfg PatternConfig, classifier classify.Classifier, tel telemetry.API) (PatternStrategy, error) {
	assert.NotNil(tel)

	if len(cfg.Patterns) == 0 {
		return PatternStrategy{}, fmt.Errorf("pattern: at least one pattern is required")
	}
	p := PatternStrategy{
		cfg:        cfg,
		classifier: classifier,
		tel:        telemetry.NewScopedAPI(PATTERN, tel),
	}
	for _, pattern := range cfg.Patterns {
		re, err := regexp.Compile(pattern.Regex)
		if err != nil {
			return PatternStrategy{}, fmt.Errorf("pattern %q: %w", pattern.Regex, err)
		}
		if len(pattern.Fields) > re.NumSubexp() {
			return PatternStrategy{}, fmt.Errorf(
				"pattern %q: %d fields for %d capture groups",
				pattern.Regex, len(pattern.Fields), re.NumSubexp(),
			)
		}
		p.patterns = append(p.patterns, compiledPattern{Pattern: pattern, re: re})
	}
	return p, nil
}

func (p PatternStrategy) Name() string {
	return PATTERN
}

func (p PatternStrategy) Extract(in Input) Outcome {
	out := Outcome{}
	tracker := in.tracker()

lines:
	for _, line := range in.Content.TextLines() {
		folded := textutil.Fold(line)
		for _, pattern := range p.patterns {
			match := pattern.re.FindStringSubmatchIndex(folded)
			if match == nil {
				continue
			}
			rec := p.build(pattern, folded, line, match)

			key := sectionFromFields(rec, p.cfg.SectionFields)
			if key == "" {
				current, ok := tracker.Current()
				if !ok {
					out.skip()
					continue lines
				}
				key = current
			}
			rec.Section = key
			if !rec.Valid() {
				out.skip()
				continue lines
			}
			p.tel.ReportDebug(report_pattern_match, pattern.Regex, line)
			out.Records = append(out.Records, rec)
			continue lines
		}

		if tracker.Observe(p.classifier.Classify(line)) {
			continue
		}
		out.skip()
	}

	return out.finish(p.tel)
}

func (p PatternStrategy) build(pattern compiledPattern, folded, line string, match []int) record.Record {
	rec := record.Record{}
	for i, field := range pattern.Fields {
		if field == "" {
			continue
		}
		start, end := match[2*(i+1)], match[2*(i+1)+1]
		if start < 0 {
			continue
		}
		rec.SetString(field, folded[start:end])
	}
	for _, t := range pattern.Templates {
		value := pattern.re.ExpandString(nil, t.Template, folded, match)
		rec.SetString(t.Field, string(value))
	}
	for _, c := range pattern.Constants {
		rec.SetString(c.Field, c.Value)
	}
	if pattern.LineField != "" {
		rec.SetString(pattern.LineField, line)
	}
	return rec
}
