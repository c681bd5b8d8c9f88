package summary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/internal/extract/section"
)

const (
	report_summary_short_line = "line.too-few-values"
	report_summary_extra      = "line.extra-values"
)

type Config struct {
	// SubPeriods name the sub-periods in the order their values appear on a line.
	SubPeriods []string `json:"sub_periods"`
	// Kinds are the aggregate kinds that make a complete summary, in field order.
	Kinds           []string `json:"kinds"`
	ConductAlphabet string   `json:"conduct_alphabet"`
}

func DefaultConfig() Config {
	return Config{
		SubPeriods: []string{"上學期", "下學期"},
		Kinds: []string{
			classify.AGGREGATE_AVERAGE,
			classify.AGGREGATE_CREDITS_ATTEMPTED,
			classify.AGGREGATE_CREDITS_EARNED,
			classify.AGGREGATE_CONDUCT,
		},
		ConductAlphabet: "甲乙丙丁戊",
	}
}

var (
	decimalRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerRegex = regexp.MustCompile(`\d+`)
)

// Aggregator builds summary records from aggregate marker lines, independent of the main
// record stream. It runs its own section tracker over the lines.
type Aggregator struct {
	cfg        Config
	classifier classify.Classifier
	tel        telemetry.API
}

func NewAggregator(cfg Config, classifier classify.Classifier, tel telemetry.API) (Aggregator, error) {
	assert.NotNil(tel)

	if len(cfg.SubPeriods) == 0 {
		return Aggregator{}, fmt.Errorf("summary: at least one sub-period is required")
	}
	if len(cfg.Kinds) == 0 {
		return Aggregator{}, fmt.Errorf("summary: at least one aggregate kind is required")
	}
	return Aggregator{
		cfg:        cfg,
		classifier: classifier,
		tel:        telemetry.NewScopedAPI("summary", tel),
	}, nil
}

type pending struct {
	section string
	values  map[string][]record.Value
}

func (p *pending) reset(section string) {
	p.section = section
	p.values = map[string][]record.Value{}
}

func (a Aggregator) complete(p *pending) bool {
	for _, kind := range a.cfg.Kinds {
		if _, ok := p.values[kind]; !ok {
			return false
		}
	}
	return true
}

// emit turns the pending values into one summary per sub-period, missing values are absent.
func (a Aggregator) emit(p *pending, out *[]record.SummaryRecord) {
	if len(p.values) == 0 {
		return
	}
	for i, sub := range a.cfg.SubPeriods {
		s := record.SummaryRecord{
			Record:    record.Record{Section: p.section},
			SubPeriod: sub,
		}
		for _, kind := range a.cfg.Kinds {
			value := record.Absent()
			if values := p.values[kind]; i < len(values) {
				value = values[i]
			}
			s.Fields = append(s.Fields, record.Field{Name: kind, Value: value})
		}
		*out = append(*out, s)
	}
	p.reset(p.section)
}

// Aggregate scans lines in order and returns the summaries in discovery order.
func (a Aggregator) Aggregate(lines []string, initialSection string) ([]record.SummaryRecord, []error) {
	var out []record.SummaryRecord
	var diagnostics []error
	tracker := section.NewTrackerIn(initialSection)
	current := &pending{}
	current.reset(initialSection)

	for _, line := range lines {
		res := a.classifier.Classify(line)
		switch res.Category {
		case classify.SECTION_MARKER:
			a.emit(current, &out)
			tracker.Observe(res)
			current.reset(res.Key())
		case classify.AGGREGATE_MARKER:
			key, ok := tracker.Current()
			if !ok {
				continue
			}
			current.section = key
			kind, label := res.Captures[0], res.Captures[1]
			if !contains(a.cfg.Kinds, kind) {
				continue
			}
			_, after, _ := strings.Cut(res.Token, label)
			values, errs := a.values(kind, after, line)
			diagnostics = append(diagnostics, errs...)
			current.values[kind] = values
			if a.complete(current) {
				a.emit(current, &out)
			}
		}
	}
	a.emit(current, &out)

	return out, diagnostics
}

func (a Aggregator) values(kind, text, line string) ([]record.Value, []error) {
	var found []string
	switch kind {
	case classify.AGGREGATE_CONDUCT:
		for _, r := range text {
			if strings.ContainsRune(a.cfg.ConductAlphabet, r) {
				found = append(found, string(r))
			}
		}
	case classify.AGGREGATE_CREDITS_ATTEMPTED, classify.AGGREGATE_CREDITS_EARNED:
		found = integerRegex.FindAllString(text, -1)
	default:
		found = decimalRegex.FindAllString(text, -1)
	}

	want := len(a.cfg.SubPeriods)
	var errs []error
	if len(found) < want {
		a.tel.ReportWarning(report_summary_short_line, line, len(found), want)
	}
	if len(found) > want {
		err := &record.AnomalousToken{Line: line, Extra: found[want:]}
		a.tel.ReportWarning(report_summary_extra, err)
		errs = append(errs, err)
		found = found[:want]
	}

	values := make([]record.Value, len(found))
	for i, raw := range found {
		switch kind {
		case classify.AGGREGATE_CONDUCT:
			values[i] = record.String(raw)
		case classify.AGGREGATE_CREDITS_ATTEMPTED, classify.AGGREGATE_CREDITS_EARNED:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				values[i] = record.Absent()
				errs = append(errs, &record.NormalizationError{Field: kind, Raw: raw, Type: "int"})
				continue
			}
			values[i] = record.Int(n)
		default:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				values[i] = record.Absent()
				errs = append(errs, &record.NormalizationError{Field: kind, Raw: raw, Type: "float"})
				continue
			}
			values[i] = record.Float(f)
		}
	}
	return values, errs
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
